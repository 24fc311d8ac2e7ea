//go:build linux || darwin

package reactor

import (
	"golang.org/x/sys/unix"
)

// wakePipe is the cross-thread wake primitive a reactor uses to break
// out of poller.Wait: any goroutine writes one byte to the write end,
// the reactor's loop goroutine has the read end registered as a
// channel and drains it on every wake. A plain pipe is used on both
// Linux and Darwin (rather than eventfd on Linux) so the mechanism here
// matches handy's pipe()-based original one-for-one on every platform.
type wakePipe struct {
	readFd  int
	writeFd int
}

func newWakePipe() (*wakePipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, err
	}
	return &wakePipe{readFd: fds[0], writeFd: fds[1]}, nil
}

// Wake writes one byte to the pipe, waking anything blocked in
// poller.Wait on the read end's channel. EAGAIN means the pipe is
// already full of pending wake bytes, which is equivalent to already
// being woken, so it is not an error.
func (w *wakePipe) Wake() error {
	var b [1]byte
	_, err := unix.Write(w.writeFd, b[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

// Drain discards every byte currently available on the read end. It
// returns the number of bytes read and whether the far end has been
// closed (a zero-length read).
func (w *wakePipe) Drain() (n int, closed bool, err error) {
	var buf [256]byte
	total := 0
	for {
		m, rerr := unix.Read(w.readFd, buf[:])
		if m > 0 {
			total += m
		}
		if rerr == unix.EINTR {
			continue
		}
		if rerr == unix.EAGAIN {
			return total, false, nil
		}
		if rerr != nil {
			return total, false, rerr
		}
		if m == 0 {
			return total, true, nil
		}
		if m < len(buf) {
			return total, false, nil
		}
	}
}

func (w *wakePipe) Close() error {
	err1 := unix.Close(w.readFd)
	err2 := unix.Close(w.writeFd)
	if err1 != nil {
		return err1
	}
	return err2
}
