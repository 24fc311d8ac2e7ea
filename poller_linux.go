//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// epollPoller wraps a single epoll instance. It is the Linux half of the
// Poller contract: level-triggered, one interest mask per fd, events
// folded to READ on error/hangup so the read handler is the single EOF
// discovery point.
type epollPoller struct {
	epfd   int
	events []unix.EpollEvent
	byFd   map[int]*Channel
	active []ActiveEvent
}

func newPoller(maxEvents int) (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	if maxEvents <= 0 {
		maxEvents = maxPollerEvents
	}
	return &epollPoller{
		epfd:   epfd,
		events: make([]unix.EpollEvent, maxEvents),
		byFd:   make(map[int]*Channel),
	}, nil
}

func (p *epollPoller) toEpollEvents(ch *Channel) uint32 {
	var e uint32
	if ch.Events().Has(EventRead) {
		e |= unix.EPOLLIN
	}
	if ch.Events().Has(EventWrite) {
		e |= unix.EPOLLOUT
	}
	return e
}

func (p *epollPoller) Add(ch *Channel) error {
	ev := unix.EpollEvent{Events: p.toEpollEvents(ch), Fd: int32(ch.Fd())}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, ch.Fd(), &ev); err != nil {
		return err
	}
	p.byFd[ch.Fd()] = ch
	return nil
}

func (p *epollPoller) Update(ch *Channel) error {
	if _, ok := p.byFd[ch.Fd()]; !ok {
		// Not added yet: Add registers whatever mask is current then.
		return nil
	}
	ev := unix.EpollEvent{Events: p.toEpollEvents(ch), Fd: int32(ch.Fd())}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, ch.Fd(), &ev)
}

func (p *epollPoller) Remove(ch *Channel) error {
	delete(p.byFd, ch.Fd())
	// Clear ch from p.active, the poller's own record of the current
	// batch. Wait hands its caller a separate copy, which this does not
	// change; the dispatcher skips a closed channel by its Fd() of -1.
	for i := range p.active {
		if p.active[i].Channel == ch {
			p.active[i].Channel = nil
		}
	}
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, ch.Fd(), nil)
	if err == unix.ENOENT || err == unix.EBADF {
		err = nil
	}
	return err
}

func (p *epollPoller) Wait(timeoutMs int) ([]ActiveEvent, error) {
	n, err := unix.EpollWait(p.epfd, p.events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	p.active = p.active[:0]
	for i := 0; i < n; i++ {
		ev := p.events[i]
		ch := p.byFd[int(ev.Fd)]
		if ch == nil {
			continue
		}
		var pe PollEvents
		if ev.Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			pe |= EventRead
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			pe |= EventWrite
		}
		p.active = append(p.active, ActiveEvent{Channel: ch, Events: pe})
	}

	out := make([]ActiveEvent, 0, len(p.active))
	for _, ae := range p.active {
		if ae.Channel != nil {
			out = append(out, ae)
		}
	}
	return out, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
