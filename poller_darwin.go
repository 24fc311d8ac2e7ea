//go:build darwin

package reactor

import (
	"golang.org/x/sys/unix"
)

// kqueuePoller is the Darwin half of the Poller contract. Unlike epoll,
// kqueue tracks READ and WRITE as separate filters, so enabling or
// disabling one direction is an independent EV_ADD|EV_ENABLE or
// EV_DELETE per filter rather than one combined mask update.
type kqueuePoller struct {
	kq     int
	events []unix.Kevent_t
	byFd   map[int]*Channel
	masks  map[int]PollEvents
	active []ActiveEvent
}

func newPoller(maxEvents int) (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	if maxEvents <= 0 {
		maxEvents = maxPollerEvents
	}
	return &kqueuePoller{
		kq:     kq,
		events: make([]unix.Kevent_t, maxEvents),
		byFd:   make(map[int]*Channel),
		masks:  make(map[int]PollEvents),
	}, nil
}

func (p *kqueuePoller) applyDelta(fd int, old, next PollEvents) error {
	var changes []unix.Kevent_t
	if old.Has(EventRead) && !next.Has(EventRead) {
		changes = append(changes, kevent(fd, unix.EVFILT_READ, unix.EV_DELETE))
	}
	if old.Has(EventWrite) && !next.Has(EventWrite) {
		changes = append(changes, kevent(fd, unix.EVFILT_WRITE, unix.EV_DELETE))
	}
	if !old.Has(EventRead) && next.Has(EventRead) {
		changes = append(changes, kevent(fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE))
	}
	if !old.Has(EventWrite) && next.Has(EventWrite) {
		changes = append(changes, kevent(fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE))
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func kevent(fd int, filter int16, flags uint16) unix.Kevent_t {
	return unix.Kevent_t{Ident: uint64(fd), Filter: filter, Flags: flags}
}

func (p *kqueuePoller) Add(ch *Channel) error {
	if err := p.applyDelta(ch.Fd(), 0, ch.Events()); err != nil {
		return err
	}
	p.byFd[ch.Fd()] = ch
	p.masks[ch.Fd()] = ch.Events()
	return nil
}

func (p *kqueuePoller) Update(ch *Channel) error {
	old := p.masks[ch.Fd()]
	if err := p.applyDelta(ch.Fd(), old, ch.Events()); err != nil {
		return err
	}
	p.masks[ch.Fd()] = ch.Events()
	return nil
}

func (p *kqueuePoller) Remove(ch *Channel) error {
	old := p.masks[ch.Fd()]
	delete(p.byFd, ch.Fd())
	delete(p.masks, ch.Fd())
	for i := range p.active {
		if p.active[i].Channel == ch {
			p.active[i].Channel = nil
		}
	}
	return p.applyDelta(ch.Fd(), old, 0)
}

func (p *kqueuePoller) Wait(timeoutMs int) ([]ActiveEvent, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * int64(1_000_000))
		ts = &t
	}

	n, err := unix.Kevent(p.kq, nil, p.events, ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	p.active = p.active[:0]
	for i := 0; i < n; i++ {
		ev := p.events[i]
		ch := p.byFd[int(ev.Ident)]
		if ch == nil {
			continue
		}
		var pe PollEvents
		switch ev.Filter {
		case unix.EVFILT_READ:
			pe = EventRead
		case unix.EVFILT_WRITE:
			pe = EventWrite
		}
		if ev.Flags&unix.EV_EOF != 0 || ev.Flags&unix.EV_ERROR != 0 {
			pe |= EventRead
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

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}
