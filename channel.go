package reactor

import (
	"sync/atomic"
)

var channelIDSeq atomic.Int64

// ReadCallback is invoked when a channel's fd becomes readable, or
// exactly once with fd == -1 when the channel is closed (the EOF
// signal TcpConn.cleanup relies on).
type ReadCallback func(ch *Channel)

// WriteCallback is invoked when a channel's fd becomes writable.
type WriteCallback func(ch *Channel)

// Channel bundles a file descriptor, its poller interest mask and its
// callbacks: the unit of registration with a Poller. A Channel is
// created and owned by whatever attaches it (TcpConn, the reactor's own
// wake pipe, TcpServer's listening socket); the reactor itself holds no
// ownership.
type Channel struct {
	id      int64
	base    *EventBase
	poller  Poller
	fd      int
	events  PollEvents
	onRead  ReadCallback
	onWrite WriteCallback
}

// NewChannel wraps fd for base's poller and switches fd to non-blocking
// mode, as handy's Channel constructor does. The channel starts with no
// interest enabled and is not registered with the poller until Attach.
func NewChannel(base *EventBase, fd int) *Channel {
	_ = setNonBlock(fd, true)
	return &Channel{
		id:     channelIDSeq.Add(1),
		base:   base,
		poller: base.poller,
		fd:     fd,
	}
}

// ID returns the channel's monotonic identifier, unique for the
// lifetime of the process.
func (ch *Channel) ID() int64 { return ch.id }

// Fd returns the underlying file descriptor, or -1 once closed.
func (ch *Channel) Fd() int { return ch.fd }

// SetReadCallback installs the read-readiness / EOF callback.
func (ch *Channel) SetReadCallback(cb ReadCallback) { ch.onRead = cb }

// SetWriteCallback installs the write-readiness callback.
func (ch *Channel) SetWriteCallback(cb WriteCallback) { ch.onWrite = cb }

// EnableRead toggles READ interest and pushes the change to the poller.
func (ch *Channel) EnableRead(on bool) error {
	return ch.setEvents(setBit(ch.events, EventRead, on))
}

// EnableWrite toggles WRITE interest and pushes the change to the
// poller.
func (ch *Channel) EnableWrite(on bool) error {
	return ch.setEvents(setBit(ch.events, EventWrite, on))
}

// EnableReadWrite sets both interests in one poller update.
func (ch *Channel) EnableReadWrite(r, w bool) error {
	return ch.setEvents(setBit(setBit(ch.events, EventRead, r), EventWrite, w))
}

func setBit(mask, bit PollEvents, on bool) PollEvents {
	if on {
		return mask | bit
	}
	return mask &^ bit
}

func (ch *Channel) setEvents(next PollEvents) error {
	if next == ch.events {
		return nil
	}
	ch.events = next
	return ch.poller.Update(ch)
}

// Events reports the channel's current interest mask.
func (ch *Channel) Events() PollEvents { return ch.events }

// Attach registers the channel with its poller. Callers attach once,
// right after construction and after setting at least one callback.
func (ch *Channel) Attach() error {
	if ch.fd < 0 {
		return ErrClosed
	}
	return ch.poller.Add(ch)
}

// Close unregisters the channel from its poller, closes the fd, and
// invokes the read callback exactly once with fd already set to -1.
// This is the mechanism TcpConn.handleRead relies on to observe EOF:
// closing a channel always drives one more read-callback invocation.
func (ch *Channel) Close() error {
	if ch.fd < 0 {
		return nil
	}
	err := ch.poller.Remove(ch)
	closeErr := closeFd(ch.fd)
	if err == nil {
		err = closeErr
	}
	ch.fd = -1
	if ch.onRead != nil {
		ch.onRead(ch)
	}
	return err
}
