package reactor

import (
	"fmt"
	"sync/atomic"
	"time"
)

// EventBase is a reactor: it owns one Poller, a wake pipe, a timer set,
// a bounded cross-thread task queue, an idle-bucket set and an
// atomic exit flag, and runs a single-threaded cooperative loop on
// whatever goroutine calls Loop.
type EventBase struct {
	poller       Poller
	wake         *wakePipe
	wakeChannel  *Channel
	tasks        *SafeQueue[Task]
	timers       *timerSet
	idle         *idleSet
	reconnecting map[*TcpConn]struct{}
	exiting      atomic.Bool
	logger       Logger
	opts         eventBaseOptions
}

// NewEventBase constructs and initializes a reactor: creates the
// platform poller, the wake pipe, and registers the wake pipe's read
// end as a channel whose callback drains the task queue.
func NewEventBase(opts ...EventBaseOption) (*EventBase, error) {
	o := resolveEventBaseOptions(opts...)

	poller, err := newPoller(o.maxPollEvents)
	if err != nil {
		return nil, fmt.Errorf("reactor: create poller: %w", err)
	}
	wake, err := newWakePipe()
	if err != nil {
		poller.Close()
		return nil, fmt.Errorf("reactor: create wake pipe: %w", err)
	}

	base := &EventBase{
		poller:       poller,
		wake:         wake,
		tasks:        NewSafeQueue[Task](o.taskQueueCap),
		timers:       newTimerSet(),
		idle:         newIdleSet(),
		reconnecting: make(map[*TcpConn]struct{}),
		logger:       o.logger,
		opts:         o,
	}
	if err := base.initWakeChannel(); err != nil {
		wake.Close()
		poller.Close()
		return nil, err
	}
	return base, nil
}

func (b *EventBase) initWakeChannel() error {
	ch := NewChannel(b, b.wake.readFd)
	ch.SetReadCallback(func(ch *Channel) {
		if ch.Fd() < 0 {
			return
		}
		n, closed, err := b.wake.Drain()
		if err != nil {
			b.log(LevelError, "wake pipe read error: %v", err)
			return
		}
		if closed {
			ch.Close()
			return
		}
		if n > 0 {
			for {
				task, ok := b.tasks.Pop()
				if !ok {
					break
				}
				task()
			}
		}
	})
	b.wakeChannel = ch
	if err := ch.EnableRead(true); err != nil {
		return err
	}
	return ch.Attach()
}

func (b *EventBase) log(level LogLevel, format string, args ...any) {
	if b.logger == nil || !b.logger.Enabled(level) {
		return
	}
	b.logger.Log(level, "reactor", fmt.Sprintf(format, args...))
}

// SafeCall posts task onto the reactor's queue and wakes it, the only
// sanctioned way to reach a reactor's state from another goroutine.
// It returns false if the queue is bounded and full; the caller is
// then responsible for deciding how to respond (handy leaves this to
// the caller rather than blocking).
func (b *EventBase) SafeCall(task Task) bool {
	if !b.tasks.Push(task) {
		return false
	}
	if err := b.wake.Wake(); err != nil {
		// A wake-pipe write failure means this reactor can no longer
		// be woken from another thread; per the error-handling design
		// this is system-fatal.
		b.log(LevelError, "wake pipe write failed: %v", err)
		panic(fmt.Sprintf("reactor: wake pipe write failed: %v", err))
	}
	return true
}

// RunAt schedules task to fire at deadlineMs (milliseconds since the
// epoch). If intervalMs is nonzero the timer repeats, and the returned
// id carries a negated deadline so Cancel can tell it apart from a
// one-shot.
func (b *EventBase) RunAt(deadlineMs int64, task Task, intervalMs int64) TimerID {
	if b.exiting.Load() {
		return TimerID{}
	}
	return b.timers.runAt(deadlineMs, task, intervalMs)
}

// RunAfter schedules task to fire delayMs from now, optionally
// repeating every intervalMs.
func (b *EventBase) RunAfter(delayMs int64, task Task, intervalMs int64) TimerID {
	return b.RunAt(nowMilli()+delayMs, task, intervalMs)
}

// CancelTimer cancels a previously scheduled timer. Returns false if
// the timer had already fired (for a one-shot) or was never found.
func (b *EventBase) CancelTimer(id TimerID) bool {
	return b.timers.cancel(id)
}

// RegisterIdle registers conn for an idle callback after seconds of
// inactivity.
func (b *EventBase) RegisterIdle(seconds int, conn *TcpConn, cb IdleCallback) IdleID {
	return b.idle.register(seconds, conn, cb, func() {
		b.RunAfter(1000, func() { b.idle.sweep() }, 1000)
	})
}

// UnregisterIdle removes a previously registered idle callback.
func (b *EventBase) UnregisterIdle(id IdleID) { b.idle.unregister(id) }

// UpdateIdle refreshes id's last-activity time, keeping its bucket
// ordered oldest-first.
func (b *EventBase) UpdateIdle(id IdleID) { b.idle.update(id) }

// addReconnecting marks conn as between connection attempts so Exit's
// shutdown path can clean it up even though it has no live channel.
func (b *EventBase) addReconnecting(conn *TcpConn) {
	b.reconnecting[conn] = struct{}{}
}

func (b *EventBase) removeReconnecting(conn *TcpConn) {
	delete(b.reconnecting, conn)
}

// Exit requests the loop stop after its current iteration. Safe to
// call from any goroutine.
func (b *EventBase) Exit() {
	b.exiting.Store(true)
	b.wake.Wake()
}

// Exited reports whether Exit has been called.
func (b *EventBase) Exited() bool { return b.exiting.Load() }

// Loop runs until Exit is called, dispatching readiness events, firing
// expired timers, and draining the task queue on every iteration.
func (b *EventBase) Loop() {
	waitMs := int(b.opts.pollTimeout / time.Millisecond)
	for !b.exiting.Load() {
		b.loopOnce(waitMs)
	}
	b.timers.clear()
	b.idle.clear()
	for conn := range b.reconnecting {
		conn.cleanup()
	}
	b.loopOnce(0)
}

func (b *EventBase) loopOnce(waitMs int) {
	timeout := waitMs
	if b.timers.nextTimeout < int64(timeout) {
		timeout = int(b.timers.nextTimeout)
	}
	events, err := b.poller.Wait(timeout)
	if err != nil {
		b.log(LevelError, "poller wait error: %v", err)
		return
	}
	for _, ev := range events {
		if ev.Channel == nil || ev.Channel.Fd() < 0 {
			// Closed by a callback earlier in this batch (on kqueue,
			// where READ/WRITE arrive as separate entries for the
			// same fd, this includes a sibling entry for the same
			// channel).
			continue
		}
		if ev.Events.Has(EventWrite) && ev.Channel.onWrite != nil {
			ev.Channel.onWrite(ev.Channel)
		}
		if ev.Channel.Fd() < 0 {
			continue
		}
		if ev.Events.Has(EventRead) && ev.Channel.onRead != nil {
			ev.Channel.onRead(ev.Channel)
		}
	}
	b.timers.expire(nowMilli())
}
