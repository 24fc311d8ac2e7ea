package reactor

import "sync/atomic"

// MultiBase is a fixed array of independent reactors dispatched to in
// round-robin order, the Go port of handy's MultiBase. It is the
// mechanism TcpServer uses to spread accepted connections across N
// single-threaded EventBase loops.
type MultiBase struct {
	id    atomic.Int64
	bases []*EventBase
}

// NewMultiBase constructs n reactors, each built with the given
// options.
func NewMultiBase(n int, opts ...EventBaseOption) (*MultiBase, error) {
	mb := &MultiBase{bases: make([]*EventBase, n)}
	for i := range mb.bases {
		b, err := NewEventBase(opts...)
		if err != nil {
			for _, created := range mb.bases[:i] {
				created.Exit()
			}
			return nil, err
		}
		mb.bases[i] = b
	}
	return mb, nil
}

// AllocBase returns the next reactor in round-robin order.
func (mb *MultiBase) AllocBase() *EventBase {
	c := mb.id.Add(1) - 1
	return mb.bases[int(c)%len(mb.bases)]
}

// Bases returns the underlying reactors, in order.
func (mb *MultiBase) Bases() []*EventBase {
	return mb.bases
}

// Loop runs every reactor but the last on its own goroutine and the
// last one on the calling goroutine, returning once all have exited.
// This mirrors handy's MultiBase::loop, which spawns N-1 threads and
// runs the final reactor inline so the calling thread participates
// rather than sitting idle.
func (mb *MultiBase) Loop() {
	n := len(mb.bases)
	if n == 0 {
		return
	}
	done := make(chan struct{}, n-1)
	for i := 0; i < n-1; i++ {
		b := mb.bases[i]
		go func() {
			b.Loop()
			done <- struct{}{}
		}()
	}
	mb.bases[n-1].Loop()
	for i := 0; i < n-1; i++ {
		<-done
	}
}

// Exit requests every reactor in the set to stop.
func (mb *MultiBase) Exit() {
	for _, b := range mb.bases {
		b.Exit()
	}
}
