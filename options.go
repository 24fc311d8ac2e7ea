package reactor

import "time"

// eventBaseOptions holds the resolved configuration for an EventBase.
type eventBaseOptions struct {
	logger        Logger
	taskQueueCap  int
	maxPollEvents int
	pollTimeout   time.Duration
}

func defaultEventBaseOptions() eventBaseOptions {
	return eventBaseOptions{
		logger:        defaultLogger(),
		taskQueueCap:  4096,
		maxPollEvents: 2000,
		pollTimeout:   10 * time.Second,
	}
}

// EventBaseOption configures an EventBase at construction time. The type
// wraps a closure over eventBaseOptions, the same shape the teacher's
// LoopOption/loopOptionImpl pair uses for its event loop.
type EventBaseOption interface {
	applyEventBase(*eventBaseOptions)
}

type eventBaseOptionFunc func(*eventBaseOptions)

func (f eventBaseOptionFunc) applyEventBase(o *eventBaseOptions) { f(o) }

// WithLogger overrides the logger an EventBase (and anything built on top
// of it) logs through. Without this option a newly constructed EventBase
// uses the package-level default installed by SetLogger.
func WithLogger(l Logger) EventBaseOption {
	return eventBaseOptionFunc(func(o *eventBaseOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithTaskQueueCapacity bounds the cross-thread task queue a SafeCall
// posts into. Zero or negative leaves the default in place.
func WithTaskQueueCapacity(n int) EventBaseOption {
	return eventBaseOptionFunc(func(o *eventBaseOptions) {
		if n > 0 {
			o.taskQueueCap = n
		}
	})
}

// WithMaxPollEvents bounds how many ready events a single poller Wait
// call can return, mirroring handy's kMaxEvents constant.
func WithMaxPollEvents(n int) EventBaseOption {
	return eventBaseOptionFunc(func(o *eventBaseOptions) {
		if n > 0 {
			o.maxPollEvents = n
		}
	})
}

// WithPollTimeout bounds how long a single Loop iteration blocks in the
// poller when no timer is sooner. Callers rarely need this; it mostly
// exists so tests can force frequent wakeups.
func WithPollTimeout(d time.Duration) EventBaseOption {
	return eventBaseOptionFunc(func(o *eventBaseOptions) {
		if d > 0 {
			o.pollTimeout = d
		}
	})
}

func resolveEventBaseOptions(opts ...EventBaseOption) eventBaseOptions {
	o := defaultEventBaseOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.applyEventBase(&o)
		}
	}
	return o
}

// serverOptions holds the resolved configuration for a TcpServer.
type serverOptions struct {
	reusePort  bool
	rateLimit  *RateLimiter
	suggestBuf int
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		suggestBuf: 16 * 1024,
	}
}

// ServerOption configures a TcpServer at construction time.
type ServerOption interface {
	applyServer(*serverOptions)
}

type serverOptionFunc func(*serverOptions)

func (f serverOptionFunc) applyServer(o *serverOptions) { f(o) }

// WithReusePort sets SO_REUSEPORT on the listening socket so multiple
// TcpServer instances (typically one per MultiBase reactor) can share a
// port with kernel-side load balancing.
func WithReusePort() ServerOption {
	return serverOptionFunc(func(o *serverOptions) { o.reusePort = true })
}

// WithAcceptRateLimiter attaches a RateLimiter that gates accepted
// connections per peer address. Accepting past the limit closes the
// socket immediately, before any TcpConn is built for it.
func WithAcceptRateLimiter(l *RateLimiter) ServerOption {
	return serverOptionFunc(func(o *serverOptions) { o.rateLimit = l })
}

// WithSuggestBufferSize sets the initial read-buffer growth hint (handy's
// Buffer::exp_) for connections this server accepts.
func WithSuggestBufferSize(n int) ServerOption {
	return serverOptionFunc(func(o *serverOptions) {
		if n > 0 {
			o.suggestBuf = n
		}
	})
}

func resolveServerOptions(opts ...ServerOption) serverOptions {
	o := defaultServerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.applyServer(&o)
		}
	}
	return o
}
