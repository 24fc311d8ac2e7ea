// Package reactor is a compact event-driven TCP networking library.
//
// A reactor (EventBase) multiplexes readiness events from the platform
// poller (epoll on Linux, kqueue on Darwin) across channels, timers and
// a cross-thread task queue. TcpConn and TcpServer build on top of one
// or more reactors to provide a connection state machine, a accept
// loop with multi-reactor dispatch, and pluggable message codecs.
//
// There is no TLS, no HTTP, no Windows support and no UDP: this is the
// raw plumbing a higher-level protocol or service is built on.
package reactor
