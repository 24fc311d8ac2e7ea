package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ConnFactory builds a fresh TcpConn for each accepted connection,
// handy's createcb_. The default factory returns a plain NewTcpConn.
type ConnFactory func() *TcpConn

// TcpServer owns a listening socket bound to one reactor and dispatches
// accepted connections across a MultiBase.
type TcpServer struct {
	base    *EventBase
	multi   *MultiBase
	channel *Channel
	addr    string
	opts    serverOptions

	createConn ConnFactory
	onState    ConnCallback
	onRead     ConnCallback
	onMsg      MsgCallback
	codec      CodecBase
}

// NewTcpServer constructs a server that dispatches accepted connections
// across multi (round-robin), accepting on whichever reactor multi
// hands back first.
func NewTcpServer(multi *MultiBase, opts ...ServerOption) *TcpServer {
	return &TcpServer{
		base:       multi.AllocBase(),
		multi:      multi,
		opts:       resolveServerOptions(opts...),
		createConn: NewTcpConn,
	}
}

// Base returns the reactor the listening socket itself is registered
// on.
func (s *TcpServer) Base() *EventBase { return s.base }

// Addr returns the bound address as host:port.
func (s *TcpServer) Addr() string { return s.addr }

// OnConnCreate overrides the TcpConn factory used for each accepted fd.
func (s *TcpServer) OnConnCreate(f ConnFactory) { s.createConn = f }

// OnConnState installs a state-change callback applied to every
// accepted connection.
func (s *TcpServer) OnConnState(cb ConnCallback) { s.onState = cb }

// OnConnRead installs a raw-read callback applied to every accepted
// connection. Mutually exclusive with OnConnMsg.
func (s *TcpServer) OnConnRead(cb ConnCallback) {
	if s.onMsg != nil {
		panic(ErrCallbackConflict)
	}
	s.onRead = cb
}

// OnConnMsg installs codec-driven message framing applied to every
// accepted connection. Mutually exclusive with OnConnRead.
func (s *TcpServer) OnConnMsg(codec CodecBase, cb MsgCallback) {
	if s.onRead != nil {
		panic(ErrCallbackConflict)
	}
	s.codec = codec
	s.onMsg = cb
}

// Bind creates the listening socket: SO_REUSEADDR, optional
// SO_REUSEPORT, FD_CLOEXEC, bind, listen(backlog=20), then registers a
// READ-interest channel whose callback drains Accept in a loop.
func (s *TcpServer) Bind(host string, port int) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return err
	}
	if err := setReuseAddr(fd, true); err != nil {
		closeFd(fd)
		return err
	}
	if err := setReusePort(fd, s.opts.reusePort); err != nil {
		closeFd(fd)
		return err
	}
	if err := setCloexec(fd, true); err != nil {
		closeFd(fd)
		return err
	}
	sa, err := resolveTCPAddr(host, port)
	if err != nil {
		closeFd(fd)
		return err
	}
	if err := unix.Bind(fd, &sa); err != nil {
		closeFd(fd)
		return fmt.Errorf("reactor: bind %s:%d: %w", host, port, err)
	}
	if err := unix.Listen(fd, 20); err != nil {
		closeFd(fd)
		return fmt.Errorf("reactor: listen %s:%d: %w", host, port, err)
	}
	s.addr = socketAddr(fd)
	s.base.log(LevelInfo, "listening at %s", s.addr)

	ch := NewChannel(s.base, fd)
	ch.SetReadCallback(func(*Channel) { s.handleAccept() })
	s.channel = ch
	if err := ch.EnableRead(true); err != nil {
		return err
	}
	return ch.Attach()
}

func (s *TcpServer) handleAccept() {
	lfd := s.channel.Fd()
	for lfd >= 0 {
		cfd, _, err := unix.Accept(lfd)
		if err != nil {
			if err != unix.EAGAIN && err != unix.EINTR {
				s.base.log(LevelWarn, "accept error: %v", err)
			}
			return
		}
		peer := peerAddr(cfd)
		if s.opts.rateLimit != nil && !s.opts.rateLimit.Allow(peer) {
			closeFd(cfd)
			s.base.log(LevelWarn, "rejected %s: %v", peer, ErrRateLimited)
			continue
		}
		if err := setCloexec(cfd, true); err != nil {
			s.base.log(LevelError, "addFdFlag FD_CLOEXEC failed: %v", err)
			closeFd(cfd)
			continue
		}
		local := socketAddr(cfd)
		target := s.multi.AllocBase()
		addConn := s.buildAcceptClosure(target, cfd, local, peer)
		if target == s.base {
			addConn()
		} else {
			target.SafeCall(addConn)
		}
	}
}

func (s *TcpServer) buildAcceptClosure(base *EventBase, fd int, local, peer string) func() {
	return func() {
		conn := s.createConn()
		if s.suggestSet() {
			conn.SetSuggestBufferSize(s.opts.suggestBuf)
		}
		if err := conn.Attach(base, fd, local, peer); err != nil {
			base.log(LevelError, "attach accepted fd %d failed: %v", fd, err)
			closeFd(fd)
			return
		}
		if s.onState != nil {
			conn.SetOnState(s.onState)
		}
		if s.onRead != nil {
			conn.SetOnRead(s.onRead)
		}
		if s.onMsg != nil {
			conn.OnMsg(s.codec.Clone(), s.onMsg)
		}
	}
}

func (s *TcpServer) suggestSet() bool { return s.opts.suggestBuf > 0 }
