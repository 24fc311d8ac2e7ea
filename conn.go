package reactor

import (
	"golang.org/x/sys/unix"
)

// ConnState is a TcpConn's position in its state machine:
// Invalid -> Handshaking -> Connected -> {Closed, Failed}.
type ConnState int

const (
	StateInvalid ConnState = iota
	StateHandshaking
	StateConnected
	StateClosed
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateInvalid:
		return "invalid"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ConnCallback is a lifecycle hook: delivered readable data, a
// writable transition, or a state change, depending on which of
// SetOnRead / SetOnWritable / SetOnState it was installed through.
type ConnCallback func(conn *TcpConn)

// MsgCallback is delivered one fully decoded message at a time.
type MsgCallback func(conn *TcpConn, msg Slice)

// TcpConn is a single TCP connection's state machine: buffered
// read/write, write-readiness gating, optional codec-driven framing,
// optional reconnection, and idle tracking. TcpConn is only ever
// mutated from its base's loop goroutine, except through SafeCall.
type TcpConn struct {
	base    *EventBase
	channel *Channel

	input, output Buffer

	localAddr, peerAddr string

	state ConnState

	onRead     ConnCallback
	onWritable ConnCallback
	onState    ConnCallback

	onMsgCb MsgCallback
	codec   CodecBase

	idleIDs []IdleID
	timeout TimerID

	destHost, localIP       string
	destPort                int
	connectTimeoutMs        int64
	reconnectIntervalMs     int64 // negative: no reconnect
	connectedAtMs           int64

	suggestBufSize int
}

// NewTcpConn returns a TcpConn in state Invalid, ready to be passed to
// Attach (inbound) or Connect (outbound). reconnectIntervalMs defaults
// to -1 (no reconnect); set it with SetReconnectInterval before the
// first Connect if desired.
func NewTcpConn() *TcpConn {
	return &TcpConn{
		state:               StateInvalid,
		reconnectIntervalMs: -1,
	}
}

// Base returns the owning reactor.
func (c *TcpConn) Base() *EventBase { return c.base }

// State returns the connection's current state.
func (c *TcpConn) State() ConnState { return c.state }

// Input returns the read buffer.
func (c *TcpConn) Input() *Buffer { return &c.input }

// Output returns the write buffer.
func (c *TcpConn) Output() *Buffer { return &c.output }

// PeerAddr returns the remote address as host:port.
func (c *TcpConn) PeerAddr() string { return c.peerAddr }

// LocalAddr returns the local address as host:port.
func (c *TcpConn) LocalAddr() string { return c.localAddr }

// SetOnRead installs the raw-read callback. Mutually exclusive with
// OnMsg; installing both is a programming error.
func (c *TcpConn) SetOnRead(cb ConnCallback) {
	if c.onMsgCb != nil {
		panic(ErrCallbackConflict)
	}
	c.onRead = cb
}

// SetOnWritable installs the write-drained callback.
func (c *TcpConn) SetOnWritable(cb ConnCallback) { c.onWritable = cb }

// SetOnState installs the state-transition callback.
func (c *TcpConn) SetOnState(cb ConnCallback) { c.onState = cb }

// SetReconnectInterval sets how long to wait before reconnecting after
// cleanup: negative disables reconnection, zero reconnects immediately,
// positive is a delay in milliseconds.
func (c *TcpConn) SetReconnectInterval(ms int64) { c.reconnectIntervalMs = ms }

// SetSuggestBufferSize sets the input buffer's growth hint.
func (c *TcpConn) SetSuggestBufferSize(n int) {
	c.suggestBufSize = n
	c.input.SetSuggestSize(n)
}

// SetNoDelay toggles TCP_NODELAY on the connection's socket, disabling
// (or re-enabling) Nagle's algorithm. Only meaningful once the socket
// exists, so it must be called after Attach/Connect has run.
func (c *TcpConn) SetNoDelay(v bool) error {
	if c.channel == nil {
		return ErrClosed
	}
	return setNoDelay(c.channel.Fd(), v)
}

// OnMsg installs codec-driven message framing: after every delivered
// read, codec.TryDecode is called repeatedly against the input buffer
// until it reports "need more" or an error. Mutually exclusive with
// SetOnRead.
func (c *TcpConn) OnMsg(codec CodecBase, cb MsgCallback) {
	if c.onRead != nil {
		panic(ErrCallbackConflict)
	}
	c.codec = codec
	c.onMsgCb = cb
	c.onRead = func(conn *TcpConn) {
		for {
			res := conn.codec.TryDecode(conn.input.Slice())
			if res.Err != nil {
				conn.channel.Close()
				return
			}
			if res.Consumed == 0 {
				return
			}
			cb(conn, res.Message)
			conn.input.Consume(res.Consumed)
		}
	}
}

// SendMsg encodes msg through the installed codec and sends it.
func (c *TcpConn) SendMsg(msg Slice) {
	c.codec.Encode(msg, &c.output)
	c.SendBuffer(&c.output)
}

// Attach binds fd to this connection under base, starting the
// handshake (read+write interest, state Handshaking). Precondition:
// state is Invalid (inbound accept) or Handshaking (outbound connect,
// which calls Attach internally).
func (c *TcpConn) Attach(base *EventBase, fd int, local, peer string) error {
	if c.state != StateInvalid && c.state != StateHandshaking {
		return ErrBadState
	}
	c.base = base
	c.state = StateHandshaking
	c.localAddr = local
	c.peerAddr = peer
	if c.suggestBufSize > 0 {
		c.input.SetSuggestSize(c.suggestBufSize)
	}

	ch := NewChannel(base, fd)
	ch.SetReadCallback(func(*Channel) { c.handleRead() })
	ch.SetWriteCallback(func(*Channel) { c.handleWrite() })
	c.channel = ch
	if err := ch.EnableReadWrite(true, true); err != nil {
		return err
	}
	return ch.Attach()
}

// Connect dials host:port asynchronously: the socket is created
// non-blocking and connect(2) is expected to return EINPROGRESS.
// Attach always runs, even if the synchronous attempt already failed,
// so the first readiness notification is what surfaces the failure
// (handy's unified path; see the Design Notes on this).
func (c *TcpConn) Connect(base *EventBase, host string, port int, timeoutMs int64, localIP string) error {
	if c.state != StateInvalid && c.state != StateClosed && c.state != StateFailed {
		return ErrBadState
	}
	c.destHost, c.destPort = host, port
	c.connectTimeoutMs = timeoutMs
	c.localIP = localIP
	c.connectedAtMs = nowMilli()

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return err
	}
	if err := setNonBlock(fd, true); err != nil {
		closeFd(fd)
		return err
	}
	if err := setCloexec(fd, true); err != nil {
		closeFd(fd)
		return err
	}

	if localIP != "" {
		localSA, err := resolveTCPAddr(localIP, 0)
		if err != nil {
			closeFd(fd)
			return err
		}
		if err := unix.Bind(fd, &localSA); err != nil {
			closeFd(fd)
			return err
		}
	}

	destSA, err := resolveTCPAddr(host, port)
	if err != nil {
		closeFd(fd)
		return err
	}
	if err := unix.Connect(fd, &destSA); err != nil && err != unix.EINPROGRESS {
		base.log(LevelWarn, "connect to %s:%d failed: %v", host, port, err)
	}

	local := socketAddr(fd)
	peer := formatAddr(&destSA)

	c.state = StateHandshaking
	if err := c.Attach(base, fd, local, peer); err != nil {
		closeFd(fd)
		return err
	}
	if timeoutMs > 0 {
		c.timeout = base.RunAfter(timeoutMs, func() {
			if c.state == StateHandshaking {
				c.channel.Close()
			}
		}, 0)
	}
	return nil
}

// Close schedules the channel to close on this reactor's next
// iteration, the thread-safe way to tear down a connection.
func (c *TcpConn) Close() {
	if c.channel == nil {
		return
	}
	c.base.SafeCall(func() {
		if c.channel != nil {
			c.channel.Close()
		}
	})
}

// CloseNow closes the channel immediately. Only safe from the
// connection's own reactor goroutine.
func (c *TcpConn) CloseNow() {
	if c.channel != nil {
		c.channel.Close()
	}
}

func (c *TcpConn) handleHandshake() bool {
	fd := c.channel.Fd()
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT | unix.POLLERR}}
	n, err := unix.Poll(pfd, 0)
	if err == nil && n == 1 && pfd[0].Revents == unix.POLLOUT {
		c.channel.EnableReadWrite(true, false)
		c.state = StateConnected
		c.connectedAtMs = nowMilli()
		if c.onState != nil {
			c.onState(c)
		}
		return true
	}
	c.cleanup()
	return false
}

func (c *TcpConn) handleRead() {
	if c.state == StateHandshaking {
		c.handleHandshake()
		return
	}
	const readChunk = 65536
	for c.state == StateConnected {
		fd := c.channel.Fd()
		if fd < 0 {
			c.cleanup()
			return
		}
		room := c.input.Tail(readChunk)
		n, err := unix.Read(fd, room)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			for _, id := range c.idleIDs {
				c.base.UpdateIdle(id)
			}
			if c.onRead != nil && c.input.Size() > 0 {
				c.onRead(c)
			}
			return
		}
		if err != nil || n == 0 {
			c.cleanup()
			return
		}
		c.input.Grow(n)
	}
}

func (c *TcpConn) handleWrite() {
	switch c.state {
	case StateHandshaking:
		c.handleHandshake()
	case StateConnected:
		sent := c.isend(c.output.Bytes())
		c.output.Consume(sent)
		if c.output.Empty() && c.onWritable != nil {
			c.onWritable(c)
		}
		if c.output.Empty() && c.channel.Events().Has(EventWrite) {
			c.channel.EnableWrite(false)
		}
	}
}

// isend writes as much of buf as the socket will currently accept.
func (c *TcpConn) isend(buf []byte) int {
	sent := 0
	for sent < len(buf) {
		n, err := unix.Write(c.channel.Fd(), buf[sent:])
		if n > 0 {
			sent += n
			continue
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			if !c.channel.Events().Has(EventWrite) {
				c.channel.EnableWrite(true)
			}
			break
		}
		c.base.log(LevelError, "write error on fd %d: %v", c.channel.Fd(), err)
		break
	}
	return sent
}

// Send writes buf, preferring an immediate inline write when the
// output buffer is already empty and falling back to buffering
// whatever doesn't fit.
func (c *TcpConn) Send(buf []byte) {
	if c.channel == nil {
		c.base.log(LevelWarn, "send on connection %s: %v", c.peerAddr, ErrClosed)
		return
	}
	if len(buf) == 0 {
		c.base.log(LevelTrace, "send on connection %s: %v", c.peerAddr, ErrEmptyBuffer)
		return
	}
	if c.output.Empty() {
		n := c.isend(buf)
		buf = buf[n:]
	}
	if len(buf) > 0 {
		c.output.Append(buf)
	}
}

// SendBuffer absorbs buf into the output path, preferring an inline
// write when nothing is already pending.
func (c *TcpConn) SendBuffer(buf *Buffer) {
	if c.channel == nil {
		c.base.log(LevelWarn, "send on connection %s: %v", c.peerAddr, ErrClosed)
		return
	}
	if buf.Size() == 0 {
		c.base.log(LevelTrace, "send on connection %s: %v", c.peerAddr, ErrEmptyBuffer)
		return
	}
	if c.channel.Events().Has(EventWrite) {
		c.output.Absorb(buf)
	}
	if buf.Size() > 0 {
		n := c.isend(buf.Bytes())
		buf.Consume(n)
	}
	if buf.Size() > 0 {
		c.output.Absorb(buf)
		if !c.channel.Events().Has(EventWrite) {
			c.channel.EnableWrite(true)
		}
	}
}

// AddIdleCallback registers cb to fire after seconds of read
// inactivity.
func (c *TcpConn) AddIdleCallback(seconds int, cb ConnCallback) {
	id := c.base.RegisterIdle(seconds, c, func(conn *TcpConn) { cb(conn) })
	c.idleIDs = append(c.idleIDs, id)
}

// cleanup runs exactly once per connection lifetime: delivers a
// last-chance read, transitions to a terminal state, cancels the
// connect timeout, fires onState, and either re-enters the reconnect
// path or tears the channel down.
func (c *TcpConn) cleanup() {
	if c.onRead != nil && c.input.Size() > 0 {
		c.onRead(c)
	}
	if c.state == StateHandshaking {
		c.state = StateFailed
	} else {
		c.state = StateClosed
	}
	c.base.CancelTimer(c.timeout)
	if c.onState != nil {
		c.onState(c)
	}
	if c.reconnectIntervalMs >= 0 && !c.base.Exited() {
		c.scheduleReconnect()
		return
	}
	for _, id := range c.idleIDs {
		c.base.UnregisterIdle(id)
	}
	c.idleIDs = nil
	c.onRead, c.onWritable, c.onState = nil, nil, nil
	ch := c.channel
	c.channel = nil
	if ch != nil {
		ch.Close()
	}
}

func (c *TcpConn) scheduleReconnect() {
	c.base.addReconnecting(c)
	elapsed := nowMilli() - c.connectedAtMs
	wait := c.reconnectIntervalMs - elapsed
	if wait < 0 {
		wait = 0
	}
	c.base.RunAfter(wait, func() {
		c.base.removeReconnecting(c)
		c.state = StateClosed
		if err := c.Connect(c.base, c.destHost, c.destPort, c.connectTimeoutMs, c.localIP); err != nil {
			c.base.log(LevelError, "reconnect to %s:%d failed: %v", c.destHost, c.destPort, err)
		}
	}, 0)
}
