package reactor

// RetMsgCallback handles one decoded message off-reactor and returns
// the response payload to send back (an empty Slice sends nothing).
type RetMsgCallback func(conn *TcpConn, msg Slice) Slice

// HSHA (half-sync/half-async) composes a TcpServer with a ThreadPool:
// message handling runs on worker goroutines while all I/O stays on
// the reactor. Each decoded message is copied, handed to the pool, and
// the response is posted back via SafeCall.
type HSHA struct {
	Server *TcpServer
	pool   *ThreadPool
}

// StartHSHAServer binds a TcpServer on multi and wires it to a new
// ThreadPool of the given size.
func StartHSHAServer(multi *MultiBase, host string, port int, threads int, opts ...ServerOption) (*HSHA, error) {
	server := NewTcpServer(multi, opts...)
	if err := server.Bind(host, port); err != nil {
		return nil, err
	}
	return &HSHA{
		Server: server,
		pool:   NewThreadPool(threads, 0, true),
	}, nil
}

// OnMsg installs codec-driven framing on the underlying server; each
// decoded message runs cb on a worker goroutine, and a non-empty
// response is encoded and sent back on the connection's own reactor.
func (h *HSHA) OnMsg(codec CodecBase, cb RetMsgCallback) {
	h.Server.OnConnMsg(codec, func(conn *TcpConn, msg Slice) {
		input := append(Slice(nil), msg...)
		queued := h.pool.AddTask(func() {
			output := cb(conn, input)
			conn.Base().SafeCall(func() {
				if len(output) > 0 {
					conn.SendMsg(output)
				}
			})
		})
		if !queued {
			conn.Base().log(LevelWarn, "dropped message from %s: %v", conn.PeerAddr(), ErrQueueFull)
		}
	})
}

// Exit stops accepting new work on the thread pool and waits for
// in-flight tasks to finish.
func (h *HSHA) Exit() {
	h.pool.Exit()
	h.pool.Join()
}
