package reactor

import "errors"

// Sentinel errors returned by this package. Call sites wrap these with
// fmt.Errorf("%w", ...) when additional context helps a caller.
var (
	// ErrClosed is returned by operations attempted on a channel or a
	// connection that has no open socket (closed, or not attached yet).
	ErrClosed = errors.New("reactor: closed")

	// ErrBadState is returned when an operation is attempted in a
	// connection state that doesn't permit it (e.g. attaching a
	// connection that isn't Invalid or Handshaking). Unlike
	// ErrCallbackConflict, this is deliberately a recoverable error
	// rather than a panic: Attach/Connect can be reached through
	// ordinary runtime races (a caller reusing a TcpConn before its
	// prior close has finished tearing down), not only through setup
	// mistakes a code review would catch, so the caller gets a value to
	// check instead of a crash.
	ErrBadState = errors.New("reactor: bad connection state")

	// ErrQueueFull names a bounded SafeQueue or ThreadPool whose
	// capacity has been reached. Push and AddTask report it as false;
	// HSHA logs this error when it drops a message.
	ErrQueueFull = errors.New("reactor: queue full")

	// ErrCallbackConflict names the condition SetOnRead/OnMsg panic with
	// when both OnRead and OnMessage are set on the same connection or
	// server; they are mutually exclusive framing disciplines. This one
	// panics rather than returning ErrBadState-style: it can only be
	// reached by wiring two incompatible callbacks on the same
	// connection at setup time, which a caller controls completely and
	// which no runtime state or input can trigger on its own.
	ErrCallbackConflict = errors.New("reactor: OnRead and OnMessage are mutually exclusive")

	// ErrBadFrame is returned by a CodecBase.TryDecode implementation
	// when the buffered bytes can never form a valid frame.
	ErrBadFrame = errors.New("reactor: malformed frame")

	// ErrFrameTooLarge is returned by LengthCodec when a declared
	// frame length is negative or exceeds maxFrameSize (1 MiB).
	ErrFrameTooLarge = errors.New("reactor: frame exceeds maximum size")

	// ErrEmptyBuffer is what TcpConn.Send and SendBuffer log when
	// called with a zero-length payload; they return nothing.
	ErrEmptyBuffer = errors.New("reactor: empty buffer")

	// ErrRateLimited is what TcpServer logs when the optional
	// accept-rate limiter rejects a peer that exceeds its budget.
	ErrRateLimited = errors.New("reactor: accept rate exceeded")
)
