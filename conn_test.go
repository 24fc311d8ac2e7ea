package reactor

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTcpConnSetNoDelayBeforeAttachFails(t *testing.T) {
	conn := NewTcpConn()
	assert.ErrorIs(t, conn.SetNoDelay(true), ErrClosed)
}

func TestTcpConnSetNoDelayAfterConnectSucceeds(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err == nil {
			defer c.Close()
			io := make([]byte, 1)
			c.Read(io)
		}
	}()

	base := newTestBase(t)
	port := portOf(ln.Addr().String())

	conn := NewTcpConn()
	connected := make(chan struct{})
	conn.SetOnState(func(c *TcpConn) {
		if c.State() == StateConnected {
			close(connected)
		}
	})

	connErr := make(chan error, 1)
	base.SafeCall(func() {
		connErr <- conn.Connect(base, "127.0.0.1", port, 2000, "")
	})
	require.NoError(t, <-connErr)

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("connection never reached StateConnected")
	}

	done := make(chan error, 1)
	base.SafeCall(func() { done <- conn.SetNoDelay(true) })
	assert.NoError(t, <-done)
}
