package reactor

import (
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBase(t *testing.T) *EventBase {
	t.Helper()
	base, err := NewEventBase()
	require.NoError(t, err)
	t.Cleanup(base.Exit)
	go base.Loop()
	return base
}

func TestEventBaseSafeCallRunsOnLoop(t *testing.T) {
	base := newTestBase(t)

	done := make(chan struct{})
	require.True(t, base.SafeCall(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SafeCall task never ran")
	}
}

func TestEventBaseRunAfterFiresTimer(t *testing.T) {
	base := newTestBase(t)

	fired := make(chan struct{})
	base.SafeCall(func() {
		base.RunAfter(10, func() { close(fired) }, 0)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestEventBaseCancelTimerPreventsFire(t *testing.T) {
	base := newTestBase(t)

	fired := make(chan struct{}, 1)
	cancelled := make(chan bool, 1)
	base.SafeCall(func() {
		id := base.RunAfter(50, func() { fired <- struct{}{} }, 0)
		cancelled <- base.CancelTimer(id)
	})

	require.True(t, <-cancelled)
	select {
	case <-fired:
		t.Fatal("cancelled timer fired anyway")
	case <-time.After(150 * time.Millisecond):
	}
}

func portOf(addr string) int {
	_, p, _ := net.SplitHostPort(addr)
	n, _ := strconv.Atoi(p)
	return n
}

func TestTcpServerAndConnEchoOverLengthCodec(t *testing.T) {
	multi, err := NewMultiBase(1)
	require.NoError(t, err)
	t.Cleanup(multi.Exit)
	go multi.Loop()

	server := NewTcpServer(multi)
	server.OnConnMsg(LengthCodec{}, func(conn *TcpConn, msg Slice) {
		conn.SendMsg(msg) // echo
	})
	require.NoError(t, server.Bind("127.0.0.1", 0))
	require.True(t, strings.Contains(server.Addr(), ":"))

	client := NewTcpConn()
	received := make(chan string, 1)
	client.OnMsg(LengthCodec{}, func(conn *TcpConn, msg Slice) {
		received <- msg.String()
	})

	base := multi.Bases()[0]
	done := make(chan error, 1)
	base.SafeCall(func() {
		done <- client.Connect(base, "127.0.0.1", portOf(server.Addr()), 2000, "")
	})
	require.NoError(t, <-done)

	time.Sleep(20 * time.Millisecond) // let the handshake complete
	base.SafeCall(func() { client.SendMsg(NewSlice([]byte("ping"))) })

	select {
	case msg := <-received:
		assert.Equal(t, "ping", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("never received echoed message")
	}
}
