//go:build linux

package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestEpollPollerReportsReadiness(t *testing.T) {
	fds := make([]int, 2)
	require.NoError(t, unix.Pipe(fds))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	poller, err := newPoller(0)
	require.NoError(t, err)
	defer poller.Close()

	base := &EventBase{poller: poller}
	ch := NewChannel(base, fds[0])
	require.NoError(t, ch.EnableRead(true))
	require.NoError(t, ch.Attach())

	_, err = unix.Write(fds[1], []byte("x"))
	require.NoError(t, err)

	events, err := poller.Wait(1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, ch, events[0].Channel)
	require.True(t, events[0].Events.Has(EventRead))
}

func TestEpollPollerRemoveStopsFutureDelivery(t *testing.T) {
	fds := make([]int, 2)
	require.NoError(t, unix.Pipe(fds))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	poller, err := newPoller(0)
	require.NoError(t, err)
	defer poller.Close()

	base := &EventBase{poller: poller}
	ch := NewChannel(base, fds[0])
	require.NoError(t, ch.EnableRead(true))
	require.NoError(t, ch.Attach())

	unix.Write(fds[1], []byte("a"))
	require.NoError(t, poller.Remove(ch))
	require.NoError(t, poller.Remove(ch)) // tolerates a repeat remove (ENOENT)

	events, err := poller.Wait(50)
	require.NoError(t, err)
	assert.Empty(t, events)
}
