package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleSetSweepFiresExpiredAndStopsAtFresh(t *testing.T) {
	s := newIdleSet()
	var fired []int

	enabled := false
	enableSweep := func() { enabled = true }

	id1 := s.register(1, nil, func(*TcpConn) { fired = append(fired, 1) }, enableSweep)
	require.True(t, enabled)
	id2 := s.register(1, nil, func(*TcpConn) { fired = append(fired, 2) }, enableSweep)

	// Backdate both nodes so the 1-second threshold has elapsed.
	id1.elem.Value.(*idleNode).updated -= 2
	id2.elem.Value.(*idleNode).updated -= 2

	s.sweep()
	assert.ElementsMatch(t, []int{1, 2}, fired)

	// A second immediate sweep should not re-fire: updated was reset to now.
	fired = nil
	s.sweep()
	assert.Empty(t, fired)
}

func TestIdleSetUpdateRefreshesAndReordersBucket(t *testing.T) {
	s := newIdleSet()
	var fired []string

	id1 := s.register(1, nil, func(*TcpConn) { fired = append(fired, "a") }, func() {})
	id2 := s.register(1, nil, func(*TcpConn) { fired = append(fired, "b") }, func() {})

	id1.elem.Value.(*idleNode).updated -= 5
	id2.elem.Value.(*idleNode).updated -= 5

	s.update(id1) // refresh a, moving it to the tail; b stays stale at the head

	s.sweep()
	assert.Equal(t, []string{"b"}, fired)
}

func TestIdleSetUnregisterRemovesNode(t *testing.T) {
	s := newIdleSet()
	fired := false
	id := s.register(1, nil, func(*TcpConn) { fired = true }, func() {})

	s.unregister(id)
	id.elem.Value.(*idleNode).updated -= 5 // would have expired, but node is detached

	s.sweep()
	assert.False(t, fired)
}
