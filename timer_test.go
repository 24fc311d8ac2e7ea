package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerSetExpiresEarliestFirst(t *testing.T) {
	ts := newTimerSet()
	var order []int

	ts.insertOneShot(300, func() { order = append(order, 3) })
	ts.insertOneShot(100, func() { order = append(order, 1) })
	ts.insertOneShot(200, func() { order = append(order, 2) })

	ts.expire(250)
	assert.Equal(t, []int{1, 2}, order)

	ts.expire(1000)
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.True(t, ts.empty())
}

func TestTimerSetCancelOneShot(t *testing.T) {
	ts := newTimerSet()
	fired := false
	id := ts.insertOneShot(100, func() { fired = true })

	require.True(t, ts.cancel(id))
	ts.expire(1000)
	assert.False(t, fired)
	assert.False(t, ts.cancel(id)) // already cancelled
}

func TestTimerSetRepeatingReschedulesAndNegatesID(t *testing.T) {
	ts := newTimerSet()
	count := 0
	id := ts.runAt(100, func() { count++ }, 50)

	require.True(t, id.Repeating())

	ts.expire(100)
	assert.Equal(t, 1, count)

	ts.expire(150)
	assert.Equal(t, 2, count)

	require.True(t, ts.cancel(id))
	ts.expire(1000)
	assert.Equal(t, 2, count)
}

func TestTimerSetRefreshNearestSkipsCancelledEntries(t *testing.T) {
	ts := newTimerSet()
	id1 := ts.insertOneShot(100, func() {})
	ts.insertOneShot(200, func() {})

	ts.cancel(id1)
	ts.refreshNearest(0)
	assert.Equal(t, int64(200), ts.nextTimeout)
}

func TestTimerSetEmptyHasSentinelTimeout(t *testing.T) {
	ts := newTimerSet()
	assert.Equal(t, noTimeoutSentinel, ts.nextTimeout)
}
