package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeQueuePushPop(t *testing.T) {
	q := NewSafeQueue[int](2)
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))
	assert.False(t, q.Push(3)) // over capacity

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestSafeQueuePopWaitTimesOut(t *testing.T) {
	q := NewSafeQueue[int](0)
	start := time.Now()
	_, ok := q.PopWait(30 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestSafeQueuePopWaitWakesOnPush(t *testing.T) {
	q := NewSafeQueue[int](0)
	done := make(chan int, 1)
	go func() {
		v, ok := q.PopWait(time.Second)
		if ok {
			done <- v
		} else {
			done <- -1
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("PopWait never woke on Push")
	}
}

func TestSafeQueueExitDrainsThenFails(t *testing.T) {
	q := NewSafeQueue[int](0)
	q.Push(1)
	q.Exit()

	assert.False(t, q.Push(2))
	v, ok := q.PopWait(0)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = q.PopWait(time.Second)
	assert.False(t, ok)
}
