package reactor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadPoolRunsTasks(t *testing.T) {
	tp := NewThreadPool(4, 0, true)
	var count atomic.Int32

	for i := 0; i < 100; i++ {
		require.True(t, tp.AddTask(func() { count.Add(1) }))
	}

	require.Eventually(t, func() bool { return count.Load() == 100 }, time.Second, time.Millisecond)

	tp.Exit()
	tp.Join()
}

func TestThreadPoolExitStopsAcceptingWork(t *testing.T) {
	tp := NewThreadPool(2, 0, true)
	tp.Exit()
	tp.Join()

	assert.False(t, tp.AddTask(func() {}))
}
