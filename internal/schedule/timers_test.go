package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterRuns(t *testing.T) {
	timers := NewTimers()
	defer timers.Close()

	done := make(chan struct{})
	timers.After(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback did not run")
	}
	require.Eventually(t, func() bool { return timers.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCancelPreventsRun(t *testing.T) {
	timers := NewTimers()
	defer timers.Close()

	var fired atomic.Bool
	cancel := timers.After(20*time.Millisecond, func() { fired.Store(true) })
	cancel()
	cancel()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.Zero(t, timers.Pending())
}

func TestCloseCancelsPending(t *testing.T) {
	timers := NewTimers()

	var fired atomic.Int32
	timers.After(20*time.Millisecond, func() { fired.Add(1) })
	timers.After(20*time.Millisecond, func() { fired.Add(1) })
	require.Equal(t, 2, timers.Pending())

	timers.Close()
	timers.Close()
	timers.After(time.Millisecond, func() { fired.Add(1) })

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fired.Load())
	assert.Zero(t, timers.Pending())
}
