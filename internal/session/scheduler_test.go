package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	var fired atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	// Rapid triggers keep resetting the timer; only one firing results.
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return fired.Load() == 1 },
		500*time.Millisecond, 10*time.Millisecond)

	// Quiet period, no further firings.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	var fired atomic.Int32
	d := newDebouncer(time.Hour, func() { fired.Add(1) })
	defer d.Stop()

	d.Trigger()
	d.Flush()
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var fired atomic.Int32
	d := newDebouncer(10*time.Millisecond, func() { fired.Add(1) })

	d.Trigger()
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fired.Load())

	// Triggers after stop are ignored.
	d.Trigger()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
