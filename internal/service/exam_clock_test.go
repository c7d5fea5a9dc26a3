package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamClockTicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32

	clock, err := StartExamClock("@every 1s", func() { ticks.Add(1) })
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return ticks.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	clock.Stop()
	clock.Stop()

	// Let a tick that was already running finish before sampling.
	time.Sleep(100 * time.Millisecond)
	stopped := ticks.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load())
}

func TestExamClockStopNil(t *testing.T) {
	var clock *ExamClock
	assert.NotPanics(t, clock.Stop)
}

func TestStartExamClockInvalidSpec(t *testing.T) {
	clock, err := StartExamClock("every now and then", func() {})
	assert.Error(t, err)
	assert.Nil(t, clock)
}
