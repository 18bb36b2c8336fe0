package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"slidegenie/internal/schedule/schedtest"
)

func TestTriggerFiresAfterQuietPeriod(t *testing.T) {
	clock := schedtest.New()
	var calls atomic.Int32
	task := New(time.Second, func() { calls.Add(1) }, clock)

	task.Trigger()
	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	clock.Advance(time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, task.Pending())
}

func TestTriggerReschedules(t *testing.T) {
	clock := schedtest.New()
	var calls atomic.Int32
	task := New(time.Second, func() { calls.Add(1) }, clock)

	task.Trigger()
	clock.Advance(600 * time.Millisecond)
	task.Trigger()
	clock.Advance(600 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "second trigger restarts the window")

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancelAndFlush(t *testing.T) {
	clock := schedtest.New()
	var calls atomic.Int32
	task := New(time.Second, func() { calls.Add(1) }, clock)

	task.Trigger()
	task.Cancel()
	clock.Advance(2 * time.Second)
	assert.Equal(t, int32(0), calls.Load())

	assert.False(t, task.Flush())

	task.Trigger()
	assert.True(t, task.Flush())
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(2 * time.Second)
	assert.Equal(t, int32(1), calls.Load(), "flushed call does not fire again")
}
