package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegisterReplacesPreviousJob(t *testing.T) {
	s := New()
	defer s.Close()

	var first, second atomic.Int64
	s.Register(1, 5*time.Millisecond, func(context.Context) error {
		first.Add(1)
		return nil
	})
	s.Register(1, 5*time.Millisecond, func(context.Context) error {
		second.Add(1)
		return nil
	})

	assert.Eventually(t, func() bool { return second.Load() >= 3 }, time.Second, time.Millisecond)

	// The first job stopped when it was replaced; only the second ticks.
	before := first.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, first.Load())
}

func TestCancelStopsJob(t *testing.T) {
	s := New()
	defer s.Close()

	var ticks atomic.Int64
	h := s.Register(1, 5*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})
	assert.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)

	s.Cancel(h)
	before := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, ticks.Load())
}

func TestStaleHandleIsNoOp(t *testing.T) {
	s := New()
	defer s.Close()

	var ticks atomic.Int64
	stale := s.Register(1, 5*time.Millisecond, func(context.Context) error { return nil })
	s.Register(1, 5*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})

	// Cancelling the replaced job's handle must not stop its successor.
	s.Cancel(stale)
	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestPanickingJobKeepsTicking(t *testing.T) {
	s := New()
	defer s.Close()

	var ticks atomic.Int64
	s.Register(1, 5*time.Millisecond, func(context.Context) error {
		if ticks.Add(1) == 1 {
			panic("boom")
		}
		return nil
	})

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestCloseStopsEverything(t *testing.T) {
	s := New()

	var ticks atomic.Int64
	s.Register(1, 5*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})
	s.Register(2, 5*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})

	s.Close()
	before := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, ticks.Load())

	// Registrations after Close never start.
	s.Register(3, time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, ticks.Load())
}
