package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"profit_go/internal/domain"
	"profit_go/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context) (CycleResult, error)

func (f runnerFunc) RunCycle(ctx context.Context) (CycleResult, error) { return f(ctx) }

const (
	poll     = 5 * time.Second
	recovery = 10 * time.Second
)

func TestSupervisor_TickSuccess(t *testing.T) {
	m := &infra.Metrics{}
	s := NewSupervisor(runnerFunc(func(context.Context) (CycleResult, error) {
		return CycleResult{OrdersSubmitted: 1}, nil
	}), poll, recovery, WithClock(newFakeClock()), WithMetrics(m))

	assert.Equal(t, poll, s.Tick(context.Background()))
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, uint64(1), m.Snapshot().CyclesOK)
}

func TestSupervisor_FailureEntersRecovery(t *testing.T) {
	m := &infra.Metrics{}
	fail := true
	s := NewSupervisor(runnerFunc(func(context.Context) (CycleResult, error) {
		if fail {
			return CycleResult{}, domain.NewNetworkError("get_quotes", errors.New("timeout"))
		}
		return CycleResult{}, nil
	}), poll, recovery, WithClock(newFakeClock()), WithMetrics(m))

	assert.Equal(t, recovery, s.Tick(context.Background()))
	assert.Equal(t, StateRecovering, s.State())
	assert.True(t, m.Snapshot().Recovering)
	assert.Equal(t, uint64(1), m.Snapshot().CyclesFailed)

	fail = false
	assert.Equal(t, poll, s.Tick(context.Background()))
	assert.Equal(t, StateRunning, s.State())
	assert.False(t, m.Snapshot().Recovering)
}

func TestSupervisor_RecoversFromPanic(t *testing.T) {
	s := NewSupervisor(runnerFunc(func(context.Context) (CycleResult, error) {
		var m map[string]int
		m["boom"]++ // nil map write
		return CycleResult{}, nil
	}), poll, recovery, WithClock(newFakeClock()))

	var delay time.Duration
	require.NotPanics(t, func() { delay = s.Tick(context.Background()) })
	assert.Equal(t, recovery, delay)
	assert.Equal(t, StateRecovering, s.State())
}

func TestSupervisor_RecoveryNotShorterThanPoll(t *testing.T) {
	s := NewSupervisor(runnerFunc(func(context.Context) (CycleResult, error) {
		return CycleResult{}, errors.New("broken")
	}), poll, time.Second, WithClock(newFakeClock()))

	assert.Equal(t, poll, s.Tick(context.Background()))
}

func TestSupervisor_RunPacesAndStops(t *testing.T) {
	clock := newFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := NewSupervisor(runnerFunc(func(context.Context) (CycleResult, error) {
		switch calls.Add(1) {
		case 1:
			return CycleResult{}, domain.NewRejectedError("submit", "bad order")
		case 3:
			cancel()
		}
		return CycleResult{}, nil
	}), poll, recovery, WithClock(clock))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{recovery, poll}, clock.recorded())
}

// stalledClock never fires After; it reports each wait on waiting.
type stalledClock struct {
	*fakeClock
	waiting chan time.Duration
}

func (c *stalledClock) After(d time.Duration) <-chan time.Time {
	c.waiting <- d
	return make(chan time.Time)
}

func TestSupervisor_RunStopsDuringPacingWait(t *testing.T) {
	clock := &stalledClock{fakeClock: newFakeClock(), waiting: make(chan time.Duration, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := NewSupervisor(runnerFunc(func(context.Context) (CycleResult, error) {
		calls.Add(1)
		return CycleResult{}, nil
	}), poll, recovery, WithClock(clock))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case d := <-clock.waiting:
		assert.Equal(t, poll, d)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor never started waiting")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop while waiting")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSupervisor_CancelledCycleIsNotAFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSupervisor(runnerFunc(func(ctx context.Context) (CycleResult, error) {
		return CycleResult{}, ctx.Err()
	}), poll, recovery, WithClock(newFakeClock()))

	assert.Equal(t, poll, s.Tick(ctx))
	assert.Equal(t, StateRunning, s.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "recovering", StateRecovering.String())
}
