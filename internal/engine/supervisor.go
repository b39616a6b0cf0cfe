package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"profit_go/internal/infra"
)

// State is the supervisor's lifecycle state. There is no terminal state.
type State int32

const (
	StateRunning State = iota
	StateRecovering
)

func (s State) String() string {
	if s == StateRecovering {
		return "recovering"
	}
	return "running"
}

// CycleRunner runs one cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (CycleResult, error)
}

// Supervisor invokes the runner forever with a fixed delay between cycles.
// Any error or panic from a cycle is logged and followed by the recovery delay.
type Supervisor struct {
	runner   CycleRunner
	poll     time.Duration
	recovery time.Duration
	clock    Clock
	metrics  *infra.Metrics
	state    atomic.Int32
	logger   *slog.Logger
}

// SupervisorOption customizes a Supervisor.
type SupervisorOption func(*Supervisor)

// WithClock replaces the wall clock (tests).
func WithClock(c Clock) SupervisorOption {
	return func(s *Supervisor) { s.clock = c }
}

// WithMetrics records cycle outcomes into m.
func WithMetrics(m *infra.Metrics) SupervisorOption {
	return func(s *Supervisor) { s.metrics = m }
}

// NewSupervisor creates a supervisor. recovery is raised to poll if shorter.
func NewSupervisor(runner CycleRunner, poll, recovery time.Duration, opts ...SupervisorOption) *Supervisor {
	if recovery < poll {
		recovery = poll
	}
	s := &Supervisor{
		runner:   runner,
		poll:     poll,
		recovery: recovery,
		clock:    RealClock,
		logger:   slog.Default().With("module", "supervisor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Run loops until ctx is cancelled. It never returns because of a cycle failure.
func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Info("Supervisor started", slog.Duration("poll", s.poll), slog.Duration("recovery", s.recovery))
	for {
		delay := s.Tick(ctx)
		if ctx.Err() != nil {
			s.logger.Info("Supervisor stopping...")
			return
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Supervisor stopping...")
			return
		case <-s.clock.After(delay):
		}
	}
}

// Tick runs exactly one cycle and returns how long to wait before the next one.
func (s *Supervisor) Tick(ctx context.Context) time.Duration {
	start := s.clock.Now()
	result, err := s.runOnce(ctx)
	elapsed := s.clock.Now().Sub(start)

	if s.metrics != nil {
		s.metrics.RecordCycle(elapsed, err == nil)
	}

	if err != nil {
		if ctx.Err() != nil {
			// shutting down; not a failure worth recovering from
			return s.poll
		}
		s.setState(StateRecovering)
		s.logger.Error("Cycle failed, retrying after recovery delay",
			slog.Any("error", err),
			slog.Duration("delay", s.recovery),
		)
		return s.recovery
	}

	if s.State() == StateRecovering {
		s.logger.Info("Cycle recovered")
	}
	s.setState(StateRunning)
	s.logger.Debug("Cycle finished", slog.Int("submitted", result.OrdersSubmitted), slog.Duration("elapsed", elapsed))
	return s.poll
}

func (s *Supervisor) runOnce(ctx context.Context) (result CycleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CYCLE_PANIC_RECOVERED", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return s.runner.RunCycle(ctx)
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
	if s.metrics != nil {
		s.metrics.SetRecovering(st == StateRecovering)
	}
}
