package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per sample with the simulation time in seconds.
type TickFunc func(ctx context.Context, at float64) error

// Options tune scheduler behaviour.
type Options struct {
	Interval time.Duration
	// Duration bounds the run; ticks happen while at < Duration. Zero runs
	// until the context is cancelled.
	Duration time.Duration
	// Realtime paces ticks on the wall clock. Otherwise ticks run back to back.
	Realtime bool
	// StartupDelay holds back the first realtime tick. Virtual runs ignore it.
	StartupDelay time.Duration
}

// Scheduler drives fixed-interval sampling over simulation time.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) (*Scheduler, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive")
	}
	if opts.Duration < 0 {
		return nil, fmt.Errorf("scheduler duration cannot be negative")
	}
	if opts.StartupDelay < 0 {
		return nil, fmt.Errorf("scheduler startup delay cannot be negative")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}, nil
}

// Ticks returns the number of ticks a bounded run performs, or -1 when unbounded.
func (s *Scheduler) Ticks() int {
	if s.opts.Duration == 0 {
		return -1
	}
	n := int(s.opts.Duration / s.opts.Interval)
	if time.Duration(n)*s.opts.Interval < s.opts.Duration {
		n++
	}
	return n
}

// Run blocks, invoking tick at every interval until the duration elapses or
// ctx is cancelled. Tick errors are logged and do not stop the run.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 && s.opts.Realtime {
		if err := sleep(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	step := s.opts.Interval.Seconds()
	limit := s.Ticks()
	start := time.Now()

	for i := 0; limit < 0 || i < limit; i++ {
		if s.opts.Realtime {
			due := start.Add(time.Duration(i) * s.opts.Interval)
			if err := sleep(ctx, time.Until(due)); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		at := float64(i) * step
		s.logger.Debug().Float64("at", at).Msg("executing tick")

		if err := tick(ctx, at); err != nil {
			s.logger.Error().Err(err).Float64("at", at).Msg("tick execution failed")
		}
	}

	s.logger.Info().Int("ticks", limit).Msg("run complete")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
