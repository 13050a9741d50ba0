package app

import (
	"context"
	"errors"
	"fmt"

	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/scheduler"
	"vehicle-health-monitor/internal/signal"
)

// Record generates a simulated drive on the virtual clock and stores its
// frames under a session name for later replay.
func (a *App) Record(ctx context.Context, opts RecordOptions) error {
	if opts.Session == "" {
		return errors.New("session name is required")
	}

	frames, err := a.simulateFrames(ctx)
	if err != nil {
		return err
	}

	store, closeStore, err := a.requireStore(ctx, "record")
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if opts.Replace {
		if err := store.DeleteSession(ctx, opts.Session); err != nil {
			return err
		}
	}

	n, err := store.InsertFrames(ctx, opts.Session, frames)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("session", opts.Session).Int64("frames", n).Msg("session recorded")
	_, err = fmt.Fprintf(a.Out, "recorded %d frames into session %q\n", n, opts.Session)
	return err
}

func (a *App) simulateFrames(ctx context.Context) ([]monitor.Frame, error) {
	sched, err := scheduler.New(scheduler.Options{
		Interval: a.Config.Simulation.SampleInterval,
		Duration: a.Config.Simulation.Duration,
	}, a.Logger)
	if err != nil {
		return nil, err
	}

	source := signal.NewSimulated(signal.SimulatedOptions{
		Seed:         a.Config.Simulation.Seed,
		BaseSpeedKmh: a.Config.Simulation.BaseSpeedKmh,
	})

	frames := make([]monitor.Frame, 0, sched.Ticks())
	err = sched.Run(ctx, func(ctx context.Context, at float64) error {
		f, err := source.Frame(ctx, at)
		if err != nil {
			return err
		}
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}
