package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"vehicle-health-monitor/internal/alerting"
	"vehicle-health-monitor/internal/config"
	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/scheduler"
	"vehicle-health-monitor/internal/service"
	"vehicle-health-monitor/internal/signal"
	"vehicle-health-monitor/internal/storage"
	"vehicle-health-monitor/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     zerolog.Logger
	Out        io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, configPath string, logger zerolog.Logger) *App {
	return &App{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger.With().Str("component", "app").Logger(),
		Out:        os.Stdout,
	}
}

// RunOptions tune the monitoring loop.
type RunOptions struct {
	Watch bool
}

// RecordOptions configure the record command.
type RecordOptions struct {
	Session string
	Replace bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Session string
	Limit   int
}

// ExportOptions hold parameters for an offline export run.
type ExportOptions struct {
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newSource builds the configured frame source. Replays are loaded up front
// so the database connection is released before monitoring starts.
func (a *App) newSource(ctx context.Context) (signal.Source, error) {
	if a.Config.Source.Kind != config.SourceReplay {
		return signal.NewSimulated(signal.SimulatedOptions{
			Seed:         a.Config.Simulation.Seed,
			BaseSpeedKmh: a.Config.Simulation.BaseSpeedKmh,
		}), nil
	}

	store, closeStore, err := a.requireStore(ctx, "replay")
	if err != nil {
		return nil, err
	}
	defer closeStore()

	replay, err := signal.LoadReplay(ctx, store, a.Config.Source.Session)
	if err != nil {
		return nil, err
	}
	a.Logger.Info().Str("session", replay.Session()).Int("frames", replay.Len()).Msg("replaying recorded session")
	return replay, nil
}

func (a *App) newSession() (*monitor.Session, error) {
	th, err := a.Config.Thresholds()
	if err != nil {
		return nil, err
	}
	kinds, err := a.Config.MonitorKinds()
	if err != nil {
		return nil, err
	}
	return monitor.NewSession(th, kinds...)
}

// newDispatcher opens every enabled sink. A sink that fails to open is
// logged and replaced by an inactive guard.
func (a *App) newDispatcher(ctx context.Context) *alerting.Dispatcher {
	cfg := a.Config.Sink
	var sinks []*alerting.Guarded
	opts := []alerting.GuardOption{
		alerting.WithQueueSize(cfg.QueueSize),
		alerting.WithDrainTimeout(cfg.DrainTimeout),
	}

	if cfg.Serial.Enabled {
		if s, err := alerting.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud); err != nil {
			sinks = append(sinks, alerting.Unavailable("serial", err, a.Logger))
		} else {
			sinks = append(sinks, alerting.NewGuarded("serial", s, a.Logger, opts...))
		}
	}

	if cfg.Telegram.Enabled {
		t := alerting.NewTelegramSink(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.APIBase, cfg.Telegram.Timeout, a.Logger)
		sinks = append(sinks, alerting.NewGuarded("telegram", t, a.Logger, opts...))
	}

	if cfg.Redis.Enabled {
		r, err := alerting.OpenRedis(ctx, alerting.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			sinks = append(sinks, alerting.Unavailable("redis", err, a.Logger))
		} else {
			sinks = append(sinks, alerting.NewGuarded("redis", r, a.Logger, opts...))
		}
	}

	return alerting.NewDispatcher(a.Config.MinLevel(), sinks...)
}

// Run executes the monitoring loop until the configured duration elapses or
// the process is interrupted.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := ossignal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source, err := a.newSource(ctx)
	if err != nil {
		return err
	}

	session, err := a.newSession()
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Options{
		Interval:     a.Config.Simulation.SampleInterval,
		Duration:     a.Config.Simulation.Duration,
		Realtime:     a.Config.Simulation.Realtime,
		StartupDelay: a.Config.Simulation.StartupDelay,
	}, a.Logger)
	if err != nil {
		return err
	}

	dispatcher := a.newDispatcher(ctx)
	defer dispatcher.Close()

	svc := service.New(sched, source, session, a.Out, a.Logger, service.WithDispatcher(dispatcher))

	if opts.Watch {
		go a.watchConfig(ctx, svc)
	}

	a.Logger.Info().
		Str("build", version.String()).
		Str("source", a.Config.Source.Kind).
		Strs("monitors", a.Config.Monitors).
		Strs("sinks", dispatcher.Active()).
		Dur("interval", a.Config.Simulation.SampleInterval).
		Dur("window", a.Config.Simulation.WindowDuration).
		Dur("duration", a.Config.Simulation.Duration).
		Msg("starting monitoring")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("monitoring terminated with error")
		return err
	}
	return nil
}

func (a *App) watchConfig(ctx context.Context, svc *service.Service) {
	err := config.Watch(ctx, a.ConfigPath, a.Logger, func(cfg *config.Config) {
		th, err := cfg.Thresholds()
		if err != nil {
			a.Logger.Error().Err(err).Msg("reloaded thresholds invalid")
			return
		}
		if err := svc.Reconfigure(th); err != nil {
			a.Logger.Error().Err(err).Msg("apply reloaded thresholds")
		}
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("config watch disabled")
	}
}

func (a *App) requireStore(ctx context.Context, action string) (*storage.Store, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, fmt.Errorf("database not configured; cannot %s", action)
	}
	return store, closeStore, nil
}
