package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"vehicle-health-monitor/internal/alerting"
	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/scheduler"
	"vehicle-health-monitor/internal/signal"
)

// ReportFunc observes every report the service produces.
type ReportFunc func(monitor.Report)

// Service orchestrates sampling, monitoring, and status output.
type Service struct {
	scheduler  *scheduler.Scheduler
	source     signal.Source
	out        io.Writer
	dispatcher *alerting.Dispatcher
	onReport   ReportFunc
	logger     zerolog.Logger

	mu      sync.Mutex
	session *monitor.Session
	ticks   int
	skipped int
}

// Option customises a Service.
type Option func(*Service)

// WithDispatcher routes status lines to external sinks.
func WithDispatcher(d *alerting.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithReportHook registers fn for every produced report.
func WithReportHook(fn ReportFunc) Option {
	return func(s *Service) { s.onReport = fn }
}

// New constructs the monitoring service. A nil out discards status lines.
func New(sched *scheduler.Scheduler, source signal.Source, session *monitor.Session, out io.Writer, logger zerolog.Logger, opts ...Option) *Service {
	if out == nil {
		out = io.Discard
	}
	s := &Service{
		scheduler: sched,
		source:    source,
		session:   session,
		out:       out,
		logger:    logger.With().Str("component", "service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run begins the sampling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	err := s.scheduler.Run(ctx, s.ProcessTick)
	s.logger.Info().Int("ticks", s.Ticks()).Int("skipped", s.Skipped()).Msg("monitoring stopped")
	return err
}

// ProcessTick reads the frame at `at`, runs every enabled monitor, prints
// the status lines and forwards them to the sinks.
func (s *Service) ProcessTick(ctx context.Context, at float64) error {
	frame, err := s.source.Frame(ctx, at)
	if err != nil {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		if errors.Is(err, signal.ErrNoFrame) {
			s.logger.Debug().Float64("at", at).Msg("no frame yet, skipping tick")
			return nil
		}
		return fmt.Errorf("read frame: %w", err)
	}

	s.mu.Lock()
	report := s.session.Tick(frame)
	s.ticks++
	s.mu.Unlock()

	for _, line := range FormatReport(report) {
		if _, err := fmt.Fprintln(s.out, line.Text); err != nil {
			s.logger.Warn().Err(err).Msg("write status line")
		}
		s.dispatcher.Dispatch(ctx, line.Level, line.Text)
	}

	if highest := report.Highest(); highest > 0 {
		s.logger.Debug().Float64("at", at).Stringer("level", highest).Msg("degraded tick")
	}

	if s.onReport != nil {
		s.onReport(report)
	}
	return nil
}

// Reconfigure swaps thresholds between ticks. Window contents survive.
func (s *Service) Reconfigure(th monitor.Thresholds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Reconfigure(th); err != nil {
		return fmt.Errorf("reconfigure monitors: %w", err)
	}
	s.logger.Info().Msg("thresholds reloaded")
	return nil
}

// Reset clears every window and score.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Reset()
}

// Ticks is the number of processed frames.
func (s *Service) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Skipped is the number of ticks without a usable frame.
func (s *Service) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}
