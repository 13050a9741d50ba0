package alerting

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"vehicle-health-monitor/internal/severity"
)

const (
	defaultQueueSize    = 32
	defaultDrainTimeout = 5 * time.Second
)

// Sink delivers one status message to an external output.
type Sink interface {
	LogAlert(ctx context.Context, message string) error
}

// Guarded isolates the pipeline from a sink's failures and latency. Messages
// are queued to a worker goroutine; a full queue drops the message. The first
// delivery error disables the sink for the rest of the process.
type Guarded struct {
	name         string
	logger       zerolog.Logger
	sink         Sink
	queueSize    int
	drainTimeout time.Duration

	active    atomic.Bool
	dropped   atomic.Int64
	closeSink sync.Once

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// GuardOption customises a Guarded sink.
type GuardOption func(*Guarded)

// WithQueueSize bounds the number of pending messages.
func WithQueueSize(n int) GuardOption {
	return func(g *Guarded) {
		if n > 0 {
			g.queueSize = n
		}
	}
}

// WithDrainTimeout bounds how long Close waits for queued messages.
func WithDrainTimeout(d time.Duration) GuardOption {
	return func(g *Guarded) {
		if d > 0 {
			g.drainTimeout = d
		}
	}
}

// NewGuarded wraps sink and starts its delivery worker. A nil sink yields an
// inactive guard.
func NewGuarded(name string, sink Sink, logger zerolog.Logger, opts ...GuardOption) *Guarded {
	g := &Guarded{
		name:         name,
		sink:         sink,
		queueSize:    defaultQueueSize,
		drainTimeout: defaultDrainTimeout,
		logger:       logger.With().Str("component", "sink").Str("sink", name).Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if sink == nil {
		return g
	}

	g.active.Store(true)
	g.queue = make(chan string, g.queueSize)
	g.done = make(chan struct{})
	g.ctx, g.cancel = context.WithCancel(context.Background())
	go g.run()
	return g
}

// Unavailable records a sink that could not be opened and returns an inactive guard.
func Unavailable(name string, cause error, logger zerolog.Logger) *Guarded {
	g := NewGuarded(name, nil, logger)
	g.logger.Warn().Err(cause).Msg("sink unavailable, continuing without it")
	return g
}

// Name identifies the sink in logs.
func (g *Guarded) Name() string { return g.name }

// Active reports whether messages are still delivered.
func (g *Guarded) Active() bool { return g.active.Load() }

// Dropped is the number of messages discarded because the queue was full.
func (g *Guarded) Dropped() int64 { return g.dropped.Load() }

// LogAlert queues message for delivery without blocking. It never returns an error.
func (g *Guarded) LogAlert(_ context.Context, message string) error {
	if !g.active.Load() {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	select {
	case g.queue <- message:
	default:
		n := g.dropped.Add(1)
		g.logger.Warn().Int64("dropped", n).Msg("sink queue full, dropping message")
	}
	return nil
}

func (g *Guarded) run() {
	defer close(g.done)
	for msg := range g.queue {
		if !g.active.Load() {
			continue
		}
		if err := g.sink.LogAlert(g.ctx, msg); err != nil {
			if g.ctx.Err() == nil {
				g.logger.Error().Err(err).Msg("sink failed, disabling")
			}
			g.disable()
		}
	}
}

// Close stops accepting messages, waits up to the drain timeout for queued
// ones, then releases the underlying sink. A delivery still blocked at that
// point is cancelled.
func (g *Guarded) Close() {
	g.mu.Lock()
	if g.closed || g.queue == nil {
		g.closed = true
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.queue)
	g.mu.Unlock()

	timer := time.NewTimer(g.drainTimeout)
	defer timer.Stop()
	select {
	case <-g.done:
	case <-timer.C:
		g.logger.Warn().Int("pending", len(g.queue)).Msg("sink drain timed out")
	}
	g.cancel()
	g.disable()
}

func (g *Guarded) disable() {
	g.active.Store(false)
	g.closeSink.Do(func() {
		if c, ok := g.sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				g.logger.Warn().Err(err).Msg("close sink")
			}
		}
	})
}
// Dispatcher fans messages out to guarded sinks at or above a minimum level.
type Dispatcher struct {
	minLevel severity.Level
	sinks    []*Guarded
}

// NewDispatcher builds a dispatcher over sinks.
func NewDispatcher(minLevel severity.Level, sinks ...*Guarded) *Dispatcher {
	return &Dispatcher{minLevel: minLevel, sinks: sinks}
}

// Dispatch sends message to every active sink when level passes the filter.
func (d *Dispatcher) Dispatch(ctx context.Context, level severity.Level, message string) {
	if d == nil || level < d.minLevel {
		return
	}
	for _, s := range d.sinks {
		_ = s.LogAlert(ctx, message)
	}
}

// Active lists the names of sinks still delivering.
func (d *Dispatcher) Active() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		if s.Active() {
			names = append(names, s.Name())
		}
	}
	return names
}

// Close releases every sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	for _, s := range d.sinks {
		s.Close()
	}
}

// WriterSink writes newline-terminated messages to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// LogAlert writes message followed by a newline.
func (s *WriterSink) LogAlert(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.w, message); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	return nil
}

var (
	_ Sink = (*Guarded)(nil)
	_ Sink = (*WriterSink)(nil)
)
