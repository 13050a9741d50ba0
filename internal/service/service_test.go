package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-health-monitor/internal/alerting"
	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/scheduler"
	"vehicle-health-monitor/internal/severity"
	"vehicle-health-monitor/internal/signal"
)

type sourceFunc func(ctx context.Context, at float64) (monitor.Frame, error)

func (f sourceFunc) Frame(ctx context.Context, at float64) (monitor.Frame, error) {
	return f(ctx, at)
}

func cruising(at float64) monitor.Frame {
	return monitor.Frame{
		Timestamp: at,
		WheelFL:   90, WheelFR: 90, WheelRL: 90, WheelRR: 90,
		SteeringAngle: 2,
		YawRate:       20,
		Friction:      0.8,
	}
}

func newSession(t *testing.T, kinds ...monitor.Kind) *monitor.Session {
	t.Helper()
	s, err := monitor.NewSession(monitor.DefaultThresholds(), kinds...)
	require.NoError(t, err)
	return s
}

func TestProcessTickWritesAndDispatches(t *testing.T) {
	var out, sinkOut bytes.Buffer
	d := alerting.NewDispatcher(severity.High,
		alerting.NewGuarded("writer", alerting.NewWriterSink(&sinkOut), zerolog.Nop()))

	var reports []monitor.Report
	svc := New(nil, sourceFunc(func(_ context.Context, at float64) (monitor.Frame, error) {
		return cruising(at), nil
	}), newSession(t), &out, zerolog.Nop(),
		WithDispatcher(d),
		WithReportHook(func(r monitor.Report) { reports = append(reports, r) }))

	require.NoError(t, svc.ProcessTick(context.Background(), 0))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[t=0.0s] braking | "))
	assert.True(t, strings.HasPrefix(lines[1], "[t=0.0s] alertness | "))
	assert.True(t, strings.HasPrefix(lines[2], "[t=0.0s] stability | speed=90.0km/h "))
	assert.Contains(t, lines[2], "| HIGH |")

	// only the stability line passes the High filter
	d.Close()
	assert.Equal(t, lines[2]+"\n", sinkOut.String())

	require.Len(t, reports, 1)
	assert.Equal(t, 1, svc.Ticks())
}

type stuckSink struct {
	release chan struct{}
	once    sync.Once
}

func (s *stuckSink) LogAlert(context.Context, string) error {
	<-s.release
	return nil
}

func (s *stuckSink) Close() error {
	s.once.Do(func() { close(s.release) })
	return nil
}

func TestStuckSinkDoesNotStallTicks(t *testing.T) {
	stuck := &stuckSink{release: make(chan struct{})}
	d := alerting.NewDispatcher(severity.None,
		alerting.NewGuarded("stuck", stuck, zerolog.Nop(), alerting.WithQueueSize(2), alerting.WithDrainTimeout(10*time.Millisecond)))
	defer d.Close()

	sched, err := scheduler.New(scheduler.Options{Interval: time.Second, Duration: 20 * time.Second}, zerolog.Nop())
	require.NoError(t, err)
	svc := New(sched, sourceFunc(func(_ context.Context, at float64) (monitor.Frame, error) {
		return cruising(at), nil
	}), newSession(t), nil, zerolog.Nop(), WithDispatcher(d))

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ticks stalled behind a stuck sink")
	}
	assert.Equal(t, 20, svc.Ticks())
}

func TestProcessTickSkipsMissingFrames(t *testing.T) {
	var out bytes.Buffer
	svc := New(nil, sourceFunc(func(context.Context, float64) (monitor.Frame, error) {
		return monitor.Frame{}, signal.ErrNoFrame
	}), newSession(t), &out, zerolog.Nop())

	require.NoError(t, svc.ProcessTick(context.Background(), 0))
	assert.Empty(t, out.String())
	assert.Equal(t, 0, svc.Ticks())
	assert.Equal(t, 1, svc.Skipped())
}

func TestProcessTickSourceError(t *testing.T) {
	svc := New(nil, sourceFunc(func(context.Context, float64) (monitor.Frame, error) {
		return monitor.Frame{}, errors.New("bus offline")
	}), newSession(t), nil, zerolog.Nop())

	assert.Error(t, svc.ProcessTick(context.Background(), 0))
	assert.Equal(t, 1, svc.Skipped())
}

func TestRunOverScheduler(t *testing.T) {
	sched, err := scheduler.New(scheduler.Options{Interval: time.Second, Duration: 12 * time.Second}, zerolog.Nop())
	require.NoError(t, err)

	var last monitor.Report
	svc := New(sched, sourceFunc(func(_ context.Context, at float64) (monitor.Frame, error) {
		return monitor.Frame{Timestamp: at, SteeringAngle: 20 * math.Mod(at, 2)}, nil
	}), newSession(t, monitor.KindAlertness), nil, zerolog.Nop(),
		WithReportHook(func(r monitor.Report) { last = r }))

	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, 12, svc.Ticks())
	require.NotNil(t, last.Alertness)
	// 10 s window keeps samples 1..11
	assert.Equal(t, 11, last.Alertness.WindowSize)
	assert.Equal(t, 3, last.Alertness.Score)
	assert.Equal(t, severity.Low, last.Alertness.Level)
}

func TestReconfigureBetweenTicks(t *testing.T) {
	var levels []severity.Level
	svc := New(nil, sourceFunc(func(_ context.Context, at float64) (monitor.Frame, error) {
		return cruising(at), nil
	}), newSession(t, monitor.KindStability), nil, zerolog.Nop(),
		WithReportHook(func(r monitor.Report) { levels = append(levels, r.Stability.Level) }))

	require.NoError(t, svc.ProcessTick(context.Background(), 0))

	th := monitor.DefaultThresholds()
	th.Stability.HighYawDegS = 25
	require.NoError(t, svc.Reconfigure(th))
	require.NoError(t, svc.ProcessTick(context.Background(), 1))

	assert.Equal(t, []severity.Level{severity.High, severity.None}, levels)
}

func TestFormatReportNonFinite(t *testing.T) {
	s := newSession(t, monitor.KindStability)
	r := s.Tick(monitor.Frame{SteeringAngle: math.NaN()})
	lines := FormatReport(r)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0].Text, "str_angle=NaN")
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "1.250", Fixed(1.25, 3))
	assert.Equal(t, "-0.1", Fixed(-0.14, 1))
	assert.Equal(t, "NaN", Fixed(math.NaN(), 2))
	assert.Equal(t, "+Inf", Fixed(math.Inf(1), 2))
}
