package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/scoring"
	"vehicle-health-monitor/internal/severity"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Simulation.SampleInterval)
	assert.Equal(t, 10*time.Second, cfg.Simulation.WindowDuration)
	assert.Equal(t, 180*time.Second, cfg.Simulation.Duration)
	assert.True(t, cfg.Simulation.Realtime)
	assert.Equal(t, SourceSimulated, cfg.Source.Kind)
	assert.Equal(t, severity.None, cfg.MinLevel())
	assert.Zero(t, cfg.Simulation.StartupDelay)
	assert.Equal(t, 32, cfg.Sink.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Sink.DrainTimeout)

	kinds, err := cfg.MonitorKinds()
	require.NoError(t, err)
	assert.Equal(t, monitor.AllKinds, kinds)

	th, err := cfg.Thresholds()
	require.NoError(t, err)
	def := monitor.DefaultThresholds()
	assert.Equal(t, def.WindowDuration, th.WindowDuration)
	assert.Equal(t, def.Stability, th.Stability)
	assert.Equal(t, def.Braking, th.Braking)
	assert.Equal(t, def.Alertness.Cuts.Points(), th.Alertness.Cuts.Points())
	require.Len(t, th.Alertness.Classes, 4)
	assert.Equal(t, scoring.SteeringAngle, th.Alertness.Classes[0].Class)
	assert.Equal(t, def.Alertness.Classes[0].Bands.Bounds(), th.Alertness.Classes[0].Bands.Bounds())
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
simulation:
  sample_interval: 500ms
  realtime: false
  seed: 7
  startup_delay: 2s
monitors: [stability]
alertness:
  window_duration: 5s
  cuts: [2, 4, 6]
  bands:
    steering_angle: [1, 2, 3]
stability:
  activation_kmh: 60
sink:
  min_level: moderate
  queue_size: 4
  drain_timeout: 1s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Simulation.SampleInterval)
	assert.False(t, cfg.Simulation.Realtime)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
	assert.Equal(t, 2*time.Second, cfg.Simulation.StartupDelay)
	assert.Equal(t, severity.Moderate, cfg.MinLevel())
	assert.Equal(t, 4, cfg.Sink.QueueSize)
	assert.Equal(t, time.Second, cfg.Sink.DrainTimeout)

	kinds, err := cfg.MonitorKinds()
	require.NoError(t, err)
	assert.Equal(t, []monitor.Kind{monitor.KindStability}, kinds)

	th, err := cfg.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, 5.0, th.AlertnessWindowDuration)
	assert.Equal(t, 60.0, th.Stability.ActivationKmh)
	assert.Equal(t, [3]int{2, 4, 6}, th.Alertness.Cuts.Points())
	assert.Equal(t, [3]float64{1, 2, 3}, th.Alertness.Classes[0].Bands.Bounds())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("VHMON_SIMULATION_DURATION", "30s")
	t.Setenv("VHMON_SINK_MIN_LEVEL", "high")

	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Simulation.Duration)
	assert.Equal(t, severity.High, cfg.MinLevel())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unsorted cuts":      "alertness:\n  cuts: [15, 3, 30]\n",
		"short bands":        "alertness:\n  bands:\n    yaw_rate: [0.1, 0.2]\n",
		"unknown class":      "alertness:\n  bands:\n    throttle: [1, 2, 3]\n",
		"unknown monitor":    "monitors: [engine]\n",
		"bad level":          "sink:\n  min_level: apocalyptic\n",
		"zero interval":      "simulation:\n  sample_interval: 0s\n",
		"replay no session":  "source:\n  kind: replay\n",
		"bad source":         "source:\n  kind: can\n",
		"serial no port":     "sink:\n  serial:\n    enabled: true\n",
		"telegram no token":  "sink:\n  telegram:\n    enabled: true\n    chat_id: \"1\"\n",
		"negative alertness": "alertness:\n  window_duration: -1s\n",
		"negative startup":   "simulation:\n  startup_delay: -1s\n",
		"zero queue":         "sink:\n  queue_size: 0\n",
		"zero drain":         "sink:\n  drain_timeout: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := &Config{Export: ExportConfig{MaxDataPoints: 100}}
	assert.Equal(t, 100, cfg.ResolveMaxPoints(0))
	assert.Equal(t, 5, cfg.ResolveMaxPoints(5))
}

func TestWatchReloadsValidChanges(t *testing.T) {
	path := writeConfig(t, "stability:\n  activation_kmh: 80\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, zerolog.Nop(), func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("alertness:\n  cuts: [3, 2, 1]\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("stability:\n  activation_kmh: 70\n"), 0o644))

	// A write may surface as several events; wait for the final content.
	deadline := time.After(3 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case c := <-changes:
			reloaded = c.Stability.ActivationKmh == 70
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatchRequiresPath(t *testing.T) {
	assert.Error(t, Watch(context.Background(), "", zerolog.Nop(), func(*Config) {}))
}
