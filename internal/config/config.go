package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"vehicle-health-monitor/internal/logging"
	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/scoring"
	"vehicle-health-monitor/internal/severity"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Monitors   []string         `mapstructure:"monitors"`
	Alertness  AlertnessConfig  `mapstructure:"alertness"`
	Stability  StabilityConfig  `mapstructure:"stability"`
	Braking    BrakingConfig    `mapstructure:"braking"`
	Source     SourceConfig     `mapstructure:"source"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SimulationConfig governs the sampling loop.
type SimulationConfig struct {
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	WindowDuration time.Duration `mapstructure:"window_duration"`
	Duration       time.Duration `mapstructure:"duration"`
	Realtime       bool          `mapstructure:"realtime"`
	Seed           uint64        `mapstructure:"seed"`
	BaseSpeedKmh   float64       `mapstructure:"base_speed_kmh"`
	// StartupDelay holds the first realtime tick back, e.g. while the bus settles.
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// AlertnessConfig holds the per-class band triples and score cut points.
type AlertnessConfig struct {
	WindowDuration time.Duration        `mapstructure:"window_duration"`
	Bands          map[string][]float64 `mapstructure:"bands"`
	Cuts           []int                `mapstructure:"cuts"`
}

// StabilityConfig calibrates the high-speed stability rules.
type StabilityConfig struct {
	ActivationKmh         float64 `mapstructure:"activation_kmh"`
	MinSteeringForTurnDeg float64 `mapstructure:"min_steering_for_turn_deg"`
	HighYawDegS           float64 `mapstructure:"high_yaw_deg_s"`
	HighLatG              float64 `mapstructure:"high_lat_g"`
	WheelSlipKmh          float64 `mapstructure:"wheel_slip_kmh"`
	SmallSteeringDeg      float64 `mapstructure:"small_steering_deg"`
	SpinYawFraction       float64 `mapstructure:"spin_yaw_fraction"`
	LowFriction           float64 `mapstructure:"low_friction"`
}

// BrakingConfig bounds plausible master cylinder pressure.
type BrakingConfig struct {
	MinPressurePedalPressedKPa  float64 `mapstructure:"min_pressure_pedal_pressed_kpa"`
	MaxPressurePedalReleasedKPa float64 `mapstructure:"max_pressure_pedal_released_kpa"`
}

// SourceConfig selects where bus frames come from.
type SourceConfig struct {
	Kind    string `mapstructure:"kind"`
	Session string `mapstructure:"session"`
}

// Source kinds.
const (
	SourceSimulated = "simulated"
	SourceReplay    = "replay"
)

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SinkConfig routes status lines to external outputs.
type SinkConfig struct {
	MinLevel string `mapstructure:"min_level"`

	// QueueSize bounds the pending messages per sink; a full queue drops.
	QueueSize    int            `mapstructure:"queue_size"`
	DrainTimeout time.Duration  `mapstructure:"drain_timeout"`
	Serial       SerialConfig   `mapstructure:"serial"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	Redis        RedisConfig    `mapstructure:"redis"`
}

// SerialConfig describes the serial telemetry port.
type SerialConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
	Baud    int    `mapstructure:"baud"`
}

// TelegramConfig describes the Telegram alert channel.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RedisConfig describes the Redis pub/sub channel.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	// a missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("VHMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "vhmon")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("simulation.sample_interval", "1s")
	v.SetDefault("simulation.window_duration", "10s")
	v.SetDefault("simulation.duration", "180s")
	v.SetDefault("simulation.realtime", true)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.base_speed_kmh", 90.0)
	v.SetDefault("simulation.startup_delay", "0s")

	v.SetDefault("monitors", []string{"braking", "alertness", "stability"})

	v.SetDefault("alertness.window_duration", "0s")
	v.SetDefault("alertness.bands", map[string]any{
		string(scoring.SteeringAngle): []float64{2.5, 4.0, 6.0},
		string(scoring.LonAccel):      []float64{0.04, 0.08, 0.12},
		string(scoring.LatAccel):      []float64{0.03, 0.06, 0.09},
		string(scoring.YawRate):       []float64{0.10, 0.20, 0.30},
	})
	v.SetDefault("alertness.cuts", []int{3, 15, 30})

	stab := monitor.DefaultStabilityThresholds()
	v.SetDefault("stability.activation_kmh", stab.ActivationKmh)
	v.SetDefault("stability.min_steering_for_turn_deg", stab.MinSteeringForTurnDeg)
	v.SetDefault("stability.high_yaw_deg_s", stab.HighYawDegS)
	v.SetDefault("stability.high_lat_g", stab.HighLatG)
	v.SetDefault("stability.wheel_slip_kmh", stab.WheelSlipKmh)
	v.SetDefault("stability.small_steering_deg", stab.SmallSteeringDeg)
	v.SetDefault("stability.spin_yaw_fraction", stab.SpinYawFraction)
	v.SetDefault("stability.low_friction", stab.LowFriction)

	brk := monitor.DefaultBrakingThresholds()
	v.SetDefault("braking.min_pressure_pedal_pressed_kpa", brk.MinPressurePedalPressedKPa)
	v.SetDefault("braking.max_pressure_pedal_released_kpa", brk.MaxPressurePedalReleasedKPa)

	v.SetDefault("source.kind", SourceSimulated)

	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("sink.min_level", "none")
	v.SetDefault("sink.queue_size", 32)
	v.SetDefault("sink.drain_timeout", "5s")
	v.SetDefault("sink.serial.enabled", false)
	v.SetDefault("sink.serial.baud", 115200)
	v.SetDefault("sink.telegram.enabled", false)
	v.SetDefault("sink.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("sink.telegram.timeout", "10s")
	v.SetDefault("sink.redis.enabled", false)
	v.SetDefault("sink.redis.addr", "localhost:6379")
	v.SetDefault("sink.redis.channel", "vhmon:alerts")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks, including building every threshold table.
func (c *Config) Validate() error {
	if c.Simulation.SampleInterval <= 0 {
		return fmt.Errorf("simulation.sample_interval must be greater than zero")
	}
	if c.Simulation.WindowDuration <= 0 {
		return fmt.Errorf("simulation.window_duration must be greater than zero")
	}
	if c.Simulation.Duration <= 0 {
		return fmt.Errorf("simulation.duration must be greater than zero")
	}
	if c.Simulation.StartupDelay < 0 {
		return fmt.Errorf("simulation.startup_delay cannot be negative")
	}
	if c.Alertness.WindowDuration < 0 {
		return fmt.Errorf("alertness.window_duration cannot be negative")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if _, err := c.MonitorKinds(); err != nil {
		return err
	}
	if _, err := c.Thresholds(); err != nil {
		return err
	}
	if _, err := severity.ParseLevel(c.Sink.MinLevel); err != nil {
		return fmt.Errorf("sink.min_level: %w", err)
	}
	if c.Sink.QueueSize <= 0 {
		return fmt.Errorf("sink.queue_size must be greater than zero")
	}
	if c.Sink.DrainTimeout <= 0 {
		return fmt.Errorf("sink.drain_timeout must be greater than zero")
	}
	switch c.Source.Kind {
	case SourceSimulated:
	case SourceReplay:
		if c.Source.Session == "" {
			return fmt.Errorf("source.session is required for replay")
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q", SourceSimulated, SourceReplay)
	}
	if c.Sink.Serial.Enabled && c.Sink.Serial.Port == "" {
		return fmt.Errorf("sink.serial.port is required when serial output is enabled")
	}
	if c.Sink.Telegram.Enabled {
		if c.Sink.Telegram.BotToken == "" {
			return fmt.Errorf("sink.telegram.bot_token is required")
		}
		if c.Sink.Telegram.ChatID == "" {
			return fmt.Errorf("sink.telegram.chat_id is required")
		}
	}
	if c.Sink.Redis.Enabled && c.Sink.Redis.Channel == "" {
		return fmt.Errorf("sink.redis.channel is required")
	}
	return nil
}

// MonitorKinds parses the enabled monitor list.
func (c *Config) MonitorKinds() ([]monitor.Kind, error) {
	if len(c.Monitors) == 0 {
		return nil, fmt.Errorf("monitors must list at least one monitor")
	}
	kinds := make([]monitor.Kind, 0, len(c.Monitors))
	seen := make(map[monitor.Kind]bool, len(c.Monitors))
	for _, name := range c.Monitors {
		k, err := monitor.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("monitors: %w", err)
		}
		if !seen[k] {
			kinds = append(kinds, k)
			seen[k] = true
		}
	}
	return kinds, nil
}

// Thresholds converts the calibration sections into monitor thresholds.
// Alertness classes are ordered the way the monitor reports them.
func (c *Config) Thresholds() (monitor.Thresholds, error) {
	classes := make([]scoring.ClassBands, 0, len(c.Alertness.Bands))
	for _, class := range []scoring.Class{scoring.SteeringAngle, scoring.LonAccel, scoring.LatAccel, scoring.YawRate} {
		bounds, ok := c.Alertness.Bands[string(class)]
		if !ok {
			continue
		}
		bands, err := scoring.NewBands(bounds)
		if err != nil {
			return monitor.Thresholds{}, fmt.Errorf("alertness.bands.%s: %w", class, err)
		}
		classes = append(classes, scoring.ClassBands{Class: class, Bands: bands})
	}
	if len(classes) != len(c.Alertness.Bands) {
		return monitor.Thresholds{}, fmt.Errorf("alertness.bands: unknown signal class in %v", keys(c.Alertness.Bands))
	}
	if len(classes) == 0 {
		return monitor.Thresholds{}, fmt.Errorf("alertness.bands must configure at least one signal class")
	}

	cuts, err := severity.NewCuts(c.Alertness.Cuts)
	if err != nil {
		return monitor.Thresholds{}, fmt.Errorf("alertness.cuts: %w", err)
	}

	return monitor.Thresholds{
		WindowDuration:          c.Simulation.WindowDuration.Seconds(),
		AlertnessWindowDuration: c.Alertness.WindowDuration.Seconds(),
		Alertness:               monitor.AlertnessThresholds{Classes: classes, Cuts: cuts},
		Stability: monitor.StabilityThresholds{
			ActivationKmh:         c.Stability.ActivationKmh,
			MinSteeringForTurnDeg: c.Stability.MinSteeringForTurnDeg,
			HighYawDegS:           c.Stability.HighYawDegS,
			HighLatG:              c.Stability.HighLatG,
			WheelSlipKmh:          c.Stability.WheelSlipKmh,
			SmallSteeringDeg:      c.Stability.SmallSteeringDeg,
			SpinYawFraction:       c.Stability.SpinYawFraction,
			LowFriction:           c.Stability.LowFriction,
		},
		Braking: monitor.BrakingThresholds{
			MinPressurePedalPressedKPa:  c.Braking.MinPressurePedalPressedKPa,
			MaxPressurePedalReleasedKPa: c.Braking.MaxPressurePedalReleasedKPa,
		},
	}, nil
}

// MinLevel returns the parsed sink filter level.
func (c *Config) MinLevel() severity.Level {
	l, _ := severity.ParseLevel(c.Sink.MinLevel)
	return l
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

func keys(m map[string][]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
