package monitor

import (
	"fmt"

	"vehicle-health-monitor/internal/rules"
	"vehicle-health-monitor/internal/severity"
	"vehicle-health-monitor/internal/window"
)

// StabilityDescriptions are the base texts of the high-speed stability monitor.
var StabilityDescriptions = severity.Descriptions{
	"Vehicle stable.",
	"Minor instability detected, monitoring.",
	"Significant instability, potential loss of control.",
	"Critical instability, immediate driver action required!",
}

// StabilityThresholds calibrate the stability rules.
type StabilityThresholds struct {
	ActivationKmh         float64
	MinSteeringForTurnDeg float64
	HighYawDegS           float64
	HighLatG              float64
	WheelSlipKmh          float64
	SmallSteeringDeg      float64
	SpinYawFraction       float64
	LowFriction           float64
}

// DefaultStabilityThresholds returns the stock calibration.
func DefaultStabilityThresholds() StabilityThresholds {
	return StabilityThresholds{
		ActivationKmh:         80,
		MinSteeringForTurnDeg: 5,
		HighYawDegS:           15,
		HighLatG:              0.8,
		WheelSlipKmh:          10,
		SmallSteeringDeg:      3,
		SpinYawFraction:       0.5,
		LowFriction:           0.3,
	}
}

// NewStabilityEngine builds the stability rule set. Evaluation order is
// fixed: low friction, high yaw with low steering, asymmetric wheel speeds,
// high lateral g with minimal steering. The high-yaw rule overwrites any
// earlier level; the two moderate rules only raise None or Low.
func NewStabilityEngine(th StabilityThresholds) *rules.Engine[StabilityFeatures] {
	return rules.New(StabilityDescriptions, []rules.Rule[StabilityFeatures]{
		{
			Name:       "low_friction",
			Target:     severity.Low,
			Escalation: rules.Overwrite,
			Trigger:    func(s StabilityFeatures) bool { return s.Friction < th.LowFriction },
			Detail: func(s StabilityFeatures) string {
				return fmt.Sprintf("Low Road Friction (%.2f).", s.Friction)
			},
		},
		{
			Name:       "high_yaw_low_steering",
			Target:     severity.High,
			Escalation: rules.Overwrite,
			Trigger: func(s StabilityFeatures) bool {
				return s.AbsYaw > th.HighYawDegS && s.AbsSteering < th.MinSteeringForTurnDeg
			},
			Detail: func(s StabilityFeatures) string {
				return fmt.Sprintf("High Yaw (%.1f deg/s) with Low Steering (%.1f deg).", s.AbsYaw, s.AbsSteering)
			},
		},
		{
			Name:       "asymmetric_wheel_speeds",
			Target:     severity.Moderate,
			Escalation: rules.FromNoneOrLow,
			Trigger:    func(s StabilityFeatures) bool { return s.MaxAxleDiff > th.WheelSlipKmh },
			Detail: func(s StabilityFeatures) string {
				return fmt.Sprintf("Asymmetric Wheel Speeds (%.1f km/h difference).", s.MaxAxleDiff)
			},
		},
		{
			Name:       "high_lat_g_low_steering",
			Target:     severity.Moderate,
			Escalation: rules.FromNoneOrLow,
			Trigger: func(s StabilityFeatures) bool {
				return s.AbsLatG > th.HighLatG &&
					s.AbsSteering < th.SmallSteeringDeg &&
					s.AbsYaw < th.HighYawDegS*th.SpinYawFraction
			},
			Detail: func(s StabilityFeatures) string {
				return fmt.Sprintf("High Lateral G (%.1f m/s^2) with Minimal Steering.", s.AbsLatG)
			},
		},
	}, rules.WithGate(func(s StabilityFeatures) bool {
		// only a speed known to be below the threshold gates; NaN evaluates.
		return !(s.VehicleSpeed < th.ActivationKmh)
	}))
}

// stabilitySignals are the raw signals the stability monitor keeps windows for.
var stabilitySignals = []struct {
	name  string
	value func(Frame) float64
}{
	{"str_angle", func(f Frame) float64 { return f.SteeringAngle }},
	{"lon_g", func(f Frame) float64 { return f.LonAccel }},
	{"lat_g", func(f Frame) float64 { return f.LatAccel }},
	{"yaw", func(f Frame) float64 { return f.YawRate }},
	{"wheel_fl", func(f Frame) float64 { return f.WheelFL }},
	{"wheel_fr", func(f Frame) float64 { return f.WheelFR }},
	{"wheel_rl", func(f Frame) float64 { return f.WheelRL }},
	{"wheel_rr", func(f Frame) float64 { return f.WheelRR }},
	{"myu", func(f Frame) float64 { return f.Friction }},
}

// StabilityResult is the per-tick output of the stability monitor.
type StabilityResult struct {
	rules.Outcome
	Features StabilityFeatures
	Signals  []SignalStat
}

// Stability is the high-speed stability monitor. The rule evaluation is
// stateless; the windows only feed the diagnostic rolling statistics.
type Stability struct {
	engine  *rules.Engine[StabilityFeatures]
	windows []*window.Window
}

// NewStability creates a stability monitor with its own windows.
func NewStability(th StabilityThresholds, windowDuration float64) *Stability {
	windows := make([]*window.Window, len(stabilitySignals))
	for i := range windows {
		windows[i] = window.New(windowDuration)
	}
	return &Stability{engine: NewStabilityEngine(th), windows: windows}
}

// Observe feeds one frame through the windows and rules.
func (s *Stability) Observe(f Frame) StabilityResult {
	stats := make([]SignalStat, len(stabilitySignals))
	for i, sig := range stabilitySignals {
		v := sig.value(f)
		s.windows[i].Insert(v, f.Timestamp)
		stats[i] = SignalStat{Name: sig.name, Value: v, StdDev: s.windows[i].StdDev()}
	}

	features := DeriveStability(f)
	return StabilityResult{
		Outcome:  s.engine.Evaluate(features),
		Features: features,
		Signals:  stats,
	}
}

// Check evaluates the rules against a snapshot without touching any window.
func (s *Stability) Check(features StabilityFeatures) rules.Outcome {
	return s.engine.Evaluate(features)
}

// Reconfigure swaps the thresholds and window length, keeping window contents.
func (s *Stability) Reconfigure(th StabilityThresholds, windowDuration float64) {
	s.engine = NewStabilityEngine(th)
	for _, w := range s.windows {
		if w.Duration() != windowDuration {
			w.Resize(windowDuration)
		}
	}
}

// Reset clears every window.
func (s *Stability) Reset() {
	for _, w := range s.windows {
		w.Reset()
	}
}
