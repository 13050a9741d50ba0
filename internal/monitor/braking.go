package monitor

import (
	"fmt"

	"vehicle-health-monitor/internal/rules"
	"vehicle-health-monitor/internal/severity"
)

// BrakingDescriptions are the base texts of the braking health monitor.
var BrakingDescriptions = severity.Descriptions{
	"Braking system normal.",
	"Braking system advisory.",
	"Braking system warning.",
	"Braking system critical fault!",
}

// BrakingThresholds bound plausible master cylinder pressure.
type BrakingThresholds struct {
	MinPressurePedalPressedKPa  float64
	MaxPressurePedalReleasedKPa float64
}

// DefaultBrakingThresholds returns the stock calibration.
func DefaultBrakingThresholds() BrakingThresholds {
	return BrakingThresholds{
		MinPressurePedalPressedKPa:  1000,
		MaxPressurePedalReleasedKPa: 100,
	}
}

// NewBrakingEngine builds the braking rule set. Only low brake fluid
// overwrites the level; every later rule sets its target only when nothing
// has fired yet.
func NewBrakingEngine(th BrakingThresholds) *rules.Engine[BrakingStatus] {
	return rules.New(BrakingDescriptions, []rules.Rule[BrakingStatus]{
		{
			Name:       "low_brake_fluid",
			Target:     severity.High,
			Escalation: rules.Overwrite,
			Trigger:    func(b BrakingStatus) bool { return b.FluidLow },
			Detail:     func(BrakingStatus) string { return "Low Brake Fluid detected." },
		},
		{
			Name:       "mc_pressure_low",
			Target:     severity.Moderate,
			Escalation: rules.FromNone,
			Trigger: func(b BrakingStatus) bool {
				return b.PedalPressed && b.MasterCylinderKPa < th.MinPressurePedalPressedKPa
			},
			Detail: func(b BrakingStatus) string {
				return fmt.Sprintf("Master Cylinder Pressure too low (%.1f kPa) with pedal pressed.", b.MasterCylinderKPa)
			},
		},
		{
			Name:       "mc_pressure_high",
			Target:     severity.Moderate,
			Escalation: rules.FromNone,
			Trigger: func(b BrakingStatus) bool {
				return !b.PedalPressed && b.MasterCylinderKPa > th.MaxPressurePedalReleasedKPa
			},
			Detail: func(b BrakingStatus) string {
				return fmt.Sprintf("Master Cylinder Pressure too high (%.1f kPa) with pedal released.", b.MasterCylinderKPa)
			},
		},
		{
			Name:       "brake_warning_light",
			Target:     severity.High,
			Escalation: rules.FromNone,
			Trigger:    func(b BrakingStatus) bool { return b.WarnBrake },
			Detail:     func(BrakingStatus) string { return "General Brake Warning Light active." },
		},
		{
			Name:       "abs_warning_light",
			Target:     severity.High,
			Escalation: rules.FromNone,
			Trigger:    func(b BrakingStatus) bool { return b.WarnABS },
			Detail:     func(BrakingStatus) string { return "ABS Warning Light active." },
		},
		{
			Name:       "tire_puncture",
			Target:     severity.Moderate,
			Escalation: rules.FromNone,
			Trigger:    func(b BrakingStatus) bool { return b.WarnPuncture },
			Detail:     func(BrakingStatus) string { return "Tire Puncture Warning active." },
		},
	})
}

// BrakingResult is the per-tick output of the braking monitor.
type BrakingResult struct {
	rules.Outcome
	Status BrakingStatus
}

// Braking is the stateless braking health monitor.
type Braking struct {
	engine *rules.Engine[BrakingStatus]
}

// NewBraking creates a braking monitor.
func NewBraking(th BrakingThresholds) *Braking {
	return &Braking{engine: NewBrakingEngine(th)}
}

// Observe evaluates the braking rules for one frame.
func (b *Braking) Observe(f Frame) BrakingResult {
	status := DeriveBraking(f)
	return BrakingResult{Outcome: b.engine.Evaluate(status), Status: status}
}

// Check evaluates the rules against a status snapshot.
func (b *Braking) Check(status BrakingStatus) rules.Outcome {
	return b.engine.Evaluate(status)
}

// Reconfigure swaps the thresholds.
func (b *Braking) Reconfigure(th BrakingThresholds) {
	b.engine = NewBrakingEngine(th)
}
