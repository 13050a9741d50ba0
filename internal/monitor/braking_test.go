package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-health-monitor/internal/severity"
)

func TestBrakingLowFluid(t *testing.T) {
	out := NewBraking(DefaultBrakingThresholds()).Check(BrakingStatus{FluidLow: true})

	require.Equal(t, severity.High, out.Level)
	assert.Equal(t, "Braking system critical fault! Details: Low Brake Fluid detected.", out.Description)
}

func TestBrakingImplausibleLowPressure(t *testing.T) {
	out := NewBraking(DefaultBrakingThresholds()).Check(BrakingStatus{PedalPressed: true, MasterCylinderKPa: 500})

	require.Equal(t, severity.Moderate, out.Level)
	assert.Contains(t, out.Description, "Master Cylinder Pressure too low (500.0 kPa) with pedal pressed.")
	assert.Equal(t, []string{"mc_pressure_low"}, out.Fired)
}

func TestBrakingRules(t *testing.T) {
	b := NewBraking(DefaultBrakingThresholds())

	tests := []struct {
		name   string
		status BrakingStatus
		want   severity.Level
		fired  []string
	}{
		{"nominal released", BrakingStatus{MasterCylinderKPa: 20}, severity.None, nil},
		{"nominal pressed", BrakingStatus{PedalPressed: true, MasterCylinderKPa: 8000}, severity.None, nil},
		{"pressure at released bound", BrakingStatus{MasterCylinderKPa: 100}, severity.None, nil},
		{"stuck pressure", BrakingStatus{MasterCylinderKPa: 250}, severity.Moderate, []string{"mc_pressure_high"}},
		{"puncture", BrakingStatus{WarnPuncture: true}, severity.Moderate, []string{"tire_puncture"}},
		{"abs light", BrakingStatus{WarnABS: true}, severity.High, []string{"abs_warning_light"}},
		{
			// the warning light only escalates from none, so an earlier
			// moderate pressure fault keeps the level at moderate.
			"pressure then brake light",
			BrakingStatus{PedalPressed: true, MasterCylinderKPa: 120, WarnBrake: true},
			severity.Moderate,
			[]string{"mc_pressure_low", "brake_warning_light"},
		},
		{
			"fluid then puncture",
			BrakingStatus{FluidLow: true, WarnPuncture: true},
			severity.High,
			[]string{"low_brake_fluid", "tire_puncture"},
		},
		{
			"all faults",
			BrakingStatus{FluidLow: true, PedalPressed: true, MasterCylinderKPa: 80, WarnBrake: true, WarnABS: true, WarnPuncture: true},
			severity.High,
			[]string{"low_brake_fluid", "mc_pressure_low", "brake_warning_light", "abs_warning_light", "tire_puncture"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := b.Check(tc.status)
			assert.Equal(t, tc.want, out.Level)
			assert.Equal(t, tc.fired, out.Fired)
		})
	}
}

func TestBrakingObserveUsesFrame(t *testing.T) {
	b := NewBraking(DefaultBrakingThresholds())
	res := b.Observe(Frame{BrakePedal: true, MasterCylinderKPa: 9000, WarnPuncture: true})

	assert.True(t, res.Status.PedalPressed)
	assert.Equal(t, severity.Moderate, res.Level)
	assert.Equal(t, "Braking system warning. Details: Tire Puncture Warning active.", res.Description)

	b.Reconfigure(BrakingThresholds{MinPressurePedalPressedKPa: 10000, MaxPressurePedalReleasedKPa: 100})
	res = b.Observe(Frame{BrakePedal: true, MasterCylinderKPa: 9000})
	assert.Equal(t, severity.Moderate, res.Level)
}
