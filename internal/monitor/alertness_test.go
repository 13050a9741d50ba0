package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-health-monitor/internal/scoring"
	"vehicle-health-monitor/internal/severity"
)

func newTestAlertness(t *testing.T, th AlertnessThresholds, window float64) *Alertness {
	t.Helper()
	a, err := NewAlertness(th, window)
	require.NoError(t, err)
	return a
}

func TestAlertnessFirstSampleIsNormal(t *testing.T) {
	a := newTestAlertness(t, DefaultAlertnessThresholds(), 60)
	res := a.Observe(Frame{Timestamp: 0, SteeringAngle: 40, LonAccel: 2, LatAccel: 1, YawRate: 5})

	assert.Equal(t, 0, res.Score)
	assert.Equal(t, severity.None, res.Level)
	assert.Equal(t, "Normal Driving", res.Description)
	assert.Equal(t, 1, res.WindowSize)
}

func TestAlertnessErraticDrivingScores(t *testing.T) {
	a := newTestAlertness(t, DefaultAlertnessThresholds(), 60)

	var res AlertnessResult
	for ts := 0; ts < 12; ts++ {
		sign := float64(1 - 2*(ts%2))
		res = a.Observe(Frame{
			Timestamp:     float64(ts * 5),
			SteeringAngle: 10 * sign,
			LonAccel:      sign,
			LatAccel:      sign,
			YawRate:       2 * sign,
		})
	}

	require.Len(t, res.Signals, 4)
	for _, sig := range res.Signals {
		assert.Equal(t, 3, sig.Contribution, sig.Name)
	}
	assert.Equal(t, 12, res.Score)
	// the stock cut points put a maxed-out four-class score in the mild band.
	assert.Equal(t, severity.Low, res.Level)
	assert.Equal(t, AlertnessDescriptions.Of(severity.Low), res.Description)
}

func TestAlertnessConstantStreamReturnsToBandZero(t *testing.T) {
	a := newTestAlertness(t, DefaultAlertnessThresholds(), 10)

	for ts := 0; ts < 10; ts++ {
		a.Observe(Frame{Timestamp: float64(ts), SteeringAngle: float64(ts % 2 * 20)})
	}
	require.Greater(t, a.Score(), 0)

	var res AlertnessResult
	for ts := 10; ts <= 25; ts++ {
		res = a.Observe(Frame{Timestamp: float64(ts), SteeringAngle: 3})
	}
	for _, sig := range res.Signals {
		assert.Equal(t, 0.0, sig.StdDev, sig.Name)
		assert.Equal(t, 0, sig.Contribution, sig.Name)
	}
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, severity.None, res.Level)
}

func TestAlertnessCustomCutsReachHigh(t *testing.T) {
	th := DefaultAlertnessThresholds()
	th.Cuts = severity.MustCuts(1, 4, 8)
	a := newTestAlertness(t, th, 60)

	var res AlertnessResult
	for ts := 0; ts < 6; ts++ {
		sign := float64(1 - 2*(ts%2))
		res = a.Observe(Frame{Timestamp: float64(ts), SteeringAngle: 10 * sign, LonAccel: sign, LatAccel: sign, YawRate: sign})
	}
	assert.Equal(t, severity.High, res.Level)
}

func TestAlertnessResetAndReconfigure(t *testing.T) {
	a := newTestAlertness(t, DefaultAlertnessThresholds(), 60)
	for ts := 0; ts < 4; ts++ {
		a.Observe(Frame{Timestamp: float64(ts), SteeringAngle: float64(ts * 10)})
	}
	require.Greater(t, a.Score(), 0)

	th := AlertnessThresholds{
		Classes: []scoring.ClassBands{{Class: scoring.SteeringAngle, Bands: scoring.MustBands(100, 200, 300)}},
		Cuts:    severity.MustCuts(3, 15, 30),
	}
	require.NoError(t, a.Reconfigure(th, 60))
	res := a.Observe(Frame{Timestamp: 4, SteeringAngle: 40})
	assert.Len(t, res.Signals, 1)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 5, res.WindowSize)

	a.Reset()
	assert.Equal(t, 0, a.Score())
	res = a.Observe(Frame{Timestamp: 5})
	assert.Equal(t, 1, res.WindowSize)
}

func TestAlertnessRejectsUnknownClass(t *testing.T) {
	th := AlertnessThresholds{
		Classes: []scoring.ClassBands{{Class: "throttle", Bands: scoring.MustBands(1, 2, 3)}},
		Cuts:    severity.MustCuts(3, 15, 30),
	}
	_, err := NewAlertness(th, 60)
	assert.Error(t, err)
}
