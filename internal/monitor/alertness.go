package monitor

import (
	"fmt"

	"vehicle-health-monitor/internal/scoring"
	"vehicle-health-monitor/internal/severity"
	"vehicle-health-monitor/internal/window"
)

// AlertnessDescriptions are the base texts of the driver alertness monitor.
var AlertnessDescriptions = severity.Descriptions{
	"Normal Driving",
	"Mild Fatigue/Distraction (Advisory - Consider a break)",
	"Moderate Fatigue/Distraction (Warning - Advise driver to pull over immediately!)",
	"Severe Fatigue/Distraction (Critical Alert - System intervention required!)",
}

// AlertnessThresholds calibrate the alertness score.
type AlertnessThresholds struct {
	Classes []scoring.ClassBands
	Cuts    severity.Cuts
}

// DefaultAlertnessThresholds returns the stock calibration.
func DefaultAlertnessThresholds() AlertnessThresholds {
	return AlertnessThresholds{
		Classes: []scoring.ClassBands{
			{Class: scoring.SteeringAngle, Bands: scoring.MustBands(2.5, 4.0, 6.0)},
			{Class: scoring.LonAccel, Bands: scoring.MustBands(0.04, 0.08, 0.12)},
			{Class: scoring.LatAccel, Bands: scoring.MustBands(0.03, 0.06, 0.09)},
			{Class: scoring.YawRate, Bands: scoring.MustBands(0.10, 0.20, 0.30)},
		},
		Cuts: severity.MustCuts(3, 15, 30),
	}
}

// classSignal maps an alertness class to the raw frame signal it windows.
var classSignal = map[scoring.Class]func(Frame) float64{
	scoring.SteeringAngle: func(f Frame) float64 { return f.SteeringAngle },
	scoring.LonAccel:      func(f Frame) float64 { return f.LonAccel },
	scoring.LatAccel:      func(f Frame) float64 { return f.LatAccel },
	scoring.YawRate:       func(f Frame) float64 { return f.YawRate },
}

// AlertnessResult is the per-tick output of the alertness monitor.
type AlertnessResult struct {
	Level       severity.Level
	Description string
	Score       int
	WindowSize  int
	Signals     []SignalStat
}

// Alertness scores driver fatigue from the rolling variability of steering,
// accelerations and yaw rate.
type Alertness struct {
	agg     *scoring.Aggregator
	cuts    severity.Cuts
	classes []scoring.Class
	windows map[scoring.Class]*window.Window
}

// NewAlertness creates an alertness monitor owning one window per class.
func NewAlertness(th AlertnessThresholds, windowDuration float64) (*Alertness, error) {
	for _, cb := range th.Classes {
		if _, ok := classSignal[cb.Class]; !ok {
			return nil, fmt.Errorf("alertness: no signal for class %q", cb.Class)
		}
	}
	agg, err := scoring.NewAggregator(th.Classes)
	if err != nil {
		return nil, fmt.Errorf("alertness: %w", err)
	}

	a := &Alertness{
		agg:     agg,
		cuts:    th.Cuts,
		classes: agg.Classes(),
		windows: make(map[scoring.Class]*window.Window, len(th.Classes)),
	}
	for _, c := range a.classes {
		a.windows[c] = window.New(windowDuration)
	}
	return a, nil
}

// Observe inserts the frame, recomputes every class contribution and maps
// the total onto a level. The previous score is discarded.
func (a *Alertness) Observe(f Frame) AlertnessResult {
	stats := make([]SignalStat, 0, len(a.classes))
	size := 0
	for _, c := range a.classes {
		v := classSignal[c](f)
		w := a.windows[c]
		w.Insert(v, f.Timestamp)
		std := w.StdDev()
		contribution, _ := a.agg.Update(c, std)
		stats = append(stats, SignalStat{Name: string(c), Value: v, StdDev: std, Contribution: contribution})
		if w.Count() > size {
			size = w.Count()
		}
	}

	score := a.agg.Total()
	level := a.cuts.Level(score)
	return AlertnessResult{
		Level:       level,
		Description: AlertnessDescriptions.Of(level),
		Score:       score,
		WindowSize:  size,
		Signals:     stats,
	}
}

// Score returns the current composite score.
func (a *Alertness) Score() int {
	return a.agg.Total()
}

// Reconfigure swaps bands and cuts. Window contents survive; classes that
// are new get an empty window.
func (a *Alertness) Reconfigure(th AlertnessThresholds, windowDuration float64) error {
	for _, cb := range th.Classes {
		if _, ok := classSignal[cb.Class]; !ok {
			return fmt.Errorf("alertness: no signal for class %q", cb.Class)
		}
	}
	agg, err := a.agg.WithBands(th.Classes)
	if err != nil {
		return fmt.Errorf("alertness: %w", err)
	}

	windows := make(map[scoring.Class]*window.Window, len(th.Classes))
	for _, c := range agg.Classes() {
		w, ok := a.windows[c]
		if !ok {
			w = window.New(windowDuration)
		} else if w.Duration() != windowDuration {
			w.Resize(windowDuration)
		}
		windows[c] = w
	}

	a.agg = agg
	a.cuts = th.Cuts
	a.classes = agg.Classes()
	a.windows = windows
	return nil
}

// Reset zeroes the score and drops every window sample.
func (a *Alertness) Reset() {
	a.agg.Reset()
	for _, w := range a.windows {
		w.Reset()
	}
}
