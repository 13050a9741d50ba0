package monitor

import (
	"fmt"
	"strings"

	"vehicle-health-monitor/internal/severity"
)

// Kind names a monitor.
type Kind string

const (
	KindBraking   Kind = "braking"
	KindAlertness Kind = "alertness"
	KindStability Kind = "stability"
)

// AllKinds lists every monitor in tick order.
var AllKinds = []Kind{KindBraking, KindAlertness, KindStability}

// ParseKind validates a monitor name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown monitor %q", s)
}

// SignalStat is the instantaneous value and rolling statistic of one signal.
type SignalStat struct {
	Name         string
	Value        float64
	StdDev       float64
	Contribution int
}

// Thresholds groups every monitor calibration.
type Thresholds struct {
	WindowDuration          float64
	AlertnessWindowDuration float64
	Alertness               AlertnessThresholds
	Stability               StabilityThresholds
	Braking                 BrakingThresholds
}

// DefaultThresholds returns the stock calibration with a 10 s window.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindowDuration: 10,
		Alertness:      DefaultAlertnessThresholds(),
		Stability:      DefaultStabilityThresholds(),
		Braking:        DefaultBrakingThresholds(),
	}
}

func (t Thresholds) alertnessWindow() float64 {
	if t.AlertnessWindowDuration > 0 {
		return t.AlertnessWindowDuration
	}
	return t.WindowDuration
}

// Summary is the monitor-agnostic view of one result.
type Summary struct {
	Monitor     Kind
	Level       severity.Level
	Description string
}

// Report is everything a session produced for one frame.
type Report struct {
	Timestamp float64
	Frame     Frame
	Braking   *BrakingResult
	Alertness *AlertnessResult
	Stability *StabilityResult
}

// Summaries lists the enabled monitors' results in tick order.
func (r Report) Summaries() []Summary {
	out := make([]Summary, 0, 3)
	if r.Braking != nil {
		out = append(out, Summary{KindBraking, r.Braking.Level, r.Braking.Description})
	}
	if r.Alertness != nil {
		out = append(out, Summary{KindAlertness, r.Alertness.Level, r.Alertness.Description})
	}
	if r.Stability != nil {
		out = append(out, Summary{KindStability, r.Stability.Level, r.Stability.Description})
	}
	return out
}

// Highest returns the most severe level across the report.
func (r Report) Highest() severity.Level {
	highest := severity.None
	for _, s := range r.Summaries() {
		if s.Level > highest {
			highest = s.Level
		}
	}
	return highest
}

// Session owns the state of one monitoring run. Monitors never share
// windows or aggregators.
type Session struct {
	braking   *Braking
	alertness *Alertness
	stability *Stability
}

// NewSession creates the enabled monitors. An empty kinds list enables all.
func NewSession(th Thresholds, kinds ...Kind) (*Session, error) {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	s := &Session{}
	for _, k := range kinds {
		switch k {
		case KindBraking:
			s.braking = NewBraking(th.Braking)
		case KindAlertness:
			a, err := NewAlertness(th.Alertness, th.alertnessWindow())
			if err != nil {
				return nil, err
			}
			s.alertness = a
		case KindStability:
			s.stability = NewStability(th.Stability, th.WindowDuration)
		default:
			return nil, fmt.Errorf("unknown monitor %q", k)
		}
	}
	return s, nil
}

// Tick runs every enabled monitor on one frame: braking, then alertness,
// then stability.
func (s *Session) Tick(f Frame) Report {
	r := Report{Timestamp: f.Timestamp, Frame: f}
	if s.braking != nil {
		res := s.braking.Observe(f)
		r.Braking = &res
	}
	if s.alertness != nil {
		res := s.alertness.Observe(f)
		r.Alertness = &res
	}
	if s.stability != nil {
		res := s.stability.Observe(f)
		r.Stability = &res
	}
	return r
}

// Reconfigure applies new thresholds to the enabled monitors while keeping
// their window contents. Nothing changes if the alertness tables are invalid.
func (s *Session) Reconfigure(th Thresholds) error {
	if s.alertness != nil {
		if err := s.alertness.Reconfigure(th.Alertness, th.alertnessWindow()); err != nil {
			return err
		}
	}
	if s.braking != nil {
		s.braking.Reconfigure(th.Braking)
	}
	if s.stability != nil {
		s.stability.Reconfigure(th.Stability, th.WindowDuration)
	}
	return nil
}

// Reset restarts the session: windows are emptied and the score zeroed.
func (s *Session) Reset() {
	if s.alertness != nil {
		s.alertness.Reset()
	}
	if s.stability != nil {
		s.stability.Reset()
	}
}

// Enabled lists the monitors this session runs.
func (s *Session) Enabled() []Kind {
	var out []Kind
	if s.braking != nil {
		out = append(out, KindBraking)
	}
	if s.alertness != nil {
		out = append(out, KindAlertness)
	}
	if s.stability != nil {
		out = append(out, KindStability)
	}
	return out
}
