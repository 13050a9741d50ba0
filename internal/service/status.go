package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/severity"
)

// Line is one rendered monitor status.
type Line struct {
	Monitor monitor.Kind
	Level   severity.Level
	Text    string
}

// FormatReport renders one line per enabled monitor in tick order.
func FormatReport(r monitor.Report) []Line {
	ts := Fixed(r.Timestamp, 1)
	lines := make([]Line, 0, 3)

	if b := r.Braking; b != nil {
		var sb strings.Builder
		header(&sb, ts, monitor.KindBraking)
		sb.WriteString("fluid_low=" + flag(b.Status.FluidLow))
		sb.WriteString(" pedal=" + flag(b.Status.PedalPressed))
		sb.WriteString(" mc=" + Fixed(b.Status.MasterCylinderKPa, 1) + "kPa")
		sb.WriteString(" warn_brake=" + flag(b.Status.WarnBrake))
		sb.WriteString(" warn_abs=" + flag(b.Status.WarnABS))
		sb.WriteString(" warn_puncture=" + flag(b.Status.WarnPuncture))
		trailer(&sb, b.Level, b.Description)
		lines = append(lines, Line{monitor.KindBraking, b.Level, sb.String()})
	}

	if a := r.Alertness; a != nil {
		var sb strings.Builder
		header(&sb, ts, monitor.KindAlertness)
		signals(&sb, a.Signals, true)
		sb.WriteString(" | score=" + decimal.NewFromInt(int64(a.Score)).String())
		sb.WriteString(" n=" + decimal.NewFromInt(int64(a.WindowSize)).String())
		trailer(&sb, a.Level, a.Description)
		lines = append(lines, Line{monitor.KindAlertness, a.Level, sb.String()})
	}

	if s := r.Stability; s != nil {
		var sb strings.Builder
		header(&sb, ts, monitor.KindStability)
		sb.WriteString("speed=" + Fixed(s.Features.VehicleSpeed, 1) + "km/h ")
		signals(&sb, s.Signals, false)
		trailer(&sb, s.Level, s.Description)
		lines = append(lines, Line{monitor.KindStability, s.Level, sb.String()})
	}

	return lines
}

func header(sb *strings.Builder, ts string, kind monitor.Kind) {
	sb.WriteString("[t=" + ts + "s] " + string(kind) + " | ")
}

func trailer(sb *strings.Builder, level severity.Level, description string) {
	sb.WriteString(" | " + level.String() + " | " + description)
}

func signals(sb *strings.Builder, stats []monitor.SignalStat, withContribution bool) {
	for i, st := range stats {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(st.Name + "=" + Fixed(st.Value, 2) + " (std " + Fixed(st.StdDev, 3))
		if withContribution {
			sb.WriteString(", +" + decimal.NewFromInt(int64(st.Contribution)).String())
		}
		sb.WriteByte(')')
	}
}

// Fixed renders v with a fixed number of places. Non-finite inputs pass
// through unvalidated and render as-is.
func Fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
