package severity

import (
	"fmt"
	"strings"
)

// Level is an ordered alert severity shared by every monitor.
type Level int

const (
	None Level = iota
	Low
	Moderate
	High
)

var levelNames = [...]string{"NONE", "LOW", "MODERATE", "HIGH"}

// Levels lists every level in increasing severity.
var Levels = []Level{None, Low, Moderate, High}

func (l Level) String() string {
	if l < None || l > High {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts the level name in any case, plus the per-monitor
// aliases used in older tooling (mild, critical, severe).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE", "NORMAL":
		return None, nil
	case "LOW", "MILD":
		return Low, nil
	case "MODERATE":
		return Moderate, nil
	case "HIGH", "CRITICAL", "SEVERE":
		return High, nil
	default:
		return None, fmt.Errorf("unknown alert level %q (want one of %v)", s, Levels)
	}
}

// Descriptions holds a monitor's base text for each level.
type Descriptions [4]string

// Of returns the description for l; out-of-range levels map to the
// nearest bound.
func (d Descriptions) Of(l Level) string {
	if l < None {
		l = None
	}
	if l > High {
		l = High
	}
	return d[l]
}
