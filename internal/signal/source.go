package signal

import (
	"context"
	"errors"

	"vehicle-health-monitor/internal/monitor"
)

// ErrNoFrame is returned when a source has nothing to report at the requested time.
var ErrNoFrame = errors.New("signal: no frame available")

// Source yields the bus frame observed at a simulation time in seconds.
type Source interface {
	Frame(ctx context.Context, at float64) (monitor.Frame, error)
}
