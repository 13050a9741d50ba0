package storage

import (
	"time"

	"vehicle-health-monitor/internal/monitor"
)

// FrameRecord is one persisted bus frame of a recorded session.
type FrameRecord struct {
	Session string
	monitor.Frame
}

// SessionSummary describes a recorded session.
type SessionSummary struct {
	Session    string
	Frames     int64
	FirstTS    float64
	LastTS     float64
	RecordedAt time.Time
}
