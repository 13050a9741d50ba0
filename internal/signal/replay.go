package signal

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/storage"
)

// FrameLister loads recorded frames for a session.
type FrameLister interface {
	ListFrames(ctx context.Context, session string, limit int) ([]storage.FrameRecord, error)
}

// Replay plays back recorded frames, holding the latest frame until the next
// one becomes due.
type Replay struct {
	session string
	frames  []monitor.Frame
}

// LoadReplay fetches every frame of session from the store.
func LoadReplay(ctx context.Context, store FrameLister, session string) (*Replay, error) {
	records, err := store.ListFrames(ctx, session, 0)
	if err != nil {
		return nil, fmt.Errorf("load replay %q: %w", session, err)
	}
	frames := make([]monitor.Frame, len(records))
	for i, rec := range records {
		frames[i] = rec.Frame
	}
	r := NewReplay(frames)
	r.session = session
	return r, nil
}

// NewReplay plays back frames in timestamp order.
func NewReplay(frames []monitor.Frame) *Replay {
	sorted := slices.Clone(frames)
	slices.SortStableFunc(sorted, func(a, b monitor.Frame) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		default:
			return 0
		}
	})
	return &Replay{frames: sorted}
}

// Frame returns the latest frame recorded at or before at, re-stamped with at.
func (r *Replay) Frame(_ context.Context, at float64) (monitor.Frame, error) {
	i := sort.Search(len(r.frames), func(i int) bool { return r.frames[i].Timestamp > at })
	if i == 0 {
		return monitor.Frame{}, ErrNoFrame
	}
	f := r.frames[i-1]
	f.Timestamp = at
	return f, nil
}

// Session names the replayed recording.
func (r *Replay) Session() string { return r.session }

// Len is the number of recorded frames.
func (r *Replay) Len() int { return len(r.frames) }

// Span returns the first and last recorded timestamps.
func (r *Replay) Span() (first, last float64, ok bool) {
	if len(r.frames) == 0 {
		return 0, 0, false
	}
	return r.frames[0].Timestamp, r.frames[len(r.frames)-1].Timestamp, true
}

var _ Source = (*Replay)(nil)
