package window

import (
	"gonum.org/v1/gonum/stat"
)

// Sample is a single timestamped observation of one signal.
type Sample struct {
	Value     float64
	Timestamp float64
}

// Window is a time-bounded trailing buffer of samples for one signal.
//
// Eviction is lazy and only happens on Insert. Window is not safe for
// concurrent use; each monitored signal owns exactly one.
type Window struct {
	duration float64
	samples  []Sample
	values   []float64
}

// New creates an empty window retaining samples at most duration seconds
// older than the latest one.
func New(duration float64) *Window {
	return &Window{duration: duration}
}

// Duration reports the nominal window length in seconds.
func (w *Window) Duration() float64 {
	return w.duration
}

// Insert appends a sample and evicts expired samples from the oldest end.
// Timestamps are expected to be non-decreasing.
func (w *Window) Insert(value, timestamp float64) {
	w.samples = append(w.samples, Sample{Value: value, Timestamp: timestamp})

	expired := 0
	for expired < len(w.samples) && timestamp-w.samples[expired].Timestamp > w.duration {
		expired++
	}
	if expired > 0 {
		// Reslicing keeps eviction O(1); append reallocates with only the
		// live tail once capacity runs out.
		w.samples = w.samples[expired:]
	}
}

// StdDev returns the unbiased (n-1) standard deviation of the retained
// values, or 0 when fewer than two samples are held.
func (w *Window) StdDev() float64 {
	if len(w.samples) < 2 {
		return 0
	}
	w.values = w.values[:0]
	for _, s := range w.samples {
		w.values = append(w.values, s.Value)
	}
	return stat.StdDev(w.values, nil)
}

// Count is the number of retained samples.
func (w *Window) Count() int {
	return len(w.samples)
}

// Latest returns the most recently inserted sample.
func (w *Window) Latest() (Sample, bool) {
	if len(w.samples) == 0 {
		return Sample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

// Samples returns a copy of the retained samples, oldest first.
func (w *Window) Samples() []Sample {
	out := make([]Sample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Resize changes the window length and evicts anything now outside it,
// measured from the latest sample.
func (w *Window) Resize(duration float64) {
	w.duration = duration
	latest, ok := w.Latest()
	if !ok {
		return
	}
	expired := 0
	for expired < len(w.samples) && latest.Timestamp-w.samples[expired].Timestamp > w.duration {
		expired++
	}
	w.samples = w.samples[expired:]
}

// Reset drops every retained sample.
func (w *Window) Reset() {
	w.samples = nil
	w.values = w.values[:0]
}
