package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Bands are three strictly ascending bounds that turn a statistic into a
// contribution of 0..3. Banding is inclusive-below: a statistic equal to a
// bound falls into the lower band.
type Bands struct {
	bounds [3]float64
}

// NewBands validates and builds a band set.
func NewBands(bounds []float64) (Bands, error) {
	if len(bounds) != 3 {
		return Bands{}, fmt.Errorf("expected 3 band bounds, got %d", len(bounds))
	}
	for _, b := range bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return Bands{}, fmt.Errorf("band bound must be finite: %v", bounds)
		}
	}
	if bounds[0] >= bounds[1] || bounds[1] >= bounds[2] {
		return Bands{}, fmt.Errorf("band bounds must be strictly ascending: %v", bounds)
	}
	return Bands{bounds: [3]float64{bounds[0], bounds[1], bounds[2]}}, nil
}

// MustBands is NewBands for package-level defaults.
func MustBands(bounds ...float64) Bands {
	b, err := NewBands(bounds)
	if err != nil {
		panic(err)
	}
	return b
}

// Contribution maps stat to its band index.
func (b Bands) Contribution(stat float64) int {
	return sort.SearchFloat64s(b.bounds[:], stat)
}

// Bounds returns the configured bounds.
func (b Bands) Bounds() [3]float64 {
	return b.bounds
}
