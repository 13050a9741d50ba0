package severity

import "fmt"

// Cuts maps a composite score onto a Level using three ascending cut points.
type Cuts struct {
	bounds [3]int
}

// NewCuts validates that exactly three strictly ascending cut points are given.
func NewCuts(points []int) (Cuts, error) {
	if len(points) != 3 {
		return Cuts{}, fmt.Errorf("expected 3 cut points, got %d", len(points))
	}
	if points[0] >= points[1] || points[1] >= points[2] {
		return Cuts{}, fmt.Errorf("cut points must be strictly ascending: %v", points)
	}
	return Cuts{bounds: [3]int{points[0], points[1], points[2]}}, nil
}

// MustCuts is NewCuts for package-level defaults.
func MustCuts(points ...int) Cuts {
	c, err := NewCuts(points)
	if err != nil {
		panic(err)
	}
	return c
}

// Level classifies score: below the first cut is None, at or above the last
// is High.
func (c Cuts) Level(score int) Level {
	switch {
	case score >= c.bounds[2]:
		return High
	case score >= c.bounds[1]:
		return Moderate
	case score >= c.bounds[0]:
		return Low
	default:
		return None
	}
}

// Points returns the configured cut points.
func (c Cuts) Points() [3]int {
	return c.bounds
}
