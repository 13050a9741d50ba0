package scoring

import "fmt"

// Class names a signal class whose statistic feeds one contribution.
type Class string

// Signal classes used by the driver alertness monitor.
const (
	SteeringAngle Class = "steering_angle"
	LonAccel      Class = "lon_accel"
	LatAccel      Class = "lat_accel"
	YawRate       Class = "yaw_rate"
)

// ClassBands pairs a class with its calibrated bounds.
type ClassBands struct {
	Class Class
	Bands Bands
}

// Aggregator keeps the latest contribution of each signal class and sums
// them into a composite score.
type Aggregator struct {
	classes       []ClassBands
	index         map[Class]int
	contributions []int
}

// NewAggregator builds an aggregator over the given classes. Class order is
// kept for reporting only; it does not affect the total.
func NewAggregator(classes []ClassBands) (*Aggregator, error) {
	index := make(map[Class]int, len(classes))
	for i, cb := range classes {
		if _, dup := index[cb.Class]; dup {
			return nil, fmt.Errorf("duplicate signal class %q", cb.Class)
		}
		index[cb.Class] = i
	}
	owned := make([]ClassBands, len(classes))
	copy(owned, classes)
	return &Aggregator{
		classes:       owned,
		index:         index,
		contributions: make([]int, len(classes)),
	}, nil
}

// Update recomputes the contribution of one class from stat. It reports
// false for a class the aggregator was not built with.
func (a *Aggregator) Update(class Class, stat float64) (int, bool) {
	i, ok := a.index[class]
	if !ok {
		return 0, false
	}
	c := a.classes[i].Bands.Contribution(stat)
	a.contributions[i] = c
	return c, true
}

// Contribution returns the last contribution set for class.
func (a *Aggregator) Contribution(class Class) int {
	i, ok := a.index[class]
	if !ok {
		return 0
	}
	return a.contributions[i]
}

// Contributions returns a snapshot of every class contribution.
func (a *Aggregator) Contributions() map[Class]int {
	out := make(map[Class]int, len(a.classes))
	for i, cb := range a.classes {
		out[cb.Class] = a.contributions[i]
	}
	return out
}

// Classes lists the classes in construction order.
func (a *Aggregator) Classes() []Class {
	out := make([]Class, len(a.classes))
	for i, cb := range a.classes {
		out[i] = cb.Class
	}
	return out
}

// Total is the sum of the current contributions.
func (a *Aggregator) Total() int {
	total := 0
	for _, c := range a.contributions {
		total += c
	}
	return total
}

// Reset zeroes every contribution. Only used on an explicit session restart.
func (a *Aggregator) Reset() {
	for i := range a.contributions {
		a.contributions[i] = 0
	}
}

// WithBands returns a new aggregator using the given bounds while carrying
// over the current contributions of classes present in both.
func (a *Aggregator) WithBands(classes []ClassBands) (*Aggregator, error) {
	next, err := NewAggregator(classes)
	if err != nil {
		return nil, err
	}
	for i, cb := range next.classes {
		next.contributions[i] = a.Contribution(cb.Class)
	}
	return next, nil
}
