package signal

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"vehicle-health-monitor/internal/monitor"
)

// Scenario names a phase of the simulated drive.
type Scenario string

// Drive phases.
const (
	ScenarioNormal      Scenario = "normal_driving"
	ScenarioFatigueLike Scenario = "fatigue_like_driving"
	ScenarioPostFatigue Scenario = "post_fatigue_driving"
)

type phase struct {
	start, end float64
	scenario   Scenario
}

var phases = []phase{
	{0, 50, ScenarioNormal},
	{50, 120, ScenarioFatigueLike},
	{120, math.Inf(1), ScenarioPostFatigue},
}

// ScenarioAt returns the drive phase active at t seconds.
func ScenarioAt(t float64) Scenario {
	for _, p := range phases {
		if t >= p.start && t < p.end {
			return p.scenario
		}
	}
	return ScenarioNormal
}

// spread is the symmetric noise amplitude of each signal per phase.
type spread struct {
	steering, lon, lat, yaw, wheel float64
}

var spreads = map[Scenario]spread{
	ScenarioNormal:      {steering: 2.0, lon: 0.5, lat: 0.3, yaw: 0.5, wheel: 1.0},
	ScenarioFatigueLike: {steering: 10.0, lon: 1.0, lat: 1.5, yaw: 2.0, wheel: 5.0},
	ScenarioPostFatigue: {steering: 5.0, lon: 0.7, lat: 0.8, yaw: 1.0, wheel: 1.5},
}

// SimulatedOptions parameterise the scenario generator.
type SimulatedOptions struct {
	// Seed makes runs reproducible. Zero picks a time-based seed.
	Seed         uint64
	BaseSpeedKmh float64
}

// Simulated generates scenario-driven frames with injected braking faults.
type Simulated struct {
	mu        sync.Mutex
	rng       *rand.Rand
	baseSpeed float64
}

// NewSimulated constructs a simulated bus.
func NewSimulated(opts SimulatedOptions) *Simulated {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	base := opts.BaseSpeedKmh
	if base <= 0 {
		base = 90
	}
	return &Simulated{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		baseSpeed: base,
	}
}

// Frame synthesises the frame at t seconds. It never fails.
func (s *Simulated) Frame(_ context.Context, t float64) (monitor.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := spreads[ScenarioAt(t)]
	f := monitor.Frame{
		Timestamp:     t,
		SteeringAngle: clamp(s.uniform(sp.steering), -45, 45),
		LonAccel:      clamp(s.uniform(sp.lon), -2, 2),
		LatAccel:      clamp(s.uniform(sp.lat), -1.5, 1.5),
		YawRate:       clamp(s.uniform(sp.yaw), -5, 5),
		WheelFL:       clamp(s.baseSpeed+s.uniform(sp.wheel), 0, 200),
		WheelFR:       clamp(s.baseSpeed+s.uniform(sp.wheel), 0, 200),
		WheelRL:       clamp(s.baseSpeed+s.uniform(sp.wheel), 0, 200),
		WheelRR:       clamp(s.baseSpeed+s.uniform(sp.wheel), 0, 200),
		Friction:      s.friction(t),
	}

	f.BrakeFluidLow = t > 70 && t < 150
	f.BrakePedal = pedalPressed(t)
	f.MasterCylinderKPa = s.masterCylinder(t, f.BrakePedal)
	f.WarnBrake = t > 70 && t < 170
	f.WarnABS = t > 100 && t < 170
	f.WarnPuncture = t > 80 && t < 100

	return f, nil
}

func (s *Simulated) friction(t float64) float64 {
	switch {
	case t < 60:
		return s.between(0.7, 0.9)
	case t < 110:
		return s.between(0.2, 0.4)
	default:
		return s.between(0.5, 0.7)
	}
}

func (s *Simulated) masterCylinder(t float64, pedal bool) float64 {
	switch {
	case t > 100 && t < 130:
		// pressure sensor stuck low regardless of pedal
		return s.between(50, 150)
	case pedal:
		return s.between(5000, 15000)
	default:
		return s.between(0, 50)
	}
}

// pedalPressed models short presses in every 10 s cycle.
func pedalPressed(t float64) bool {
	m := math.Mod(t, 10)
	return (m >= 2 && m < 4) || (m >= 7 && m < 8)
}

func (s *Simulated) uniform(amplitude float64) float64 {
	return s.between(-amplitude, amplitude)
}

func (s *Simulated) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

var _ Source = (*Simulated)(nil)
