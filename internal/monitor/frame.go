package monitor

import "math"

// Frame is one tick of raw vehicle bus signals.
type Frame struct {
	Timestamp float64 // seconds since session start

	SteeringAngle float64 // deg, negative = left
	LonAccel      float64 // m/s^2
	LatAccel      float64 // m/s^2
	YawRate       float64 // deg/s

	WheelFL float64 // km/h
	WheelFR float64
	WheelRL float64
	WheelRR float64

	Friction float64 // estimated road friction coefficient

	BrakeFluidLow     bool
	BrakePedal        bool
	MasterCylinderKPa float64
	WarnBrake         bool
	WarnABS           bool
	WarnPuncture      bool
}

// StabilityFeatures are the instantaneous values the stability rules read.
type StabilityFeatures struct {
	VehicleSpeed float64
	AbsSteering  float64
	AbsYaw       float64
	AbsLatG      float64
	MaxAxleDiff  float64
	Friction     float64
}

// DeriveStability computes stability features from a raw frame.
func DeriveStability(f Frame) StabilityFeatures {
	front := math.Abs(f.WheelFL - f.WheelFR)
	rear := math.Abs(f.WheelRL - f.WheelRR)
	return StabilityFeatures{
		VehicleSpeed: (f.WheelFL + f.WheelFR + f.WheelRL + f.WheelRR) / 4,
		AbsSteering:  math.Abs(f.SteeringAngle),
		AbsYaw:       math.Abs(f.YawRate),
		AbsLatG:      math.Abs(f.LatAccel),
		MaxAxleDiff:  math.Max(front, rear),
		Friction:     f.Friction,
	}
}

// BrakingStatus is the brake-system view of a frame.
type BrakingStatus struct {
	FluidLow          bool
	PedalPressed      bool
	MasterCylinderKPa float64
	WarnBrake         bool
	WarnABS           bool
	WarnPuncture      bool
}

// DeriveBraking extracts the braking status from a raw frame.
func DeriveBraking(f Frame) BrakingStatus {
	return BrakingStatus{
		FluidLow:          f.BrakeFluidLow,
		PedalPressed:      f.BrakePedal,
		MasterCylinderKPa: f.MasterCylinderKPa,
		WarnBrake:         f.WarnBrake,
		WarnABS:           f.WarnABS,
		WarnPuncture:      f.WarnPuncture,
	}
}
