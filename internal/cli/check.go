package cli

import (
	"github.com/spf13/cobra"

	"vehicle-health-monitor/internal/monitor"
)

var (
	stabilityFeatures monitor.StabilityFeatures
	brakingStatus     monitor.BrakingStatus
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one monitor's rules against given values",
}

var checkStabilityCmd = &cobra.Command{
	Use:   "stability",
	Short: "Classify a single stability snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := getApp().CheckStability(stabilityFeatures)
		return err
	},
}

var checkBrakingCmd = &cobra.Command{
	Use:   "braking",
	Short: "Classify a single braking status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := getApp().CheckBraking(brakingStatus)
		return err
	},
}

func init() {
	f := checkStabilityCmd.Flags()
	f.Float64Var(&stabilityFeatures.VehicleSpeed, "speed", 0, "Vehicle speed (km/h)")
	f.Float64Var(&stabilityFeatures.AbsYaw, "yaw", 0, "Absolute yaw rate (deg/s)")
	f.Float64Var(&stabilityFeatures.AbsSteering, "steering", 0, "Absolute steering angle (deg)")
	f.Float64Var(&stabilityFeatures.AbsLatG, "lat-g", 0, "Absolute lateral acceleration (G)")
	f.Float64Var(&stabilityFeatures.MaxAxleDiff, "axle-diff", 0, "Largest same-axle wheel speed difference (km/h)")
	f.Float64Var(&stabilityFeatures.Friction, "myu", 1, "Estimated road friction coefficient")

	b := checkBrakingCmd.Flags()
	b.BoolVar(&brakingStatus.FluidLow, "fluid-low", false, "Brake fluid level low")
	b.BoolVar(&brakingStatus.PedalPressed, "pedal", false, "Brake pedal pressed")
	b.Float64Var(&brakingStatus.MasterCylinderKPa, "pressure", 0, "Master cylinder pressure (kPa)")
	b.BoolVar(&brakingStatus.WarnBrake, "warn-brake", false, "Brake warning light on")
	b.BoolVar(&brakingStatus.WarnABS, "warn-abs", false, "ABS warning light on")
	b.BoolVar(&brakingStatus.WarnPuncture, "warn-puncture", false, "Puncture warning on")

	checkCmd.AddCommand(checkStabilityCmd)
	checkCmd.AddCommand(checkBrakingCmd)
}
