package cli

import (
	"github.com/spf13/cobra"

	"vehicle-health-monitor/internal/app"
)

var (
	recordSession string
	recordReplace bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Simulate a drive and store its frames for replay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Record(cmd.Context(), app.RecordOptions{
			Session: recordSession,
			Replace: recordReplace,
		})
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordSession, "session", "", "Session name to record under")
	recordCmd.Flags().BoolVar(&recordReplace, "replace", false, "Delete an existing session with the same name first")
	_ = recordCmd.MarkFlagRequired("session")
}
