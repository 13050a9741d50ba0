package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"vehicle-health-monitor/internal/app"
)

var runWatch bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runWatch && cfgFile == "" {
			return fmt.Errorf("--watch requires --config")
		}
		return getApp().Run(cmd.Context(), app.RunOptions{Watch: runWatch})
	},
}

func init() {
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Reload thresholds when the config file changes")
}
