package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"vehicle-health-monitor/internal/app"
)

var (
	showSession string
	showLimit   int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List recorded sessions or the frames of one session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Session: showSession,
			Limit:   showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showSession, "session", "", "Session whose frames to display")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of rows to display")
}
