package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal interface",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	if err := ensureApp(context.Background()); err != nil {
		return err
	}
	if queryService == nil {
		return errNotConfigured
	}
	return tui.Run(queryService)
}
