package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index size and recent ingests",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "number of recent ingests to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	if err := ensureApp(ctx); err != nil {
		return err
	}

	if vectorIndex != nil {
		cmd.Printf("Indexed chunks: %d\n", vectorIndex.Count())
	}

	if docLedger == nil {
		return nil
	}
	records, err := docLedger.List(ctx, statusLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	cmd.Println("\nRecent ingests:")
	for _, rec := range records {
		line := fmt.Sprintf("  %s  %-8s  %s", rec.CreatedAt.Format("2006-01-02 15:04"), rec.Status, rec.File)
		if rec.Status == domain.IngestStatusIngested {
			line += fmt.Sprintf(" (%d chunks)", rec.NumChunks)
		} else if rec.Reason != "" {
			line += fmt.Sprintf(" (%s)", rec.Reason)
		}
		cmd.Println(line)
	}
	return nil
}
