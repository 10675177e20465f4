package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest PDF documents into the index",
	Long: `Extracts text from the given PDF files, splits it into overlapping
chunks, embeds them and adds them to the local vector index. Files
already ingested are re-ingested as new chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := ensureApp(ctx); err != nil {
		return err
	}
	if ingestService == nil {
		return errNotConfigured
	}

	report, err := ingestService.IngestFiles(ctx, args)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	ingested := 0
	for _, res := range report.Results {
		switch res.Status {
		case domain.IngestStatusIngested:
			ingested++
			cmd.Printf("  ✓ %s (%d chunks)\n", res.File, res.NumChunks)
		case domain.IngestStatusSkipped:
			cmd.Printf("  - %s: %s\n", res.File, res.Reason)
		case domain.IngestStatusFailed:
			cmd.Printf("  ✗ %s: %s\n", res.File, res.Reason)
		}
	}
	cmd.Printf("\nIngested %d of %d files.\n", ingested, report.TotalFiles)
	return nil
}
