// Package cli implements the quarry command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/adapters/driven/config/file"
	"github.com/quarrylabs/quarry/internal/app"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose bool
	flagConfig  string
)

// Services the commands run against. Tests inject fakes here; normal
// runs wire them lazily from configuration via ensureApp.
var (
	ingestService driving.IngestService
	queryService  driving.QueryService
	docLedger     driven.DocumentLedger
	vectorIndex   driven.VectorIndex

	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Local retrieval pipeline over your PDF documents",
	Long: `Quarry ingests PDF documents into a local vector index and answers
questions about them using retrieval-augmented generation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.quarry/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	defer closeApp()
	return rootCmd.Execute()
}

// SetServices injects services directly, bypassing configuration.
func SetServices(ingest driving.IngestService, query driving.QueryService,
	ledger driven.DocumentLedger, index driven.VectorIndex) {
	ingestService = ingest
	queryService = query
	docLedger = ledger
	vectorIndex = index
}

// ensureApp wires the application from configuration on first use.
func ensureApp(ctx context.Context) error {
	if ingestService != nil || queryService != nil {
		return nil
	}

	cfg, err := file.Load(flagConfig)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	application = a
	ingestService = a.Ingest
	queryService = a.Query
	docLedger = a.Ledger
	vectorIndex = a.Index
	return nil
}

func closeApp() {
	if application != nil {
		if err := application.Close(); err != nil {
			logger.Warn("closing application: %v", err)
		}
		application = nil
	}
}

var errNotConfigured = errors.New("service not configured")
