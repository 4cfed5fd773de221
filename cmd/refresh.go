package cmd

import (
	"context"
	"fmt"

	"country-cache/core/config"
	"country-cache/core/database"
	"country-cache/core/logger"
	"country-cache/core/storage"
	"country-cache/feature/countries"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// refreshCmd runs one refresh cycle from the command line without starting
// the HTTP server.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle against the upstream feeds",
	Long: `Fetch the country directory and exchange-rate feeds, reconcile them into
the local cache, and commit the run as a single transaction.

Examples:
  # Refresh the local cache once
  country-cache refresh`,
	RunE: runRefresh,
}

func init() {
	RootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var snapshots storage.Client
	if cfg.Storage.Enabled {
		snapshots, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	feature := countries.NewFeature(db, snapshots, cfg.Storage.Bucket, l, cfg.Countries)
	if err := feature.Service().Store().Migrate(); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	l.Info("Starting refresh")
	processed, err := feature.Service().Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	l.Info("Refresh finished", zap.Int("processed", processed))
	return nil
}
