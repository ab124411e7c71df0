package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferredist/catalog-service/internal/database"
	"github.com/ferredist/catalog-service/internal/jobs"
	"github.com/ferredist/catalog-service/internal/store"
)

var cleanupRetentionDays int

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old reconciliation run records",
	Long: `Delete finished reconciliation runs older than the retention window.
Intended to be run from cron in postgres mode; document mode purges
automatically and does not need this command.`,
	Example: `  catalog-service cleanup
  catalog-service cleanup --retention-days 30`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupRetentionDays, "retention-days", 0, "Retention window in days (default from config)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	catalogStore, _, mode, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer catalogStore.Close()
	if mode != store.ModePostgres {
		return fmt.Errorf("cleanup only applies to the postgres store")
	}
	defer database.Close()

	cleanupCfg := jobs.DefaultCleanupConfig()
	if cleanupRetentionDays > 0 {
		cleanupCfg.RunRetentionDays = cleanupRetentionDays
	} else if cfg != nil && cfg.Reconcile.RunRetentionDays > 0 {
		cleanupCfg.RunRetentionDays = cfg.Reconcile.RunRetentionDays
	}

	deleted, err := jobs.CleanupOldRuns(ctx, cleanupCfg)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d old reconciliation runs\n", deleted)
	return nil
}
