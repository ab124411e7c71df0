package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// CleanupConfig configures retention policies for cleanup jobs
type CleanupConfig struct {
	RunRetentionDays int
}

// DefaultCleanupConfig returns sensible retention defaults
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RunRetentionDays: 90,
	}
}

// CleanupOldRuns removes finished reconcile runs older than the retention
// window. Running runs are never touched here; the sweeper handles those.
func CleanupOldRuns(ctx context.Context, cfg CleanupConfig) (int, error) {
	pool := getPool()
	if pool == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	cutoff := time.Now().AddDate(0, 0, -cfg.RunRetentionDays)

	result, err := pool.Exec(ctx, `
		DELETE FROM reconcile_runs
		WHERE started_at < $1
		  AND status != 'running'
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old runs: %w", err)
	}

	deleted := int(result.RowsAffected())
	if deleted > 0 {
		log.Info().Int("deleted", deleted).Time("cutoff", cutoff).Msg("Cleaned up old reconcile runs")
	}
	return deleted, nil
}

// getPool returns the database connection pool
// This is a bridge to the database package to avoid circular dependencies
func getPool() *pgxpool.Pool {
	if dbPoolGetter == nil {
		return nil
	}
	return dbPoolGetter()
}

// dbPoolGetter is set by the database package initialization
var dbPoolGetter func() *pgxpool.Pool

// RegisterDBPoolGetter registers the database pool getter function
func RegisterDBPoolGetter(getter func() *pgxpool.Pool) {
	dbPoolGetter = getter
}
