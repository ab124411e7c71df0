package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// The service owns two tables. catalog_entries is the keyed catalog store;
// reconcile_runs is the run audit trail. Both are created on startup when
// the postgres store is configured, so a fresh database needs no manual
// migration step.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS catalog_entries (
		code                 TEXT PRIMARY KEY,
		description          TEXT NOT NULL DEFAULT '',
		brand                TEXT NOT NULL DEFAULT '',
		co                   TEXT NOT NULL DEFAULT '',
		location             TEXT NOT NULL DEFAULT '',
		warehouse            TEXT NOT NULL DEFAULT '',
		package              TEXT NOT NULL DEFAULT '',
		usd_price_unit       DOUBLE PRECISION,
		bs_price_proveedor   DOUBLE PRECISION NOT NULL DEFAULT 0,
		bs_price_web         DOUBLE PRECISION NOT NULL DEFAULT 0,
		margen               DOUBLE PRECISION NOT NULL DEFAULT 0,
		proveedor_descuento  DOUBLE PRECISION NOT NULL DEFAULT 0,
		sale_label           TEXT,
		box_qty              INTEGER,
		has_promo            BOOLEAN NOT NULL DEFAULT FALSE,
		promo_label          TEXT,
		promo_price          DOUBLE PRECISION,
		estrella_score       INTEGER,
		hidden               BOOLEAN NOT NULL DEFAULT FALSE,
		featured             BOOLEAN NOT NULL DEFAULT FALSE,
		orden                INTEGER,
		image                TEXT,
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS reconcile_runs (
		id             TEXT PRIMARY KEY,
		status         TEXT NOT NULL,
		source         TEXT NOT NULL,
		workbook_file  TEXT NOT NULL DEFAULT '',
		template       TEXT NOT NULL DEFAULT '',
		discount       DOUBLE PRECISION NOT NULL DEFAULT 0,
		discount_source TEXT NOT NULL DEFAULT '',
		rows_read      INTEGER NOT NULL DEFAULT 0,
		rows_rejected  INTEGER NOT NULL DEFAULT 0,
		updated_count  INTEGER NOT NULL DEFAULT 0,
		created_count  INTEGER NOT NULL DEFAULT 0,
		missing_count  INTEGER NOT NULL DEFAULT 0,
		error_message  TEXT,
		detail         JSONB,
		started_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reconcile_runs_started_at
		ON reconcile_runs (started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reconcile_runs_status
		ON reconcile_runs (status)`,
}

// EnsureSchema creates the service tables when missing.
func EnsureSchema(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return fmt.Errorf("database not initialized")
	}

	for _, stmt := range schemaStatements {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	log.Debug().Msg("Database schema ensured")
	return nil
}
