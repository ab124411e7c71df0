package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ferredist/catalog-service/internal/types"
)

// PgRunStore keeps run records in the reconcile_runs table. Bulky per-run
// detail (missing codes, row errors) goes into a JSONB column.
type PgRunStore struct {
	pool *pgxpool.Pool
}

// NewPgRunStore wraps an initialized connection pool.
func NewPgRunStore(pool *pgxpool.Pool) (*PgRunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("run store: pool is required")
	}
	return &PgRunStore{pool: pool}, nil
}

func (s *PgRunStore) Create(ctx context.Context, run *types.RunRecord) error {
	detail, err := marshalDetail(run.Detail)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reconcile_runs (
			id, status, source, workbook_file, template,
			discount, discount_source, rows_read, rows_rejected,
			updated_count, created_count, missing_count,
			error_message, detail, started_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		run.ID, run.Status, run.Source, run.WorkbookFile, run.Template,
		run.Discount, run.DiscountSource, run.RowsRead, run.RowsRejected,
		run.Updated, run.Created, run.Missing,
		run.ErrorMessage, detail, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("run store: insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PgRunStore) Finish(ctx context.Context, run *types.RunRecord) error {
	detail, err := marshalDetail(run.Detail)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE reconcile_runs SET
			status = $2, discount = $3, discount_source = $4,
			rows_read = $5, rows_rejected = $6,
			updated_count = $7, created_count = $8, missing_count = $9,
			error_message = $10, detail = $11, completed_at = $12
		WHERE id = $1
	`,
		run.ID, run.Status, run.Discount, run.DiscountSource,
		run.RowsRead, run.RowsRejected,
		run.Updated, run.Created, run.Missing,
		run.ErrorMessage, detail, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("run store: finish run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `
	id, status, source, workbook_file, template,
	discount, discount_source, rows_read, rows_rejected,
	updated_count, created_count, missing_count,
	error_message, detail, started_at, completed_at`

func scanRun(row pgx.Row) (*types.RunRecord, error) {
	var r types.RunRecord
	var detail []byte
	err := row.Scan(
		&r.ID, &r.Status, &r.Source, &r.WorkbookFile, &r.Template,
		&r.Discount, &r.DiscountSource, &r.RowsRead, &r.RowsRejected,
		&r.Updated, &r.Created, &r.Missing,
		&r.ErrorMessage, &detail, &r.StartedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(detail) > 0 {
		var d types.RunDetail
		if err := json.Unmarshal(detail, &d); err != nil {
			return nil, fmt.Errorf("run store: parse detail for %s: %w", r.ID, err)
		}
		r.Detail = &d
	}
	return &r, nil
}

func (s *PgRunStore) Get(ctx context.Context, id string) (*types.RunRecord, error) {
	r, err := scanRun(s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM reconcile_runs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("run store: get run %s: %w", id, err)
	}
	return r, nil
}

func (s *PgRunStore) List(ctx context.Context, limit int) ([]*types.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM reconcile_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("run store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("run store: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run store: list runs: %w", err)
	}
	return runs, nil
}

func (s *PgRunStore) SweepStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, `
		UPDATE reconcile_runs
		SET status = $1,
		    error_message = 'run interrupted: no completion recorded',
		    completed_at = NOW()
		WHERE status = $2
		  AND started_at < $3
	`, types.StatusInterrupted, types.StatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("run store: sweep stale runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PgRunStore) Purge(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM reconcile_runs
		WHERE status != $1
		  AND started_at < $2
	`, types.StatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("run store: purge runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func marshalDetail(d *types.RunDetail) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("run store: marshal detail: %w", err)
	}
	return b, nil
}
