package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/ferredist/catalog-service/internal/catalog"
)

// PostgresStore keeps the catalog as one row per product code. Commits run
// in a single transaction so readers never observe a partially
// reconciled catalog.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an initialized connection pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres store: pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

const entryColumns = `
	code, description, brand, co, location, warehouse, package,
	usd_price_unit, bs_price_proveedor, bs_price_web, margen, proveedor_descuento,
	sale_label, box_qty, has_promo, promo_label, promo_price,
	estrella_score, hidden, featured, orden, image, updated_at`

func scanEntry(row pgx.Row) (*catalog.Entry, error) {
	var e catalog.Entry
	err := row.Scan(
		&e.Code, &e.Description, &e.Brand, &e.Co, &e.Location, &e.Warehouse, &e.Package,
		&e.USDPriceUnit, &e.BsPriceProveedor, &e.BsPriceWeb, &e.Margen, &e.ProveedorDescuento,
		&e.SaleLabel, &e.BoxQty, &e.HasPromo, &e.PromoLabel, &e.PromoPrice,
		&e.EstrellaScore, &e.Hidden, &e.Featured, &e.Orden, &e.Image, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Load reads the full catalog.
func (s *PostgresStore) Load(ctx context.Context) (map[string]*catalog.Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+entryColumns+` FROM catalog_entries`)
	if err != nil {
		return nil, fmt.Errorf("postgres store: load catalog: %w", err)
	}
	defer rows.Close()

	entries := map[string]*catalog.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres store: scan entry: %w", err)
		}
		entries[e.Code] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres store: load catalog: %w", err)
	}
	return entries, nil
}

// Commit upserts every entry inside one transaction. Codes absent from
// the map are left alone; the merge never deletes.
func (s *PostgresStore) Commit(ctx context.Context, entries map[string]*catalog.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres store: begin commit: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if err := upsertEntry(ctx, tx, e); err != nil {
			return fmt.Errorf("postgres store: upsert %s: %w", e.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres store: commit: %w", err)
	}

	log.Debug().Int("entries", len(entries)).Msg("Catalog committed to postgres")
	return nil
}

func upsertEntry(ctx context.Context, tx pgx.Tx, e *catalog.Entry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO catalog_entries (
			code, description, brand, co, location, warehouse, package,
			usd_price_unit, bs_price_proveedor, bs_price_web, margen, proveedor_descuento,
			sale_label, box_qty, has_promo, promo_label, promo_price,
			estrella_score, hidden, featured, orden, image, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23
		)
		ON CONFLICT (code) DO UPDATE SET
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			co = EXCLUDED.co,
			location = EXCLUDED.location,
			warehouse = EXCLUDED.warehouse,
			package = EXCLUDED.package,
			usd_price_unit = EXCLUDED.usd_price_unit,
			bs_price_proveedor = EXCLUDED.bs_price_proveedor,
			bs_price_web = EXCLUDED.bs_price_web,
			margen = EXCLUDED.margen,
			proveedor_descuento = EXCLUDED.proveedor_descuento,
			sale_label = EXCLUDED.sale_label,
			box_qty = EXCLUDED.box_qty,
			has_promo = EXCLUDED.has_promo,
			promo_label = EXCLUDED.promo_label,
			promo_price = EXCLUDED.promo_price,
			estrella_score = EXCLUDED.estrella_score,
			hidden = EXCLUDED.hidden,
			featured = EXCLUDED.featured,
			orden = EXCLUDED.orden,
			image = EXCLUDED.image,
			updated_at = EXCLUDED.updated_at
	`,
		e.Code, e.Description, e.Brand, e.Co, e.Location, e.Warehouse, e.Package,
		e.USDPriceUnit, e.BsPriceProveedor, e.BsPriceWeb, e.Margen, e.ProveedorDescuento,
		e.SaleLabel, e.BoxQty, e.HasPromo, e.PromoLabel, e.PromoPrice,
		e.EstrellaScore, e.Hidden, e.Featured, e.Orden, e.Image, e.UpdatedAt,
	)
	return err
}

// Get returns one entry or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, code string) (*catalog.Entry, error) {
	e, err := scanEntry(s.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM catalog_entries WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: get %s: %w", code, err)
	}
	return e, nil
}

// UpdateCurated applies an operator edit under a row lock.
func (s *PostgresStore) UpdateCurated(ctx context.Context, code string, update catalog.CuratedUpdate, now time.Time) (*catalog.Entry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres store: begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	e, err := scanEntry(tx.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM catalog_entries WHERE code = $1 FOR UPDATE`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: lock %s: %w", code, err)
	}

	e.ApplyCurated(update, now)
	if err := upsertEntry(ctx, tx, e); err != nil {
		return nil, fmt.Errorf("postgres store: update %s: %w", code, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres store: commit update: %w", err)
	}
	return e, nil
}

// Close is a no-op; the pool is owned by the database package.
func (s *PostgresStore) Close() error { return nil }
