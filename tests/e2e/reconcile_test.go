package e2e

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/xuri/excelize/v2"

	"github.com/ferredist/catalog-service/internal/catalog"
	"github.com/ferredist/catalog-service/internal/database"
	"github.com/ferredist/catalog-service/internal/pricing"
	"github.com/ferredist/catalog-service/internal/reconcile"
	"github.com/ferredist/catalog-service/internal/store"
	"github.com/ferredist/catalog-service/internal/types"
)

// TestE2EReconcilePostgres runs a full reconciliation against a real
// postgres instance: extract a supplier workbook, price it, merge it
// into the catalog store and check the persisted result.
func TestE2EReconcilePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp").
					WithStartupTimeout(60*time.Second),
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(1).
					WithStartupTimeout(60*time.Second),
			),
		),
	)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Connect(ctx, connStr, 10, 2, 0, 0))
	defer database.Close()
	require.NoError(t, database.EnsureSchema(ctx))

	catalogStore, err := store.NewPostgresStore(database.Pool())
	require.NoError(t, err)
	defer catalogStore.Close()
	runStore, err := reconcile.NewPgRunStore(database.Pool())
	require.NoError(t, err)

	engine, err := reconcile.NewEngine(catalogStore, runStore, pricing.DefaultSchedule(), reconcile.Options{
		Template:        "truper-v1",
		DefaultDiscount: 0.20,
		MaxDiscount:     0.95,
		ExchangeRate:    6.96,
		MaxRowErrors:    50,
	})
	require.NoError(t, err)

	file := writeSupplierWorkbook(t, t.TempDir())

	result, err := engine.Run(ctx, reconcile.Params{
		File:   file,
		Source: types.SourceCLI,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, types.DiscountSourceSheet, result.DiscountSource)

	// 100 USD at 6.96 with the 20% sheet discount costs 556.80, which
	// lands in the open-ended tier and prices at 668.16
	entry, err := catalogStore.Get(ctx, "22090")
	require.NoError(t, err)
	assert.InDelta(t, 556.80, entry.BsPriceProveedor, 1e-9)
	assert.InDelta(t, 668.16, entry.BsPriceWeb, 1e-9)
	assert.Equal(t, "TALADRO 1/2", entry.Description)

	// A curated edit survives a second reconciliation of the same file
	label := "OFERTA"
	_, err = catalogStore.UpdateCurated(ctx, "22090", catalog.CuratedUpdate{SaleLabel: &label}, time.Now().UTC())
	require.NoError(t, err)

	result, err = engine.Run(ctx, reconcile.Params{File: file, Source: types.SourceCLI})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 0, result.Created)

	entry, err = catalogStore.Get(ctx, "22090")
	require.NoError(t, err)
	require.NotNil(t, entry.SaleLabel)
	assert.Equal(t, "OFERTA", *entry.SaleLabel)

	// Both runs are recorded
	runs, err := runStore.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, types.StatusCompleted, runs[0].Status)

	run, err := runStore.Get(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.RowsRead)
	require.NotNil(t, run.CompletedAt)
}

func writeSupplierWorkbook(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("NUEVA LISTA DE PRECIOS")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	rows := [][]interface{}{
		{"22090", "TALADRO 1/2", "TRUPER", "PZA", "", 100.0, nil},
		{"PR-10511", "MARTILLO UNA", "PRETUL", "PZA", "", nil, 50.0},
	}
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(3+j, 13+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("NUEVA LISTA DE PRECIOS", cell, val))
		}
	}

	_, err = f.NewSheet("HOJA PEDIDO")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("HOJA PEDIDO", "G6", "20"))

	path := filepath.Join(dir, "lista-precios.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}
