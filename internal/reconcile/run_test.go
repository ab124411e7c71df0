package reconcile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ferredist/catalog-service/internal/pricing"
	"github.com/ferredist/catalog-service/internal/store"
	"github.com/ferredist/catalog-service/internal/types"
)

func defaultOptions() Options {
	return Options{
		Template:        "truper-v1",
		DefaultDiscount: 0.20,
		MaxDiscount:     0.95,
		ExchangeRate:    6.96,
		MaxRowErrors:    50,
	}
}

// writeSupplierFile writes a truper-v1 shaped workbook to disk and
// returns its path.
func writeSupplierFile(t *testing.T, dir string, discountCell string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("NUEVA LISTA DE PRECIOS")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(3+j, 13+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("NUEVA LISTA DE PRECIOS", cell, val))
		}
	}
	if discountCell != "" {
		_, err := f.NewSheet("HOJA PEDIDO")
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("HOJA PEDIDO", "G6", discountCell))
	}

	path := filepath.Join(dir, "proveedor.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newTestEngine(t *testing.T, dir string) (*Engine, *store.DocumentStore) {
	t.Helper()

	docStore, err := store.NewDocumentStore(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)
	runStore, err := NewFileRunStore(filepath.Join(dir, "runs.json"))
	require.NoError(t, err)

	engine, err := NewEngine(docStore, runStore, pricing.DefaultSchedule(), defaultOptions())
	require.NoError(t, err)
	return engine, docStore
}

func TestEngineRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	engine, docStore := newTestEngine(t, dir)
	ctx := context.Background()

	file := writeSupplierFile(t, dir, "20", [][]interface{}{
		{"22090", "TALADRO 1/2", "TRUPER", "PZA", "", 100.0, nil},
		{"10511", "MARTILLO UNA", "PRETUL", "PZA", "", nil, 50.0},
		{"SIN-CODIGO", "BASURA", "", "", "", 1.0, nil},
	})

	result, err := engine.Run(ctx, Params{File: file, Source: types.SourceAPI})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.RowsRead)
	assert.Equal(t, 1, result.RowsRejected)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.InDelta(t, 0.20, result.Discount, 0.0001)
	assert.Equal(t, types.DiscountSourceSheet, result.DiscountSource)
	require.Len(t, result.RowErrors, 1)

	entries, err := docStore.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// 100 USD at 20% discount and 6.96 rate: 556.80 cost, 20% margin
	taladro := entries["22090"]
	require.NotNil(t, taladro)
	assert.InDelta(t, 556.80, taladro.BsPriceProveedor, 0.001)
	assert.InDelta(t, 668.16, taladro.BsPriceWeb, 0.001)
	assert.InDelta(t, 0.20, taladro.Margen, 0.0001)

	// Bs-priced row under the truper-v1 convention (already discounted)
	martillo := entries["10511"]
	require.NotNil(t, martillo)
	assert.InDelta(t, 50.0, martillo.BsPriceProveedor, 0.001)
	assert.InDelta(t, 0.35, martillo.Margen, 0.0001)

	// Run is recorded as completed with detail
	record, err := engine.Runs().Get(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, record.Status)
	assert.Equal(t, types.SourceAPI, record.Source)
	assert.Equal(t, 2, record.Created)
	require.NotNil(t, record.Detail)
	assert.Len(t, record.Detail.RowErrors, 1)
	require.NotNil(t, record.CompletedAt)
}

func TestEngineSecondRunUpdatesAndReportsMissing(t *testing.T) {
	dir := t.TempDir()
	engine, docStore := newTestEngine(t, dir)
	ctx := context.Background()

	first := writeSupplierFile(t, dir, "", [][]interface{}{
		{"22090", "TALADRO", "TRUPER", "PZA", "", 100.0, nil},
		{"10511", "MARTILLO", "PRETUL", "PZA", "", 10.0, nil},
	})
	_, err := engine.Run(ctx, Params{File: first, Source: types.SourceCLI})
	require.NoError(t, err)

	// Next month's list drops 10511 and reprices 22090
	secondDir := t.TempDir()
	second := writeSupplierFile(t, secondDir, "", [][]interface{}{
		{"22090", "TALADRO", "TRUPER", "PZA", "", 110.0, nil},
	})
	result, err := engine.Run(ctx, Params{File: second, Source: types.SourceCLI})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Missing)
	assert.Equal(t, []string{"10511"}, result.MissingCodes)
	assert.Equal(t, types.DiscountSourceDefault, result.DiscountSource)

	entries, err := docStore.Load(ctx)
	require.NoError(t, err)
	// Missing code is reported, not deleted
	require.Len(t, entries, 2)
	assert.InDelta(t, 110*6.96*0.8, entries["22090"].BsPriceProveedor, 0.01)
}

func TestEngineFailsWithoutUsableRows(t *testing.T) {
	dir := t.TempDir()
	engine, _ := newTestEngine(t, dir)
	ctx := context.Background()

	file := writeSupplierFile(t, dir, "", [][]interface{}{
		{"SIN-CODIGO", "BASURA", "", "", "", nil, nil},
	})

	_, err := engine.Run(ctx, Params{File: file, Source: types.SourceAPI})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable rows")

	// The failed run is still recorded
	runs, err := engine.Runs().List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, types.StatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].ErrorMessage)
}

func TestEngineUnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	engine, _ := newTestEngine(t, dir)

	_, err := engine.Run(context.Background(), Params{
		File:     filepath.Join(dir, "x.xlsx"),
		Template: "no-such-template",
		Source:   types.SourceAPI,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layout")
}

func TestFileRunStoreSweepAndPurge(t *testing.T) {
	dir := t.TempDir()
	rs, err := NewFileRunStore(filepath.Join(dir, "runs.json"))
	require.NoError(t, err)
	ctx := context.Background()

	old := &types.RunRecord{
		ID:        "run_old",
		Status:    types.StatusRunning,
		Source:    types.SourceAPI,
		StartedAt: time.Now().Add(-2 * time.Hour),
	}
	fresh := &types.RunRecord{
		ID:        "run_fresh",
		Status:    types.StatusRunning,
		Source:    types.SourceAPI,
		StartedAt: time.Now(),
	}
	ancient := &types.RunRecord{
		ID:        "run_ancient",
		Status:    types.StatusCompleted,
		Source:    types.SourceCLI,
		StartedAt: time.Now().AddDate(0, 0, -120),
	}
	require.NoError(t, rs.Create(ctx, old))
	require.NoError(t, rs.Create(ctx, fresh))
	require.NoError(t, rs.Create(ctx, ancient))

	swept, err := rs.SweepStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	sweptRun, err := rs.Get(ctx, "run_old")
	require.NoError(t, err)
	assert.Equal(t, types.StatusInterrupted, sweptRun.Status)

	stillRunning, err := rs.Get(ctx, "run_fresh")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRunning, stillRunning.Status)

	purged, err := rs.Purge(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = rs.Get(ctx, "run_ancient")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
