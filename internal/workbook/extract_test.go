package workbook

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ferredist/catalog-service/internal/types"
)

// buildSupplierWorkbook creates an in-memory workbook shaped like the
// truper-v1 template: prices on "NUEVA LISTA DE PRECIOS" from row 13,
// discount in G6 of "HOJA PEDIDO".
func buildSupplierWorkbook(t *testing.T, discountCell string, rows [][]interface{}) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	layout := mustLayout(t, "truper-v1")

	idx, err := f.NewSheet(layout.PriceSheet)
	require.NoError(t, err)
	f.SetActiveSheet(idx)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	for i, row := range rows {
		rowNum := layout.StartRow + i
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(layout.CodeCol+j, rowNum)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(layout.PriceSheet, cell, val))
		}
	}

	if discountCell != "" {
		_, err := f.NewSheet(layout.OrderSheet)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(layout.OrderSheet, layout.DiscountCell, discountCell))
	}

	return f
}

func mustLayout(t *testing.T, name string) *Layout {
	t.Helper()
	layout, err := GetLayout(name)
	require.NoError(t, err)
	return layout
}

func TestExtractValidRows(t *testing.T) {
	f := buildSupplierWorkbook(t, "", [][]interface{}{
		// code, description, brand, package, then USD at offset 5, Bs at 6
		{"22090", "TALADRO 1/2", "TRUPER", "PZA", "", 100.0, 556.80},
		{"PR-10511", "MARTILLO UNA", "PRETUL", "PZA", "", 12.5, nil},
		{22090.0, "DUP FLOAT CODE", "TRUPER", "CAJA", "", nil, 90.0},
	})
	defer f.Close()

	ext := NewExtractor(mustLayout(t, "truper-v1"), 50)
	result, err := ext.Extract(f)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 3, result.ValidRows)
	require.Len(t, result.Rows, 3)

	first := result.Rows[0]
	assert.Equal(t, "22090", first.Code)
	assert.Equal(t, "TALADRO 1/2", first.Description)
	assert.Equal(t, "TRUPER", first.Brand)
	assert.Equal(t, "PZA", first.Package)
	require.NotNil(t, first.USDPrice)
	assert.InDelta(t, 100.0, *first.USDPrice, 0.001)
	require.NotNil(t, first.BsPrice)
	assert.InDelta(t, 556.80, *first.BsPrice, 0.001)
	assert.Equal(t, 13, first.RowNumber)

	assert.Equal(t, "10511", result.Rows[1].Code)
	assert.Nil(t, result.Rows[1].BsPrice)

	// Numeric cell serialized through the sheet still lands on the same key
	assert.Equal(t, "22090", result.Rows[2].Code)
	assert.Nil(t, result.Rows[2].USDPrice)
}

func TestExtractRejectsUnusableRows(t *testing.T) {
	f := buildSupplierWorkbook(t, "", [][]interface{}{
		{"22090", "OK ROW", "TRUPER", "PZA", "", 100.0, nil},
		{"SIN-CODIGO", "NO DIGITS IN CODE", "TRUPER", "PZA", "", 50.0, nil},
		{"10511", "NO PRICE AT ALL", "PRETUL", "PZA", "", nil, nil},
		{"", "SECTION HEADER PADDING", "", "", "", nil, nil},
	})
	defer f.Close()

	ext := NewExtractor(mustLayout(t, "truper-v1"), 50)
	result, err := ext.Extract(f)
	require.NoError(t, err)

	// Blank-code padding rows are not counted at all
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	require.Len(t, result.Errors, 2)

	assert.Equal(t, "code", *result.Errors[0].Field)
	assert.Equal(t, "SIN-CODIGO", *result.Errors[0].OriginalValue)
	assert.Equal(t, "price", *result.Errors[1].Field)
}

func TestExtractErrorCap(t *testing.T) {
	rows := make([][]interface{}, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, []interface{}{fmt.Sprintf("90%d", i), "NO PRICE", "X", "PZA", "", nil, nil})
	}
	f := buildSupplierWorkbook(t, "", rows)
	defer f.Close()

	ext := NewExtractor(mustLayout(t, "truper-v1"), 3)
	result, err := ext.Extract(f)
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalRows)
	assert.Equal(t, 0, result.ValidRows)
	assert.Len(t, result.Errors, 3)
}

func TestExtractMissingSheetFails(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	ext := NewExtractor(mustLayout(t, "truper-v1"), 50)
	_, err := ext.Extract(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NUEVA LISTA DE PRECIOS")
}

func TestResolveDiscountPrecedence(t *testing.T) {
	layout := mustLayout(t, "truper-v1")

	t.Run("Override wins over sheet", func(t *testing.T) {
		f := buildSupplierWorkbook(t, "15", nil)
		defer f.Close()

		d, src, warn := ResolveDiscount(f, layout, "25", 0.20, 0.95)
		assert.InDelta(t, 0.25, d, 0.0001)
		assert.Equal(t, types.DiscountSourceOverride, src)
		assert.Empty(t, warn)
	})

	t.Run("Sheet cell when no override", func(t *testing.T) {
		f := buildSupplierWorkbook(t, "15", nil)
		defer f.Close()

		d, src, warn := ResolveDiscount(f, layout, "", 0.20, 0.95)
		assert.InDelta(t, 0.15, d, 0.0001)
		assert.Equal(t, types.DiscountSourceSheet, src)
		assert.Empty(t, warn)
	})

	t.Run("Default when sheet cell out of range", func(t *testing.T) {
		f := buildSupplierWorkbook(t, "250", nil)
		defer f.Close()

		d, src, warn := ResolveDiscount(f, layout, "", 0.20, 0.95)
		assert.InDelta(t, 0.20, d, 0.0001)
		assert.Equal(t, types.DiscountSourceDefault, src)
		assert.Empty(t, warn)
	})

	t.Run("Default when order sheet missing", func(t *testing.T) {
		f := buildSupplierWorkbook(t, "", nil)
		defer f.Close()

		d, src, _ := ResolveDiscount(f, layout, "", 0.20, 0.95)
		assert.InDelta(t, 0.20, d, 0.0001)
		assert.Equal(t, types.DiscountSourceDefault, src)
	})

	t.Run("Out-of-range override still honored raw", func(t *testing.T) {
		d, src, warn := ResolveDiscount(nil, layout, "0.97", 0.20, 0.95)
		assert.InDelta(t, 0.97, d, 0.0001)
		assert.Equal(t, types.DiscountSourceOverride, src)
		assert.Empty(t, warn)
	})

	t.Run("Non-numeric override ignored with warning", func(t *testing.T) {
		f := buildSupplierWorkbook(t, "15", nil)
		defer f.Close()

		d, src, warn := ResolveDiscount(f, layout, "veinte", 0.20, 0.95)
		assert.InDelta(t, 0.15, d, 0.0001)
		assert.Equal(t, types.DiscountSourceSheet, src)
		assert.Contains(t, warn, `"veinte"`)

		d, src, warn = ResolveDiscount(nil, layout, "veinte", 0.20, 0.95)
		assert.InDelta(t, 0.20, d, 0.0001)
		assert.Equal(t, types.DiscountSourceDefault, src)
		assert.Contains(t, warn, "ignored")
	})
}
