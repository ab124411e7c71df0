package workbook

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/ferredist/catalog-service/internal/types"
)

// Extractor walks a supplier price sheet and produces normalized rows
// according to a template layout. The sheet is consumed in a single
// streaming pass; supplier catalogs run to 5,000-10,000 rows and loading
// them wholesale is wasteful in a long-lived server process.
type Extractor struct {
	layout    *Layout
	maxErrors int
}

// NewExtractor creates an extractor for the given layout. maxErrors caps
// how many rejected rows are reported in detail; zero means report all.
func NewExtractor(layout *Layout, maxErrors int) *Extractor {
	return &Extractor{layout: layout, maxErrors: maxErrors}
}

// OpenWorkbook opens a workbook file. Callers that also need the discount
// cell hold the handle across both reads and close it themselves.
func OpenWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return f, nil
}

// ExtractFile opens a workbook file, extracts its rows and releases the
// handle before returning.
func (e *Extractor) ExtractFile(path string) (*types.ExtractResult, error) {
	f, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("file", path).Msg("Failed to close workbook")
		}
	}()
	return e.Extract(f)
}

// Extract scans the layout's price sheet. A missing sheet is a
// configuration error and aborts; per-row problems are collected into the
// result and never abort the scan.
func (e *Extractor) Extract(f *excelize.File) (*types.ExtractResult, error) {
	sheetIdx, err := f.GetSheetIndex(e.layout.PriceSheet)
	if err != nil || sheetIdx < 0 {
		return nil, fmt.Errorf("price sheet %q not found in workbook", e.layout.PriceSheet)
	}

	rows, err := f.Rows(e.layout.PriceSheet)
	if err != nil {
		return nil, fmt.Errorf("iterate sheet %q: %w", e.layout.PriceSheet, err)
	}
	defer rows.Close()

	result := &types.ExtractResult{
		Rows: make([]types.SpreadsheetRow, 0, 256),
	}

	rowNum := 0
	for rows.Next() {
		rowNum++
		cells, err := rows.Columns()
		if err != nil {
			e.addError(result, types.RowError{
				RowNumber: rowNum,
				Message:   fmt.Sprintf("read row: %v", err),
			})
			continue
		}
		if rowNum < e.layout.StartRow {
			continue
		}
		e.extractRow(result, rowNum, cells)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("row iteration on sheet %q: %w", e.layout.PriceSheet, err)
	}

	log.Debug().
		Str("sheet", e.layout.PriceSheet).
		Int("total", result.TotalRows).
		Int("valid", result.ValidRows).
		Int("rejected", result.TotalRows-result.ValidRows).
		Msg("Extracted price sheet")

	return result, nil
}

// extractRow maps one raw row through the layout's column table. Rows with
// no usable code or no usable price are rejected, not fatal.
func (e *Extractor) extractRow(result *types.ExtractResult, rowNum int, cells []string) {
	rawCode := cellAt(cells, e.layout.CodeCol)
	if rawCode == "" {
		// Blank code rows are padding between sections, not data errors
		return
	}
	result.TotalRows++

	code, ok := NormalizeCode(rawCode, e.layout.DigitsOnlyCodes)
	if !ok {
		e.addError(result, types.RowError{
			RowNumber:     rowNum,
			Field:         types.StringPtr("code"),
			Message:       "unusable product code",
			OriginalValue: types.StringPtr(rawCode),
		})
		return
	}

	row := types.SpreadsheetRow{
		Code:        code,
		Description: cellAt(cells, e.layout.DescriptionCol),
		Brand:       cellAt(cells, e.layout.BrandCol),
		Co:          cellAt(cells, e.layout.CoCol),
		Location:    cellAt(cells, e.layout.LocationCol),
		Warehouse:   cellAt(cells, e.layout.WarehouseCol),
		Package:     cellAt(cells, e.layout.PackageCol),
		RowNumber:   rowNum,
	}

	if raw := cellAt(cells, e.layout.USDPriceCol); raw != "" {
		if usd, ok := ParseNumber(raw); ok && usd >= 0 {
			row.USDPrice = &usd
		} else {
			result.Warnings = append(result.Warnings, types.RowWarning{
				RowNumber: rowNum,
				Message:   fmt.Sprintf("unparsable USD price %q", raw),
			})
		}
	}
	if raw := cellAt(cells, e.layout.BsPriceCol); raw != "" {
		if bs, ok := ParseNumber(raw); ok && bs >= 0 {
			row.BsPrice = &bs
		} else {
			result.Warnings = append(result.Warnings, types.RowWarning{
				RowNumber: rowNum,
				Message:   fmt.Sprintf("unparsable Bs price %q", raw),
			})
		}
	}

	if !row.HasPrice() {
		e.addError(result, types.RowError{
			RowNumber: rowNum,
			Field:     types.StringPtr("price"),
			Message:   "no usable price in row",
		})
		return
	}

	result.Rows = append(result.Rows, row)
	result.ValidRows++
}

func (e *Extractor) addError(result *types.ExtractResult, rowErr types.RowError) {
	if e.maxErrors <= 0 || len(result.Errors) < e.maxErrors {
		result.Errors = append(result.Errors, rowErr)
	}
}

// cellAt returns the trimmed cell at a 1-based column index, or "" when
// the column is unset or the row is short.
func cellAt(cells []string, col int) string {
	if col < 1 || col > len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col-1])
}
