package catalog

import (
	"sort"
	"time"

	"github.com/ferredist/catalog-service/internal/pricing"
	"github.com/ferredist/catalog-service/internal/types"
)

// PricedRow pairs an extracted supplier row with its computed prices.
type PricedRow struct {
	Row   types.SpreadsheetRow
	Quote pricing.Quote
}

// MergeStats summarizes what one merge did to the catalog.
type MergeStats struct {
	Updated      int
	Created      int
	Missing      int
	CreatedCodes []string
	MissingCodes []string
}

// Merge folds priced supplier rows into the catalog map in place.
//
// Existing entries get their pricing overwritten unconditionally and their
// metadata filled only where currently empty; curated fields are never
// touched. Codes present in the catalog but absent from the supplier sheet
// are reported as missing, never deleted: a code dropping off one price
// list does not mean the shop stopped selling it. Running the same merge
// twice produces the same catalog.
func Merge(entries map[string]*Entry, rows []PricedRow, discount float64, now time.Time) MergeStats {
	stats := MergeStats{}
	seen := make(map[string]bool, len(rows))

	for _, pr := range rows {
		code := pr.Row.Code
		if seen[code] {
			// Duplicate code in the sheet: the later row wins the price,
			// the count stays honest
			applyPricing(entries[code], pr, discount, now)
			continue
		}
		seen[code] = true

		if e, ok := entries[code]; ok {
			applyPricing(e, pr, discount, now)
			fillMetadata(e, pr.Row)
			fillDisplayDefaults(e)
			stats.Updated++
			continue
		}

		e := newEntry(code)
		fillMetadata(e, pr.Row)
		applyPricing(e, pr, discount, now)
		entries[code] = e
		stats.Created++
		stats.CreatedCodes = append(stats.CreatedCodes, code)
	}

	for code := range entries {
		if !seen[code] {
			stats.Missing++
			stats.MissingCodes = append(stats.MissingCodes, code)
		}
	}

	sort.Strings(stats.CreatedCodes)
	sort.Strings(stats.MissingCodes)
	return stats
}

// newEntry builds a catalog entry with the storefront defaults a product
// carries until an operator curates it.
func newEntry(code string) *Entry {
	e := &Entry{Code: code}
	fillDisplayDefaults(e)
	return e
}

// fillDisplayDefaults populates sale_label, box_qty and estrella_score only
// where currently absent. Catalogs seeded from an external document can carry
// entries with these null; values an operator set stay untouched.
func fillDisplayDefaults(e *Entry) {
	if e.SaleLabel == nil {
		e.SaleLabel = types.StringPtr("NUEVO")
	}
	if e.BoxQty == nil {
		e.BoxQty = types.IntPtr(1)
	}
	if e.EstrellaScore == nil {
		e.EstrellaScore = types.IntPtr(0)
	}
}

func applyPricing(e *Entry, pr PricedRow, discount float64, now time.Time) {
	e.USDPriceUnit = pr.Quote.USDPrice
	e.BsPriceProveedor = pr.Quote.CostBs
	e.BsPriceWeb = pr.Quote.WebPriceBs
	e.Margen = pr.Quote.Margin
	e.ProveedorDescuento = discount
	e.UpdatedAt = now
}

// fillMetadata copies descriptive fields from the sheet into empty slots
// only. Operators fix typos in descriptions directly in the catalog and a
// later run must not undo that.
func fillMetadata(e *Entry, row types.SpreadsheetRow) {
	if e.Description == "" {
		e.Description = row.Description
	}
	if e.Brand == "" {
		e.Brand = row.Brand
	}
	if e.Co == "" {
		e.Co = row.Co
	}
	if e.Location == "" {
		e.Location = row.Location
	}
	if e.Warehouse == "" {
		e.Warehouse = row.Warehouse
	}
	if e.Package == "" {
		e.Package = row.Package
	}
}
