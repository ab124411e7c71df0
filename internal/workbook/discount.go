package workbook

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/ferredist/catalog-service/internal/types"
)

// ResolveDiscount picks the supplier discount for a run. Precedence is
// operator override, then the workbook's discount cell, then the
// configured default. The override is normalized like any other discount
// value, but an override the normalizer rejects is still honored raw when
// it parses as a number at all; an operator-specified value must never be
// silently replaced by the sheet's. A non-numeric override cannot be
// honored; it is reported in the returned warning so the run result shows
// the operator's value was ignored, not just the server log.
func ResolveDiscount(f *excelize.File, layout *Layout, override string, defaultDiscount, maxDiscount float64) (float64, types.DiscountSource, string) {
	var warning string
	if override != "" {
		if d, ok := ParseDiscount(override, maxDiscount); ok {
			return d, types.DiscountSourceOverride, ""
		}
		if raw, ok := ParseNumber(override); ok && raw >= 0 {
			log.Warn().
				Str("override", override).
				Float64("applied", raw).
				Msg("Discount override outside normal range, applying as-is")
			return raw, types.DiscountSourceOverride, ""
		}
		warning = fmt.Sprintf("discount override %q is not a number and was ignored", override)
		log.Warn().Str("override", override).Msg("Unparsable discount override, falling back to sheet")
	}

	if f != nil && layout.OrderSheet != "" && layout.DiscountCell != "" {
		raw, err := f.GetCellValue(layout.OrderSheet, layout.DiscountCell)
		if err != nil {
			// A workbook without the order sheet is valid; the default covers it
			log.Debug().
				Err(err).
				Str("sheet", layout.OrderSheet).
				Str("cell", layout.DiscountCell).
				Msg("Discount cell unavailable")
		} else if d, ok := ParseDiscount(raw, maxDiscount); ok {
			return d, types.DiscountSourceSheet, warning
		} else if raw != "" {
			log.Warn().
				Str("value", raw).
				Str("cell", layout.DiscountCell).
				Msg("Discount cell outside valid range, using default")
		}
	}

	return defaultDiscount, types.DiscountSourceDefault, warning
}
