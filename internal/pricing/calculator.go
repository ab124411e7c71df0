package pricing

import (
	"fmt"

	"github.com/ferredist/catalog-service/internal/types"
)

// Quote is the priced outcome for one catalog row.
type Quote struct {
	// USDPrice is the supplier's per-unit USD list price, when the row
	// carried one
	USDPrice *float64
	// CostBs is the net supplier cost in bolivianos after discount
	CostBs float64
	// Margin is the markup fraction applied on top of CostBs
	Margin float64
	// WebPriceBs is the storefront price in bolivianos
	WebPriceBs float64
}

// Calculator turns extracted rows into storefront prices. The USD column
// is authoritative when present; the Bs column is the fallback for rows
// the supplier prices only locally.
type Calculator struct {
	schedule *Schedule
	rate     float64
}

// NewCalculator creates a calculator with the given margin schedule and
// USD to Bs exchange rate.
func NewCalculator(schedule *Schedule, exchangeRate float64) (*Calculator, error) {
	if schedule == nil {
		return nil, fmt.Errorf("calculator: schedule is required")
	}
	if exchangeRate <= 0 {
		return nil, fmt.Errorf("calculator: exchange rate must be positive, got %.4f", exchangeRate)
	}
	return &Calculator{schedule: schedule, rate: exchangeRate}, nil
}

// Compute prices one row under the given supplier discount.
// bsIncludesDiscount tells the calculator whether the row's Bs column is
// already net of the discount (a template property, not a row property).
func (c *Calculator) Compute(row types.SpreadsheetRow, discount float64, bsIncludesDiscount bool) (*Quote, error) {
	var costBs float64

	switch {
	case row.USDPrice != nil:
		costBs = *row.USDPrice * c.rate * (1 - discount)
	case row.BsPrice != nil:
		costBs = *row.BsPrice
		if !bsIncludesDiscount {
			costBs *= 1 - discount
		}
	default:
		return nil, fmt.Errorf("row %d (%s): no price to compute from", row.RowNumber, row.Code)
	}

	if costBs < 0 {
		return nil, fmt.Errorf("row %d (%s): negative cost %.2f", row.RowNumber, row.Code, costBs)
	}

	margin := c.schedule.MarginFor(costBs)
	return &Quote{
		USDPrice:   row.USDPrice,
		CostBs:     Round2(costBs),
		Margin:     Round4(margin),
		WebPriceBs: Round2(costBs * (1 + margin)),
	}, nil
}
