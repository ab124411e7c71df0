package pricing

import (
	"fmt"
	"math"

	"github.com/ferredist/catalog-service/config"
)

// Schedule maps a supplier cost in bolivianos to a markup margin. Cheap
// items carry high margins and expensive items thin ones, so the tier
// margins must decrease as the cost bounds increase; a schedule that
// violates that would price a costlier item below a cheaper one.
type Schedule struct {
	tiers []config.MarginTier
}

// NewSchedule validates and builds a margin schedule from configured
// tiers. The last tier must be open-ended (no upper bound).
func NewSchedule(tiers []config.MarginTier) (*Schedule, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("margin schedule: at least one tier required")
	}

	for i, tier := range tiers {
		if tier.Margin < 0 {
			return nil, fmt.Errorf("margin schedule: tier %d has negative margin %.4f", i, tier.Margin)
		}
		if i == len(tiers)-1 {
			if tier.UpTo != nil {
				return nil, fmt.Errorf("margin schedule: last tier must be open-ended")
			}
			continue
		}
		if tier.UpTo == nil {
			return nil, fmt.Errorf("margin schedule: tier %d missing upper bound", i)
		}
		if *tier.UpTo <= 0 {
			return nil, fmt.Errorf("margin schedule: tier %d bound %.2f must be positive", i, *tier.UpTo)
		}
		if i > 0 && *tier.UpTo <= *tiers[i-1].UpTo {
			return nil, fmt.Errorf("margin schedule: tier bounds must increase, got %.2f after %.2f", *tier.UpTo, *tiers[i-1].UpTo)
		}
		if tiers[i+1].Margin >= tier.Margin {
			return nil, fmt.Errorf("margin schedule: margins must decrease across tiers, got %.4f after %.4f", tiers[i+1].Margin, tier.Margin)
		}
	}

	return &Schedule{tiers: tiers}, nil
}

// DefaultSchedule builds the schedule from the built-in tiers. Panics only
// on a programming error in the defaults.
func DefaultSchedule() *Schedule {
	s, err := NewSchedule(config.DefaultMarginTiers())
	if err != nil {
		panic(err)
	}
	return s
}

// MarginFor returns the margin fraction for a supplier cost in Bs.
func (s *Schedule) MarginFor(costBs float64) float64 {
	for _, tier := range s.tiers {
		if tier.UpTo == nil || costBs < *tier.UpTo {
			return tier.Margin
		}
	}
	// Unreachable with a validated schedule
	return s.tiers[len(s.tiers)-1].Margin
}

// Round2 rounds to centavos.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Round4 rounds to four decimals, used for stored margins and discounts.
func Round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
