package value

import (
	"fmt"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/formulas"
)

// Analysis is the value score for one symbol. Score sums six category
// contributions of -0.5..+1 each and is clamped to [0,6]; categories with
// missing data contribute 0 and add a reason instead of failing.
type Analysis struct {
	Symbol     string             `json:"symbol"`
	Sector     string             `json:"sector"`
	Score      float64            `json:"score"`
	Categories map[string]float64 `json:"categories"`
	Reasons    []string           `json:"reasons,omitempty"`
}

// band is one category's scoring range. A metric at or past good earns
// the full point, at or past bad earns -0.5, and interpolates linearly
// in between. lowerBetter flips the comparison for ratios where small
// values are healthy.
type band struct {
	good, bad   float64
	lowerBetter bool

	// requirePositive treats non-positive values as the worst case.
	// Negative P/E means losses, not a bargain multiple.
	requirePositive bool
}

func (b band) score(v float64) float64 {
	if b.requirePositive && v <= 0 {
		return -0.5
	}
	if b.lowerBetter {
		switch {
		case v <= b.good:
			return 1
		case v >= b.bad:
			return -0.5
		default:
			return 1 - 1.5*(v-b.good)/(b.bad-b.good)
		}
	}
	switch {
	case v >= b.good:
		return 1
	case v <= b.bad:
		return -0.5
	default:
		return 1 - 1.5*(b.good-v)/(b.good-b.bad)
	}
}

// SectorThresholds holds the six category bands for one sector
type SectorThresholds struct {
	PE     band
	PB     band
	ROE    band
	Margin band
	Debt   band
	Growth band
}

// defaultThresholds is the fallback for sectors without a tuned entry
var defaultThresholds = SectorThresholds{
	PE:     band{good: 15, bad: 40, lowerBetter: true, requirePositive: true},
	PB:     band{good: 1.5, bad: 6, lowerBetter: true, requirePositive: true},
	ROE:    band{good: 0.15, bad: 0.02},
	Margin: band{good: 0.15, bad: 0.02},
	Debt:   band{good: 50, bad: 200, lowerBetter: true},
	Growth: band{good: 0.10, bad: -0.05},
}

// sectorThresholds tunes the bands per sector. Financials run leveraged
// balance sheets so their debt band is far looser; high-growth sectors
// trade at multiples that would look broken against the defaults.
var sectorThresholds = map[string]SectorThresholds{
	"Technology": {
		PE:     band{good: 25, bad: 60, lowerBetter: true, requirePositive: true},
		PB:     band{good: 4, bad: 15, lowerBetter: true, requirePositive: true},
		ROE:    band{good: 0.20, bad: 0.05},
		Margin: band{good: 0.20, bad: 0.05},
		Debt:   band{good: 50, bad: 200, lowerBetter: true},
		Growth: band{good: 0.15, bad: 0},
	},
	"Financial Services": {
		PE:     band{good: 12, bad: 25, lowerBetter: true, requirePositive: true},
		PB:     band{good: 1.2, bad: 3, lowerBetter: true, requirePositive: true},
		ROE:    band{good: 0.12, bad: 0.04},
		Margin: band{good: 0.20, bad: 0.05},
		Debt:   band{good: 150, bad: 500, lowerBetter: true},
		Growth: band{good: 0.06, bad: -0.05},
	},
	"Utilities": {
		PE:     band{good: 18, bad: 30, lowerBetter: true, requirePositive: true},
		PB:     band{good: 1.8, bad: 4, lowerBetter: true, requirePositive: true},
		ROE:    band{good: 0.10, bad: 0.03},
		Margin: band{good: 0.12, bad: 0.03},
		Debt:   band{good: 120, bad: 300, lowerBetter: true},
		Growth: band{good: 0.03, bad: -0.03},
	},
	"Energy": {
		PE:     band{good: 12, bad: 30, lowerBetter: true, requirePositive: true},
		PB:     band{good: 1.5, bad: 4, lowerBetter: true, requirePositive: true},
		ROE:    band{good: 0.12, bad: 0.02},
		Margin: band{good: 0.10, bad: 0.01},
		Debt:   band{good: 60, bad: 250, lowerBetter: true},
		Growth: band{good: 0.05, bad: -0.10},
	},
	"Consumer Defensive": {
		PE:     band{good: 18, bad: 35, lowerBetter: true, requirePositive: true},
		PB:     band{good: 3, bad: 8, lowerBetter: true, requirePositive: true},
		ROE:    band{good: 0.15, bad: 0.05},
		Margin: band{good: 0.08, bad: 0.02},
		Debt:   band{good: 80, bad: 250, lowerBetter: true},
		Growth: band{good: 0.05, bad: -0.03},
	},
}

// ThresholdsForSector returns the tuned bands for a sector, falling back
// to the defaults when the sector is unknown or empty
func ThresholdsForSector(sector string) SectorThresholds {
	if th, ok := sectorThresholds[sector]; ok {
		return th
	}
	return defaultThresholds
}

// Analyze scores the symbol's fundamentals against its sector's bands
func Analyze(f *domain.Fundamentals) Analysis {
	th := ThresholdsForSector(f.Sector)

	out := Analysis{
		Symbol:     f.Symbol,
		Sector:     f.Sector,
		Categories: make(map[string]float64, 6),
	}

	categories := []struct {
		name  string
		value *float64
		band  band
	}{
		{"pb", f.PriceToBook, th.PB},
		{"pe", f.PERatio, th.PE},
		{"roe", f.ROE, th.ROE},
		{"margin", f.ProfitMargin, th.Margin},
		{"debt", f.DebtToEquity, th.Debt},
		{"growth", f.RevenueGrowth, th.Growth},
	}

	total := 0.0
	for _, cat := range categories {
		if cat.value == nil {
			out.Categories[cat.name] = 0
			out.Reasons = append(out.Reasons, fmt.Sprintf("%s unavailable", cat.name))
			continue
		}
		points := formulas.Round3(cat.band.score(*cat.value))
		out.Categories[cat.name] = points
		total += points
	}

	out.Score = formulas.Round3(formulas.Clamp(total, 0, 6))
	return out
}
