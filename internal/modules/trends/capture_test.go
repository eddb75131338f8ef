package trends

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/market-pulse/internal/domain"
)

func TestBuildSectorStatsFiftyMovers(t *testing.T) {
	// 50 movers across 5 sectors with uneven counts
	counts := map[string]int{
		"Technology":         18,
		"Energy":             12,
		"Healthcare":         9,
		"Financial Services": 7,
		"Utilities":          4,
	}

	var quotes []domain.Quote
	for sector, n := range counts {
		for i := 0; i < n; i++ {
			quotes = append(quotes, domain.Quote{
				Symbol:        fmt.Sprintf("%s%d", sector[:2], i),
				Sector:        sector,
				ChangePercent: float64(i) - 2, // mix of gainers and losers
				Volume:        1000,
			})
		}
	}

	stats := BuildSectorStats(quotes, "2025-06-02")
	require.Len(t, stats, 5)

	// Dense rank permutation 1..5 by descending stock count
	for i, s := range stats {
		assert.Equal(t, i+1, s.Rank)
	}
	assert.Equal(t, "Technology", stats[0].Sector)
	assert.Equal(t, 18, stats[0].StockCount)
	assert.Equal(t, "Utilities", stats[4].Sector)

	// avgChange is the arithmetic mean of constituents: changes are
	// 0-2 .. n-1-2 so the mean is (n-1)/2 - 2
	for _, s := range stats {
		n := float64(counts[s.Sector])
		assert.InDelta(t, (n-1)/2-2, s.AvgChange, 1e-9, s.Sector)
		assert.Equal(t, int64(1000*counts[s.Sector]), s.TotalVolume)
	}
}

func TestBuildSectorStatsLeader(t *testing.T) {
	quotes := []domain.Quote{
		{Symbol: "AAA", Sector: "Energy", ChangePercent: 2.0},
		{Symbol: "BBB", Sector: "Energy", ChangePercent: -7.5},
		{Symbol: "CCC", Sector: "Energy", ChangePercent: 4.0},
	}

	stats := BuildSectorStats(quotes, "2025-06-02")
	require.Len(t, stats, 1)
	assert.Equal(t, "BBB", stats[0].LeaderSymbol, "leader is the largest absolute move")
	assert.Equal(t, -7.5, stats[0].LeaderChange)
}

func TestBuildSectorStatsTieBreak(t *testing.T) {
	quotes := []domain.Quote{
		{Symbol: "AAA", Sector: "Energy", ChangePercent: 1.0},
		{Symbol: "BBB", Sector: "Utilities", ChangePercent: 3.0},
	}

	stats := BuildSectorStats(quotes, "2025-06-02")
	require.Len(t, stats, 2)
	assert.Equal(t, "Utilities", stats[0].Sector, "equal counts rank by avg change")
	assert.Equal(t, 1, stats[0].Rank)
	assert.Equal(t, 2, stats[1].Rank)
}

func TestBuildSectorStatsUnknownSector(t *testing.T) {
	quotes := []domain.Quote{
		{Symbol: "AAA", ChangePercent: 1.0},
	}

	stats := BuildSectorStats(quotes, "2025-06-02")
	require.Len(t, stats, 1)
	assert.Equal(t, unknownSector, stats[0].Sector)
}

func TestBuildSectorStatsEmpty(t *testing.T) {
	assert.Empty(t, BuildSectorStats(nil, "2025-06-02"))
}
