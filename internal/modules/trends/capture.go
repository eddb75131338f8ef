package trends

import (
	"math"
	"sort"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/formulas"
)

// unknownSector buckets movers the enrichment step could not resolve
const unknownSector = "Unknown"

// BuildSectorStats groups one day's movers by sector. Each sector's
// avgChange is the arithmetic mean of its constituents' change percent,
// the leader is the constituent with the largest absolute move, and
// ranks 1..N are assigned by descending stock count. Ties break on
// higher avgChange, then sector name, so the permutation is stable for
// a given input set.
func BuildSectorStats(quotes []domain.Quote, date string) []SectorStat {
	groups := make(map[string][]domain.Quote)
	for _, q := range quotes {
		sector := q.Sector
		if sector == "" {
			sector = unknownSector
		}
		groups[sector] = append(groups[sector], q)
	}

	stats := make([]SectorStat, 0, len(groups))
	for sector, members := range groups {
		changes := make([]float64, len(members))
		var totalVolume int64
		leader := members[0]
		for i, m := range members {
			changes[i] = m.ChangePercent
			totalVolume += m.Volume
			if math.Abs(m.ChangePercent) > math.Abs(leader.ChangePercent) {
				leader = m
			}
		}

		stats = append(stats, SectorStat{
			Sector:       sector,
			Date:         date,
			StockCount:   len(members),
			AvgChange:    formulas.Round3(formulas.Mean(changes)),
			TotalVolume:  totalVolume,
			LeaderSymbol: leader.Symbol,
			LeaderChange: leader.ChangePercent,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].StockCount != stats[j].StockCount {
			return stats[i].StockCount > stats[j].StockCount
		}
		if stats[i].AvgChange != stats[j].AvgChange {
			return stats[i].AvgChange > stats[j].AvgChange
		}
		return stats[i].Sector < stats[j].Sector
	})

	for i := range stats {
		stats[i].Rank = i + 1
	}

	return stats
}

// marketAvgChange is the stock-count-weighted mean move across sectors
func marketAvgChange(stats []SectorStat) float64 {
	var weighted float64
	var count int
	for _, s := range stats {
		weighted += s.AvgChange * float64(s.StockCount)
		count += s.StockCount
	}
	if count == 0 {
		return 0
	}
	return weighted / float64(count)
}
