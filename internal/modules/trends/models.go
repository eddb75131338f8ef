package trends

// SectorStat is one sector's aggregate for one capture date. Ranks
// within a date are a dense permutation 1..N; a capture run replaces the
// whole date partition.
type SectorStat struct {
	ID           int64   `json:"id,omitempty"`
	Sector       string  `json:"sector"`
	Date         string  `json:"date"`
	StockCount   int     `json:"stock_count"`
	AvgChange    float64 `json:"avg_change"`
	TotalVolume  int64   `json:"total_volume"`
	LeaderSymbol string  `json:"leader_symbol"`
	LeaderChange float64 `json:"leader_change"`
	Rank         int     `json:"rank"`
}

// EnhancedSectorStat layers history-derived signals over a SectorStat
type EnhancedSectorStat struct {
	SectorStat

	// Momentum is the z-score of today's avg change against the
	// sector's recent history
	Momentum float64 `json:"momentum"`

	// Streak counts consecutive capture days the sector moved the same
	// way; positive for up days, negative for down days
	Streak int `json:"streak"`

	// Divergence marks a sector moving against the broad-market average
	Divergence bool `json:"divergence"`
}

// MacroSummary aggregates the latest snapshot rows into a market view
type MacroSummary struct {
	Date         string  `json:"date"`
	SymbolCount  int     `json:"symbol_count"`
	Breadth      float64 `json:"breadth"`
	AvgSentiment float64 `json:"avg_sentiment"`
	AvgValue     float64 `json:"avg_value"`
	AvgMoneyFlow float64 `json:"avg_money_flow"`
}
