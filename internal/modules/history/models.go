package history

// StockSnapshot is one immutable capture of a symbol's derived scores.
// Rows are only ever inserted; a scan never updates a prior snapshot.
type StockSnapshot struct {
	ID                int64    `json:"id"`
	Symbol            string   `json:"symbol"`
	Market            string   `json:"market"`
	Date              string   `json:"date"`
	Price             float64  `json:"price"`
	ValueScore        *float64 `json:"value_score"`
	SentimentScore    *float64 `json:"sentiment_score"`
	MoneyFlowStrength *float64 `json:"money_flow_strength"`
	CreatedAt         string   `json:"created_at"`

	Combos []ComboRecord `json:"combos,omitempty"`
}

// ComboRecord is a persisted multi-leg detection tied to a snapshot
type ComboRecord struct {
	ID          int64   `json:"id"`
	SnapshotID  int64   `json:"snapshot_id"`
	ComboID     string  `json:"combo_id"`
	Strategy    string  `json:"strategy"`
	Notional    float64 `json:"notional"`
	RiskProfile string  `json:"risk_profile"`
	LegCount    int     `json:"leg_count"`
}
