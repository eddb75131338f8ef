package options

import (
	"time"

	"github.com/aristath/market-pulse/internal/domain"
)

// Direction classifies a contract's implied position
type Direction string

const (
	DirectionBuy     Direction = "buy"
	DirectionSell    Direction = "sell"
	DirectionNeutral Direction = "neutral"
)

// TraderType is a size-based classification of who likely placed the trade
type TraderType string

const (
	TraderRetail        TraderType = "retail"
	TraderMixed         TraderType = "mixed"
	TraderInstitutional TraderType = "institutional"
)

// SpotConfirmation records how a signal relates to the symbol's money flow
type SpotConfirmation string

const (
	ConfirmationNone        SpotConfirmation = ""
	ConfirmationConfirms    SpotConfirmation = "confirms"
	ConfirmationContradicts SpotConfirmation = "contradicts"
)

// Signal is a contract that survived filtering, plus every derived field
// the rest of the pipeline computes. Signals are created once per scan and
// never mutated after aggregation.
type Signal struct {
	Symbol string            `json:"symbol"`
	Type   domain.OptionType `json:"type"`
	Strike float64           `json:"strike"`
	Expiry time.Time         `json:"expiry"`

	Bid               float64   `json:"bid"`
	Ask               float64   `json:"ask"`
	Last              float64   `json:"last"`
	Mid               float64   `json:"mid"`
	SpreadPct         float64   `json:"spread_pct"`
	Volume            int64     `json:"volume"`
	OpenInterest      int64     `json:"open_interest"`
	ImpliedVolatility float64   `json:"implied_volatility"`
	TradeTime         time.Time `json:"trade_time"`

	Notional     float64 `json:"notional"`
	Moneyness    float64 `json:"moneyness"`
	DaysToExpiry float64 `json:"days_to_expiry"`

	Direction           Direction  `json:"direction"`
	DirectionConfidence float64    `json:"direction_confidence"`
	PosScore            float64    `json:"pos_score"`
	TraderType          TraderType `json:"trader_type"`

	// InBand marks membership in the primary OTM band. Out-of-band
	// contracts are still combo candidates.
	InBand bool `json:"in_band"`

	HedgeScore       float64          `json:"hedge_score"`
	HedgeTags        []string         `json:"hedge_tags,omitempty"`
	ComboID          string           `json:"combo_id,omitempty"`
	ComboType        string           `json:"combo_type,omitempty"`
	IsComboHedge     bool             `json:"is_combo_hedge"`
	SpotConfirmation SpotConfirmation `json:"spot_confirmation,omitempty"`
	SignalQuality    string           `json:"signal_quality"`
}

// IsBullish reports whether the signal implies upside exposure
func (s *Signal) IsBullish() bool {
	return (s.Type == domain.OptionCall && s.Direction == DirectionBuy) ||
		(s.Type == domain.OptionPut && s.Direction == DirectionSell)
}

// IsBearish reports whether the signal implies downside exposure
func (s *Signal) IsBearish() bool {
	return (s.Type == domain.OptionPut && s.Direction == DirectionBuy) ||
		(s.Type == domain.OptionCall && s.Direction == DirectionSell)
}

// Combo is a detected multi-leg strategy. Legs index into the candidate
// slice the detector ran over.
type Combo struct {
	ID          string  `json:"id"`
	Strategy    string  `json:"strategy"`
	Label       string  `json:"label"`
	Notional    float64 `json:"notional"`
	RiskProfile string  `json:"risk_profile"`
	Legs        []int   `json:"legs"`
}

// ScanResult is the full output of one symbol scan
type ScanResult struct {
	ScanID            string            `json:"scan_id"`
	Symbol            string            `json:"symbol"`
	Price             float64           `json:"price"`
	MarketCap         float64           `json:"market_cap"`
	MarketState       string            `json:"market_state"`
	Signals           []*Signal         `json:"signals"`
	Combos            []Combo           `json:"combos"`
	Sentiment         SentimentSummary  `json:"sentiment"`
	Extended          ExtendedSentiment `json:"extended_sentiment"`
	MoneyFlowStrength float64           `json:"money_flow_strength"`
	GeneratedAt       time.Time         `json:"generated_at"`
}
