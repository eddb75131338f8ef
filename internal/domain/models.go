package domain

import "time"

// MarketState represents the current trading session of an exchange
type MarketState string

const (
	MarketStateRegular MarketState = "REGULAR"
	MarketStatePre     MarketState = "PRE"
	MarketStatePost    MarketState = "POST"
	MarketStateClosed  MarketState = "CLOSED"
)

// OptionType distinguishes calls from puts
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// Quote represents a point-in-time stock quote
type Quote struct {
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	Price         float64     `json:"price"`
	ChangePercent float64     `json:"change_percent"`
	Volume        int64       `json:"volume"`
	MarketCap     float64     `json:"market_cap"`
	MarketState   MarketState `json:"market_state"`
	Sector        string      `json:"sector"`
}

// OptionContract is a raw contract row from an options chain, before any
// filtering or derived-field computation. Contracts live only for the
// duration of a single scan.
type OptionContract struct {
	Symbol            string     `json:"symbol"`
	Type              OptionType `json:"type"`
	Strike            float64    `json:"strike"`
	Expiry            time.Time  `json:"expiry"`
	Bid               float64    `json:"bid"`
	Ask               float64    `json:"ask"`
	Last              float64    `json:"last"`
	Volume            int64      `json:"volume"`
	OpenInterest      int64      `json:"open_interest"`
	ImpliedVolatility float64    `json:"implied_volatility"`
	LastTradeDate     time.Time  `json:"last_trade_date"`
}

// HistoricalPrice represents a single day of OHLCV data
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}

// Fundamentals holds the ratio data consumed by the value analyzer.
// Pointers distinguish "missing" from zero: a missing metric contributes
// nothing to the score rather than failing the computation.
type Fundamentals struct {
	Symbol        string   `json:"symbol"`
	Sector        string   `json:"sector"`
	PERatio       *float64 `json:"pe_ratio"`
	PriceToBook   *float64 `json:"price_to_book"`
	ROE           *float64 `json:"roe"`
	ProfitMargin  *float64 `json:"profit_margin"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	RevenueGrowth *float64 `json:"revenue_growth"`
	MarketCap     float64  `json:"market_cap"`
}

// NewsItem is a single headline from the news provider
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}
