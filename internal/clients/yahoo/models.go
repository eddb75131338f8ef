package yahoo

import (
	"math"
	"time"

	"github.com/aristath/market-pulse/internal/domain"
)

// quoteResponse is the envelope of the v7 quote API
type quoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// chartResponse is the envelope of the v8 chart API
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// optionsResponse is the envelope of the v7 options API
type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				ExpirationDate int64         `json:"expirationDate"`
				Calls          []rawContract `json:"calls"`
				Puts           []rawContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"optionChain"`
}

// rawContract is a single row from the options API
type rawContract struct {
	Strike            float64 `json:"strike"`
	Expiration        int64   `json:"expiration"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	LastPrice         float64 `json:"lastPrice"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	LastTradeDate     int64   `json:"lastTradeDate"`
}

// toContract converts a raw API row into a domain contract. Rows with
// non-finite or impossible numeric fields are dropped rather than
// propagated into the pipeline.
func (r rawContract) toContract(symbol string, typ domain.OptionType) (domain.OptionContract, bool) {
	for _, v := range []float64{r.Strike, r.Bid, r.Ask, r.LastPrice, r.ImpliedVolatility} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.OptionContract{}, false
		}
	}
	if r.Strike <= 0 || r.Expiration <= 0 {
		return domain.OptionContract{}, false
	}

	return domain.OptionContract{
		Symbol:            symbol,
		Type:              typ,
		Strike:            r.Strike,
		Expiry:            time.Unix(r.Expiration, 0).UTC(),
		Bid:               r.Bid,
		Ask:               r.Ask,
		Last:              r.LastPrice,
		Volume:            r.Volume,
		OpenInterest:      r.OpenInterest,
		ImpliedVolatility: r.ImpliedVolatility,
		LastTradeDate:     time.Unix(r.LastTradeDate, 0).UTC(),
	}, true
}

// getFloat64 safely extracts a float from a loosely typed quote map
func getFloat64(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		}
	}
	return nil
}

func getFloat64OrZero(m map[string]interface{}, key string) float64 {
	if val := getFloat64(m, key); val != nil {
		return *val
	}
	return 0
}

func getInt64OrZero(m map[string]interface{}, key string) int64 {
	if val := getFloat64(m, key); val != nil {
		return int64(*val)
	}
	return 0
}

func getString(m map[string]interface{}, key string, defaultVal string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}
