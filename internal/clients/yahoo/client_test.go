package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/market-pulse/internal/domain"
)

const quoteBody = `{"quoteResponse":{"result":[{
	"symbol":"AAPL",
	"shortName":"Apple Inc.",
	"regularMarketPrice":100.0,
	"regularMarketChangePercent":1.5,
	"regularMarketVolume":1000000,
	"marketCap":3000000000000,
	"marketState":"REGULAR",
	"trailingPE":28.5,
	"priceToBook":45.0
}],"error":null}}`

const optionsBody = `{"optionChain":{"result":[{
	"expirationDates":[1751241600,1753833600],
	"options":[{
		"expirationDate":1751241600,
		"calls":[
			{"strike":105,"expiration":1751241600,"bid":2.0,"ask":2.4,"lastPrice":2.35,
			 "volume":2000,"openInterest":500,"impliedVolatility":0.35,"lastTradeDate":1751200000},
			{"strike":0,"expiration":1751241600,"bid":1,"ask":1.2,"lastPrice":1.1,
			 "volume":10,"openInterest":5,"impliedVolatility":0.3,"lastTradeDate":1751200000}
		],
		"puts":[
			{"strike":95,"expiration":1751241600,"bid":1.5,"ask":1.7,"lastPrice":1.6,
			 "volume":800,"openInterest":300,"impliedVolatility":0.4,"lastTradeDate":1751200000}
		]
	}]
}],"error":null}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, testLogger())
	c.retry.Delay = 0
	return c
}

func TestFetchQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v7/finance/quote")
		w.Write([]byte(quoteBody))
	})

	quote, err := c.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 100.0, quote.Price)
	assert.Equal(t, domain.MarketStateRegular, quote.MarketState)
	assert.Equal(t, 3e12, quote.MarketCap)
}

func TestFetchQuoteRetriesServerErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(quoteBody))
	})

	_, err := c.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFetchQuoteDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.FetchQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFetchOptionsChain(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v7/finance/options/AAPL")
		w.Write([]byte(optionsBody))
	})

	contracts, err := c.FetchOptionsChain(context.Background(), "AAPL", 1)
	require.NoError(t, err)

	// Zero-strike row is dropped
	require.Len(t, contracts, 2)

	call := contracts[0]
	assert.Equal(t, domain.OptionCall, call.Type)
	assert.Equal(t, 105.0, call.Strike)
	assert.Equal(t, int64(2000), call.Volume)
	assert.Equal(t, int64(500), call.OpenInterest)

	put := contracts[1]
	assert.Equal(t, domain.OptionPut, put.Type)
	assert.Equal(t, 95.0, put.Strike)
}

func TestFetchFundamentalsMissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteBody))
	})

	f, err := c.FetchFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NotNil(t, f.PERatio)
	assert.Equal(t, 28.5, *f.PERatio)
	assert.Nil(t, f.ROE, "absent field should be nil, not zero")
	assert.Nil(t, f.RevenueGrowth)
}
