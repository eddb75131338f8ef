package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/reliability"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client is a Yahoo Finance API client
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	retry   reliability.Policy
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		// Yahoo throttles aggressively; stay well under their limits
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		retry:   reliability.DefaultPolicy(),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// FetchQuote returns the current quote for a symbol
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	var info map[string]interface{}

	err := reliability.Do(ctx, c.retry, func() error {
		var err error
		info, err = c.getQuoteInfo(ctx, symbol)
		return err
	})
	if err != nil {
		return nil, err
	}

	price := getFloat64OrZero(info, "regularMarketPrice")
	if price <= 0 {
		return nil, fmt.Errorf("no valid price for symbol %s", symbol)
	}

	return &domain.Quote{
		Symbol:        symbol,
		Name:          getString(info, "shortName", symbol),
		Price:         price,
		ChangePercent: getFloat64OrZero(info, "regularMarketChangePercent"),
		Volume:        getInt64OrZero(info, "regularMarketVolume"),
		MarketCap:     getFloat64OrZero(info, "marketCap"),
		MarketState:   parseMarketState(getString(info, "marketState", "CLOSED")),
		Sector:        getString(info, "sector", ""),
	}, nil
}

// FetchFundamentals returns fundamental ratios for the value analyzer.
// Missing fields come back as nil pointers; the analyzer treats those as
// unavailable categories.
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) (*domain.Fundamentals, error) {
	var info map[string]interface{}

	err := reliability.Do(ctx, c.retry, func() error {
		var err error
		info, err = c.getQuoteInfo(ctx, symbol)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.Fundamentals{
		Symbol:        symbol,
		Sector:        getString(info, "sector", ""),
		PERatio:       getFloat64(info, "trailingPE"),
		PriceToBook:   getFloat64(info, "priceToBook"),
		ROE:           getFloat64(info, "returnOnEquity"),
		ProfitMargin:  getFloat64(info, "profitMargins"),
		DebtToEquity:  getFloat64(info, "debtToEquity"),
		RevenueGrowth: getFloat64(info, "revenueGrowth"),
		MarketCap:     getFloat64OrZero(info, "marketCap"),
	}, nil
}

// FetchOptionsChain returns raw contracts for up to maxExpirations expiry
// dates, nearest first. Contracts with unparseable fields are skipped.
func (c *Client) FetchOptionsChain(ctx context.Context, symbol string, maxExpirations int) ([]domain.OptionContract, error) {
	if maxExpirations < 1 {
		maxExpirations = 1
	}

	first, err := c.fetchChainPage(ctx, symbol, 0)
	if err != nil {
		return nil, err
	}

	contracts := first.contracts
	expirations := first.expirations
	if len(expirations) > maxExpirations {
		expirations = expirations[:maxExpirations]
	}

	// First page already covers the nearest expiration
	for _, exp := range expirations[min(1, len(expirations)):] {
		page, err := c.fetchChainPage(ctx, symbol, exp)
		if err != nil {
			// Partial chain beats no chain; the pipeline tolerates
			// missing expirations
			c.log.Warn().Err(err).Str("symbol", symbol).Int64("expiration", exp).
				Msg("Failed to fetch expiration, continuing with partial chain")
			continue
		}
		contracts = append(contracts, page.contracts...)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("contracts", len(contracts)).
		Int("expirations", len(expirations)).
		Msg("Fetched options chain")

	return contracts, nil
}

// FetchDailyHistory fetches daily OHLCV bars for the given range
// (e.g. "3mo", "1y")
func (c *Client) FetchDailyHistory(ctx context.Context, symbol, period string) ([]domain.HistoricalPrice, error) {
	reqURL := c.baseURL + "/v8/finance/chart/" + url.QueryEscape(symbol)

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", period)

	var body []byte
	err := reliability.Do(ctx, c.retry, func() error {
		var err error
		body, err = c.get(ctx, reqURL+"?"+params.Encode())
		return err
	})
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []domain.HistoricalPrice{}, nil
	}

	chartData := result.Chart.Result[0]
	if len(chartData.Indicators.Quote) == 0 {
		return []domain.HistoricalPrice{}, nil
	}
	quote := chartData.Indicators.Quote[0]

	var adjCloseData []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloseData = chartData.Indicators.AdjClose[0].AdjClose
	}

	var prices []domain.HistoricalPrice
	for i := range chartData.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}

		// Yahoo sometimes returns null bars
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		adjClose := quote.Close[i]
		if i < len(adjCloseData) && adjCloseData[i] != 0 {
			adjClose = adjCloseData[i]
		}

		volume := int64(0)
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		prices = append(prices, domain.HistoricalPrice{
			Date:     time.Unix(chartData.Timestamp[i], 0),
			Open:     quote.Open[i],
			High:     quote.High[i],
			Low:      quote.Low[i],
			Close:    quote.Close[i],
			Volume:   volume,
			AdjClose: adjClose,
		})
	}

	return prices, nil
}

type chainPage struct {
	contracts   []domain.OptionContract
	expirations []int64
}

func (c *Client) fetchChainPage(ctx context.Context, symbol string, expiration int64) (*chainPage, error) {
	reqURL := c.baseURL + "/v7/finance/options/" + url.QueryEscape(symbol)
	if expiration > 0 {
		reqURL += "?date=" + strconv.FormatInt(expiration, 10)
	}

	var body []byte
	err := reliability.Do(ctx, c.retry, func() error {
		var err error
		body, err = c.get(ctx, reqURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	var result optionsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse options response: %w", err)
	}

	if result.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo options error: %v", result.OptionChain.Error)
	}

	if len(result.OptionChain.Result) == 0 {
		return &chainPage{}, nil
	}

	chain := result.OptionChain.Result[0]
	page := &chainPage{expirations: chain.ExpirationDates}

	for _, block := range chain.Options {
		for _, raw := range block.Calls {
			if contract, ok := raw.toContract(symbol, domain.OptionCall); ok {
				page.contracts = append(page.contracts, contract)
			}
		}
		for _, raw := range block.Puts {
			if contract, ok := raw.toContract(symbol, domain.OptionPut); ok {
				page.contracts = append(page.contracts, contract)
			}
		}
	}

	return page, nil
}

// getQuoteInfo fetches quote information from the Yahoo Finance quote API
func (c *Client) getQuoteInfo(ctx context.Context, symbol string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,regularMarketPrice,regularMarketChangePercent,regularMarketVolume,"+
		"marketCap,marketState,sector,shortName,longName,trailingPE,priceToBook,returnOnEquity,"+
		"profitMargins,debtToEquity,revenueGrowth")

	body, err := c.get(ctx, c.baseURL+"/v7/finance/quote?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result quoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote error: %v", result.QuoteResponse.Error)
	}

	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}

	return result.QuoteResponse.Result[0], nil
}

// get performs a rate-limited GET. 5xx and 429 responses come back as
// transient errors so the retry policy can recover.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Yahoo rejects non-browser user agents
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, reliability.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, reliability.Transient(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, reliability.Transient(fmt.Errorf("yahoo returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func parseMarketState(state string) domain.MarketState {
	switch state {
	case "REGULAR":
		return domain.MarketStateRegular
	case "PRE", "PREPRE":
		return domain.MarketStatePre
	case "POST", "POSTPOST":
		return domain.MarketStatePost
	default:
		return domain.MarketStateClosed
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
