package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/reliability"
)

// Client is a Polygon.io snapshot API client
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	retry   reliability.Policy
	log     zerolog.Logger
}

// NewClient creates a new Polygon client
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.polygon.io"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		// Free-tier Polygon allows 5 requests per minute
		limiter: rate.NewLimiter(rate.Every(12*time.Second), 1),
		retry:   reliability.DefaultPolicy(),
		log:     log.With().Str("client", "polygon").Logger(),
	}
}

// snapshotResponse is the envelope of the market snapshot endpoints
type snapshotResponse struct {
	Status  string `json:"status"`
	Tickers []struct {
		Ticker           string  `json:"ticker"`
		TodaysChangePerc float64 `json:"todaysChangePerc"`
		Day              struct {
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
		} `json:"day"`
		PrevDay struct {
			Close float64 `json:"c"`
		} `json:"prevDay"`
	} `json:"tickers"`
}

// FetchGainers returns the day's top gainers
func (c *Client) FetchGainers(ctx context.Context) ([]domain.Quote, error) {
	return c.fetchDirection(ctx, "gainers")
}

// FetchLosers returns the day's top losers
func (c *Client) FetchLosers(ctx context.Context) ([]domain.Quote, error) {
	return c.fetchDirection(ctx, "losers")
}

func (c *Client) fetchDirection(ctx context.Context, direction string) ([]domain.Quote, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("polygon API key not configured")
	}

	reqURL := fmt.Sprintf("%s/v2/snapshot/locale/us/markets/stocks/%s?apiKey=%s",
		c.baseURL, direction, c.apiKey)

	var body []byte
	err := reliability.Do(ctx, c.retry, func() error {
		var err error
		body, err = c.get(ctx, reqURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	var result snapshotResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot response: %w", err)
	}

	quotes := make([]domain.Quote, 0, len(result.Tickers))
	for _, ticker := range result.Tickers {
		price := ticker.Day.Close
		if price == 0 {
			price = ticker.PrevDay.Close
		}
		if price <= 0 {
			continue
		}

		quotes = append(quotes, domain.Quote{
			Symbol:        ticker.Ticker,
			Price:         price,
			ChangePercent: ticker.TodaysChangePerc,
			Volume:        int64(ticker.Day.Volume),
		})
	}

	c.log.Debug().
		Str("direction", direction).
		Int("count", len(quotes)).
		Msg("Fetched market snapshot")

	return quotes, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

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
		return nil, reliability.Transient(fmt.Errorf("polygon returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polygon returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
