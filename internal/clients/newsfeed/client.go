package newsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/reliability"
)

// Client talks to the news provider. The provider hands out short-lived
// bearer tokens; refreshes are deduplicated through singleflight so
// concurrent callers share one in-flight refresh.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	retry    reliability.Policy
	log      zerolog.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
	refresh singleflight.Group
}

// NewClient creates a news client
func NewClient(baseURL, username, password string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		retry: reliability.DefaultPolicy(),
		log:   log.With().Str("client", "newsfeed").Logger(),
	}
}

// Configured reports whether credentials are present
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.username != ""
}

// FetchHeadlines returns recent headlines, optionally filtered by query
func (c *Client) FetchHeadlines(ctx context.Context, query string, limit int) ([]domain.NewsItem, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("news provider not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	var items []domain.NewsItem
	err := reliability.Do(ctx, c.retry, func() error {
		token, err := c.getToken(ctx)
		if err != nil {
			return err
		}

		items, err = c.fetchHeadlines(ctx, token, query, limit)
		if isAuthError(err) {
			// Token may have been revoked early; drop it and let the
			// retry pick up a fresh one
			c.invalidateToken(token)
			return reliability.Transient(err)
		}
		return err
	})
	return items, err
}

func (c *Client) fetchHeadlines(ctx context.Context, token, query string, limit int) ([]domain.NewsItem, error) {
	params := url.Values{}
	params.Add("limit", fmt.Sprintf("%d", limit))
	if query != "" {
		params.Add("q", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/headlines?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
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

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &authError{status: resp.StatusCode}
	}
	if resp.StatusCode >= 500 {
		return nil, reliability.Transient(fmt.Errorf("news provider returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Items []struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Source      string `json:"source"`
			PublishedAt int64  `json:"published_at"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse headlines: %w", err)
	}

	items := make([]domain.NewsItem, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, domain.NewsItem{
			ID:          it.ID,
			Title:       it.Title,
			Source:      it.Source,
			PublishedAt: time.Unix(it.PublishedAt, 0).UTC(),
		})
	}

	return items, nil
}

// getToken returns a valid token, refreshing at most once across all
// concurrent callers
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.expires) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	result, err, _ := c.refresh.Do("token", func() (interface{}, error) {
		// Re-check under the flight: another caller may have already
		// refreshed before we were scheduled
		c.mu.Lock()
		if c.token != "" && time.Now().Before(c.expires) {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		return c.refreshToken(ctx)
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	payload := url.Values{}
	payload.Set("username", c.username)
	payload.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/token", strings.NewReader(payload.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", reliability.Transient(fmt.Errorf("token request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", reliability.Transient(fmt.Errorf("failed to read token response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var result struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if result.Token == "" {
		return "", fmt.Errorf("token endpoint returned empty token")
	}

	expiresIn := time.Duration(result.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}

	c.mu.Lock()
	c.token = result.Token
	// Refresh a minute early to avoid racing the provider's expiry
	c.expires = time.Now().Add(expiresIn - time.Minute)
	c.mu.Unlock()

	c.log.Info().Msg("News token refreshed")

	return result.Token, nil
}

// invalidateToken clears the cached token if it still matches the one
// that just failed
func (c *Client) invalidateToken(token string) {
	c.mu.Lock()
	if c.token == token {
		c.token = ""
		c.expires = time.Time{}
	}
	c.mu.Unlock()
}

type authError struct {
	status int
}

func (e *authError) Error() string {
	return fmt.Sprintf("news provider rejected token (status %d)", e.status)
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*authError)
	return ok
}
