package value

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/cache"
)

// FundamentalsFetcher supplies the ratio data the analyzer scores
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, symbol string) (*domain.Fundamentals, error)
}

// Service fetches fundamentals and scores them, with a TTL cache in
// front so repeated dashboard hits do not burn provider quota
type Service struct {
	fetcher FundamentalsFetcher
	cache   *cache.Cache
	log     zerolog.Logger
}

// NewService creates a value analysis service
func NewService(fetcher FundamentalsFetcher, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   c,
		log:     log.With().Str("module", "value").Logger(),
	}
}

// Analyze returns the value score for a symbol
func (s *Service) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	cacheKey := "value:" + symbol
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached.(*Analysis), nil
		}
	}

	fundamentals, err := s.fetcher.FetchFundamentals(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fundamentals fetch failed for %s: %w", symbol, err)
	}

	analysis := Analyze(fundamentals)
	s.log.Debug().
		Str("symbol", symbol).
		Float64("score", analysis.Score).
		Int("missing", len(analysis.Reasons)).
		Msg("Value analysis computed")

	if s.cache != nil {
		s.cache.Set(cacheKey, &analysis)
	}
	return &analysis, nil
}

// Score returns just the numeric score, for callers recording snapshots
func (s *Service) Score(ctx context.Context, symbol string) (*float64, error) {
	analysis, err := s.Analyze(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &analysis.Score, nil
}
