package movers

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/cache"
)

// SnapshotFetcher supplies the day's biggest movers from the market
// snapshot provider
type SnapshotFetcher interface {
	FetchGainers(ctx context.Context) ([]domain.Quote, error)
	FetchLosers(ctx context.Context) ([]domain.Quote, error)
}

// SectorResolver fills in the sector for a symbol. The snapshot feed
// carries no sector data, so enrichment goes through the quote provider.
type SectorResolver interface {
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// Movers is one day's gainers and losers, sector-enriched
type Movers struct {
	Gainers []domain.Quote `json:"gainers"`
	Losers  []domain.Quote `json:"losers"`
}

// All returns gainers and losers as a single list
func (m *Movers) All() []domain.Quote {
	out := make([]domain.Quote, 0, len(m.Gainers)+len(m.Losers))
	out = append(out, m.Gainers...)
	out = append(out, m.Losers...)
	return out
}

// Service fetches and caches the day's movers
type Service struct {
	snapshots SnapshotFetcher
	sectors   SectorResolver
	cache     *cache.Cache
	limit     int
	log       zerolog.Logger
}

// NewService creates a movers service. limit caps each direction; zero
// means no cap.
func NewService(snapshots SnapshotFetcher, sectors SectorResolver, c *cache.Cache, limit int, log zerolog.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		sectors:   sectors,
		cache:     c,
		limit:     limit,
		log:       log.With().Str("module", "movers").Logger(),
	}
}

const cacheKey = "movers:current"

// Fetch returns the current movers. A failed direction degrades to an
// empty list for that direction rather than failing the whole call; only
// a double failure surfaces an error.
func (s *Service) Fetch(ctx context.Context) (*Movers, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached.(*Movers), nil
		}
	}

	gainers, gainersErr := s.snapshots.FetchGainers(ctx)
	losers, losersErr := s.snapshots.FetchLosers(ctx)

	if gainersErr != nil && losersErr != nil {
		return nil, gainersErr
	}
	if gainersErr != nil {
		s.log.Warn().Err(gainersErr).Msg("Gainers fetch failed, continuing with losers only")
	}
	if losersErr != nil {
		s.log.Warn().Err(losersErr).Msg("Losers fetch failed, continuing with gainers only")
	}

	out := &Movers{
		Gainers: s.prepare(ctx, gainers, true),
		Losers:  s.prepare(ctx, losers, false),
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, out)
	}
	return out, nil
}

// ActiveMovers returns the current movers as a flat list. This is the
// feed the sector capture aggregates.
func (s *Service) ActiveMovers(ctx context.Context) ([]domain.Quote, error) {
	movers, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return movers.All(), nil
}

// prepare sorts by move magnitude, applies the per-direction cap and
// enriches sectors
func (s *Service) prepare(ctx context.Context, quotes []domain.Quote, descending bool) []domain.Quote {
	sort.SliceStable(quotes, func(i, j int) bool {
		if descending {
			return quotes[i].ChangePercent > quotes[j].ChangePercent
		}
		return quotes[i].ChangePercent < quotes[j].ChangePercent
	})

	if s.limit > 0 && len(quotes) > s.limit {
		quotes = quotes[:s.limit]
	}

	for i := range quotes {
		if quotes[i].Sector != "" || s.sectors == nil {
			continue
		}
		quote, err := s.sectors.FetchQuote(ctx, strings.ToUpper(quotes[i].Symbol))
		if err != nil {
			// Sector stays empty; the trends capture buckets these
			// under "Unknown"
			continue
		}
		quotes[i].Sector = quote.Sector
		if quotes[i].Name == "" {
			quotes[i].Name = quote.Name
		}
	}

	return quotes
}
