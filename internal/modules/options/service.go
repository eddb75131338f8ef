package options

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/internal/events"
	"github.com/aristath/market-pulse/pkg/cache"
)

// QuoteFetcher supplies the spot quote for a symbol
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// ChainFetcher supplies raw option contracts for a symbol
type ChainFetcher interface {
	FetchOptionsChain(ctx context.Context, symbol string, maxExpirations int) ([]domain.OptionContract, error)
}

// FlowProvider supplies money-flow strength for the hedge cross-check
type FlowProvider interface {
	Strength(ctx context.Context, symbol string) float64
}

// ServiceConfig wires a scan service
type ServiceConfig struct {
	Quotes      QuoteFetcher
	Chains      ChainFetcher
	Flow        FlowProvider
	Cache       *cache.Cache
	Events      *events.Manager
	Thresholds  Thresholds
	Expirations int
	Policy      AggregationPolicy
	Log         zerolog.Logger
}

// Service orchestrates the scan pipeline for one symbol at a time. Scans
// are stateless: each builds its own signal list, so callers may scan
// different symbols concurrently.
type Service struct {
	quotes      QuoteFetcher
	chains      ChainFetcher
	flow        FlowProvider
	cache       *cache.Cache
	events      *events.Manager
	th          Thresholds
	expirations int
	policy      AggregationPolicy
	now         func() time.Time
	log         zerolog.Logger
}

// NewService creates a scan service
func NewService(cfg ServiceConfig) *Service {
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyStandard
	}
	expirations := cfg.Expirations
	if expirations < 1 {
		expirations = 2
	}

	return &Service{
		quotes:      cfg.Quotes,
		chains:      cfg.Chains,
		flow:        cfg.Flow,
		cache:       cfg.Cache,
		events:      cfg.Events,
		th:          cfg.Thresholds,
		expirations: expirations,
		policy:      policy,
		now:         time.Now,
		log:         cfg.Log.With().Str("module", "options").Logger(),
	}
}

// Scan fetches the chain for a symbol and runs the full pipeline:
// filter/classify, combo detection, hedge scoring and sentiment
// aggregation.
func (s *Service) Scan(ctx context.Context, symbol string) (*ScanResult, error) {
	cacheKey := "scan:" + symbol
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached.(*ScanResult), nil
		}
	}

	s.emit(events.ScanStarted, map[string]interface{}{"symbol": symbol})

	quote, err := s.quotes.FetchQuote(ctx, symbol)
	if err != nil {
		s.emit(events.ScanFailed, map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return nil, fmt.Errorf("quote fetch failed for %s: %w", symbol, err)
	}

	contracts, err := s.chains.FetchOptionsChain(ctx, symbol, s.expirations)
	if err != nil {
		s.emit(events.ScanFailed, map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return nil, fmt.Errorf("chain fetch failed for %s: %w", symbol, err)
	}

	moneyFlow := 0.0
	if s.flow != nil {
		moneyFlow = s.flow.Strength(ctx, symbol)
	}

	result := s.run(symbol, quote, contracts, moneyFlow)

	if s.cache != nil {
		s.cache.Set(cacheKey, result)
	}

	s.emit(events.ScanCompleted, map[string]interface{}{
		"symbol":  symbol,
		"signals": len(result.Signals),
		"combos":  len(result.Combos),
	})

	return result, nil
}

// run is the pure pipeline over already-fetched inputs
func (s *Service) run(symbol string, quote *domain.Quote, contracts []domain.OptionContract, moneyFlow float64) *ScanResult {
	now := s.now()
	regular := quote.MarketState == domain.MarketStateRegular
	freshWindow := s.th.FreshWindowMins(regular)

	// Pass 1 operates on every candidate, in and out of the primary
	// band, so a combo's far leg is not lost to the band filter
	var candidates []*Signal
	for _, c := range contracts {
		if sig := BuildSignal(c, quote.Price, quote.MarketCap, now, freshWindow, s.th); sig != nil {
			candidates = append(candidates, sig)
		}
	}

	// Deterministic ordering regardless of provider ordering
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].Expiry.Equal(candidates[j].Expiry) {
			return candidates[i].Expiry.Before(candidates[j].Expiry)
		}
		if candidates[i].Strike != candidates[j].Strike {
			return candidates[i].Strike < candidates[j].Strike
		}
		return candidates[i].Type < candidates[j].Type
	})

	combos := DetectCombos(candidates, s.th)
	ApplyCombos(candidates, combos)

	for _, sig := range candidates {
		score, tags, confirmation := ScoreHedge(sig, quote.MarketCap, moneyFlow, s.th)
		sig.HedgeScore = score
		sig.HedgeTags = tags
		sig.SpotConfirmation = confirmation
	}

	// Pass 2: out-of-band legs that joined a combo rejoin the output
	signals := MergeComboLegs(candidates)

	sentiment := AggregateSentiment(signals)
	extended := ComputeExtendedSentiment(signals, now,
		ExtendedOptionsFrom(s.th, s.policy, true, quote.MarketCap))

	return &ScanResult{
		ScanID:            uuid.NewString(),
		Symbol:            symbol,
		Price:             quote.Price,
		MarketCap:         quote.MarketCap,
		MarketState:       string(quote.MarketState),
		Signals:           signals,
		Combos:            combos,
		Sentiment:         sentiment,
		Extended:          extended,
		MoneyFlowStrength: moneyFlow,
		GeneratedAt:       now,
	}
}

func (s *Service) emit(eventType events.EventType, data map[string]interface{}) {
	if s.events != nil {
		s.events.Emit(eventType, "options", data)
	}
}
