package history

import (
	"github.com/rs/zerolog"

	"github.com/aristath/market-pulse/internal/events"
	"github.com/aristath/market-pulse/internal/modules/options"
)

// defaultLimit caps how many snapshots a history read returns
const defaultLimit = 90

// Service records scan output as immutable daily snapshots. Writes are
// best effort: a persistence failure is logged and swallowed so it never
// fails the scan or the HTTP response that triggered it.
type Service struct {
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger
}

// NewService creates a history service
func NewService(repo *Repository, ev *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: ev,
		log:    log.With().Str("module", "history").Logger(),
	}
}

// Record persists one scan result. valueScore may be nil when the value
// analysis was unavailable for the symbol.
func (s *Service) Record(result *options.ScanResult, valueScore *float64) {
	sentiment := result.Extended.Score
	moneyFlow := result.MoneyFlowStrength

	snapshot := &StockSnapshot{
		Symbol:            result.Symbol,
		Date:              result.GeneratedAt.UTC().Format("2006-01-02"),
		Price:             result.Price,
		ValueScore:        valueScore,
		SentimentScore:    &sentiment,
		MoneyFlowStrength: &moneyFlow,
	}
	for _, combo := range result.Combos {
		snapshot.Combos = append(snapshot.Combos, ComboRecord{
			ComboID:     combo.ID,
			Strategy:    combo.Strategy,
			Notional:    combo.Notional,
			RiskProfile: combo.RiskProfile,
			LegCount:    len(combo.Legs),
		})
	}

	id, err := s.repo.SaveSnapshot(snapshot)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", result.Symbol).Msg("Snapshot write failed")
		return
	}

	if s.events != nil {
		s.events.Emit(events.SnapshotSaved, "history", map[string]interface{}{
			"symbol":      result.Symbol,
			"snapshot_id": id,
			"combos":      len(snapshot.Combos),
		})
	}
}

// Snapshots returns a symbol's recent snapshots, newest first
func (s *Service) Snapshots(symbol string) ([]StockSnapshot, error) {
	return s.repo.GetBySymbol(symbol, defaultLimit)
}
