package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/internal/events"
	"github.com/aristath/market-pulse/pkg/formulas"
)

// historyDays bounds the lookback used for momentum and streaks
const historyDays = 30

// MoversSource supplies the day's movers for a capture run
type MoversSource interface {
	ActiveMovers(ctx context.Context) ([]domain.Quote, error)
}

// StatStore is the persistence surface the service needs
type StatStore interface {
	ReplaceForDate(date string, stats []SectorStat) error
	GetByDate(date string) ([]SectorStat, error)
	GetLatestDate() (string, error)
	GetHistory(sector string, limit int) ([]SectorStat, error)
	Macro() (*MacroSummary, error)
}

// Service captures sector rotation from the movers feed and serves
// rankings, history-derived signals and the macro summary
type Service struct {
	movers MoversSource
	store  StatStore
	events *events.Manager
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a trends service
func NewService(movers MoversSource, store StatStore, ev *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		movers: movers,
		store:  store,
		events: ev,
		now:    time.Now,
		log:    log.With().Str("module", "trends").Logger(),
	}
}

// Capture aggregates today's movers into sector stats and replaces the
// date partition
func (s *Service) Capture(ctx context.Context) error {
	quotes, err := s.movers.ActiveMovers(ctx)
	if err != nil {
		return fmt.Errorf("movers fetch failed: %w", err)
	}

	date := s.now().UTC().Format("2006-01-02")
	stats := BuildSectorStats(quotes, date)

	if err := s.store.ReplaceForDate(date, stats); err != nil {
		return fmt.Errorf("sector capture persist failed: %w", err)
	}

	s.log.Info().Str("date", date).Int("sectors", len(stats)).Msg("Sector capture completed")
	if s.events != nil {
		s.events.Emit(events.SectorCaptureCompleted, "trends", map[string]interface{}{
			"date":    date,
			"sectors": len(stats),
		})
	}
	return nil
}

// Sectors returns the most recent capture in rank order
func (s *Service) Sectors(ctx context.Context) ([]SectorStat, error) {
	date, err := s.store.GetLatestDate()
	if err != nil {
		return nil, err
	}
	if date == "" {
		return []SectorStat{}, nil
	}
	return s.store.GetByDate(date)
}

// Enhanced returns the latest capture with momentum, streak and
// divergence signals layered on from each sector's history
func (s *Service) Enhanced(ctx context.Context) ([]EnhancedSectorStat, error) {
	latest, err := s.Sectors(ctx)
	if err != nil {
		return nil, err
	}

	market := marketAvgChange(latest)

	out := make([]EnhancedSectorStat, 0, len(latest))
	for _, stat := range latest {
		history, err := s.store.GetHistory(stat.Sector, historyDays)
		if err != nil {
			return nil, err
		}

		out = append(out, EnhancedSectorStat{
			SectorStat: stat,
			Momentum:   momentum(stat, history),
			Streak:     streak(history),
			Divergence: diverges(stat.AvgChange, market),
		})
	}
	return out, nil
}

// Macro returns the aggregate market view over the latest snapshots
func (s *Service) Macro(ctx context.Context) (*MacroSummary, error) {
	return s.store.Macro()
}

// momentum is the z-score of today's move against the sector's prior
// captures. Fewer than three prior days is not enough history to call a
// move unusual.
func momentum(today SectorStat, history []SectorStat) float64 {
	var prior []float64
	for _, h := range history {
		if h.Date == today.Date {
			continue
		}
		prior = append(prior, h.AvgChange)
	}
	if len(prior) < 3 {
		return 0
	}
	return formulas.Round3(formulas.ZScore(today.AvgChange, prior))
}

// streak counts consecutive same-direction capture days, newest first.
// Positive for up days, negative for down days, zero when the latest
// day is flat.
func streak(history []SectorStat) int {
	if len(history) == 0 {
		return 0
	}

	direction := sign(history[0].AvgChange)
	if direction == 0 {
		return 0
	}

	count := 0
	for _, h := range history {
		if sign(h.AvgChange) != direction {
			break
		}
		count++
	}
	return count * direction
}

// diverges flags a sector moving materially against the market
func diverges(sectorChange, marketChange float64) bool {
	const materialMove = 0.25
	if sign(sectorChange) == 0 || sign(marketChange) == 0 {
		return false
	}
	return sign(sectorChange) != sign(marketChange) &&
		(sectorChange > materialMove || sectorChange < -materialMove)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
