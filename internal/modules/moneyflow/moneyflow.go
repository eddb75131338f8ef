package moneyflow

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/formulas"
)

// Period used for the Money Flow Index
const mfiPeriod = 14

// HistoryFetcher supplies daily OHLCV bars
type HistoryFetcher interface {
	FetchDailyHistory(ctx context.Context, symbol, period string) ([]domain.HistoricalPrice, error)
}

// Service computes money-flow strength for a symbol from its recent
// daily bars
type Service struct {
	history HistoryFetcher
	log     zerolog.Logger
}

// NewService creates a money-flow service
func NewService(history HistoryFetcher, log zerolog.Logger) *Service {
	return &Service{
		history: history,
		log:     log.With().Str("module", "moneyflow").Logger(),
	}
}

// Strength returns the symbol's money-flow strength in [-1, 1]. Fetch
// failures and insufficient history degrade to 0 (neutral) rather than
// erroring: a missing reading must not sink the scan.
func (s *Service) Strength(ctx context.Context, symbol string) float64 {
	bars, err := s.history.FetchDailyHistory(ctx, symbol, "3mo")
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("History fetch failed, money flow neutral")
		return 0
	}

	return StrengthFromBars(bars)
}

// StrengthFromBars maps the Money Flow Index (0-100) onto [-1, 1].
// Returns 0 when there is not enough history for the MFI period.
func StrengthFromBars(bars []domain.HistoricalPrice) float64 {
	if len(bars) < mfiPeriod+1 {
		return 0
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	mfi := formulas.CalculateMFI(highs, lows, closes, volumes, mfiPeriod)
	if mfi == nil {
		return 0
	}

	return formulas.Clamp((*mfi-50)/50, -1, 1)
}
