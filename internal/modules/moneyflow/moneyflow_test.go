package moneyflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/market-pulse/internal/domain"
)

type stubHistory struct {
	bars []domain.HistoricalPrice
	err  error
}

func (s *stubHistory) FetchDailyHistory(_ context.Context, _ string, _ string) ([]domain.HistoricalPrice, error) {
	return s.bars, s.err
}

func risingBars(n int) []domain.HistoricalPrice {
	bars := make([]domain.HistoricalPrice, n)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		base := 100 + float64(i)
		bars[i] = domain.HistoricalPrice{
			Date:   start.AddDate(0, 0, i),
			Open:   base,
			High:   base + 1,
			Low:    base - 1,
			Close:  base + 0.5,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestStrengthFromBarsUptrend(t *testing.T) {
	strength := StrengthFromBars(risingBars(40))
	assert.InDelta(t, 1.0, strength, 1e-6, "sustained positive money flow should saturate at +1")
}

func TestStrengthFromBarsDowntrend(t *testing.T) {
	bars := risingBars(40)
	// Mirror into a decline
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i].Open, bars[j].Open = bars[j].Open, bars[i].Open
		bars[i].High, bars[j].High = bars[j].High, bars[i].High
		bars[i].Low, bars[j].Low = bars[j].Low, bars[i].Low
		bars[i].Close, bars[j].Close = bars[j].Close, bars[i].Close
	}

	strength := StrengthFromBars(bars)
	assert.InDelta(t, -1.0, strength, 1e-6, "sustained negative money flow should saturate at -1")
}

func TestStrengthFromBarsInsufficientHistory(t *testing.T) {
	assert.Equal(t, 0.0, StrengthFromBars(risingBars(10)))
	assert.Equal(t, 0.0, StrengthFromBars(nil))
}

func TestStrengthNeutralOnFetchError(t *testing.T) {
	svc := NewService(&stubHistory{err: errors.New("provider down")}, zerolog.Nop())

	assert.Equal(t, 0.0, svc.Strength(context.Background(), "AAPL"))
}

func TestStrengthUsesFetchedBars(t *testing.T) {
	svc := NewService(&stubHistory{bars: risingBars(40)}, zerolog.Nop())

	assert.InDelta(t, 1.0, svc.Strength(context.Background(), "AAPL"), 1e-6)
}
