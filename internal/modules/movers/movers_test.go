package movers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/cache"
)

type stubSnapshots struct {
	gainers    []domain.Quote
	losers     []domain.Quote
	gainersErr error
	losersErr  error
	calls      int
}

func (s *stubSnapshots) FetchGainers(_ context.Context) ([]domain.Quote, error) {
	s.calls++
	return s.gainers, s.gainersErr
}

func (s *stubSnapshots) FetchLosers(_ context.Context) ([]domain.Quote, error) {
	return s.losers, s.losersErr
}

type stubSectors struct {
	sectors map[string]string
	calls   int
}

func (s *stubSectors) FetchQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	s.calls++
	sector, ok := s.sectors[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return &domain.Quote{Symbol: symbol, Sector: sector}, nil
}

func TestFetchSortsAndEnriches(t *testing.T) {
	snapshots := &stubSnapshots{
		gainers: []domain.Quote{
			{Symbol: "AAA", ChangePercent: 3.0},
			{Symbol: "BBB", ChangePercent: 8.5},
		},
		losers: []domain.Quote{
			{Symbol: "CCC", ChangePercent: -2.0},
			{Symbol: "DDD", ChangePercent: -9.1},
		},
	}
	sectors := &stubSectors{sectors: map[string]string{
		"AAA": "Technology",
		"BBB": "Energy",
		"CCC": "Utilities",
		"DDD": "Technology",
	}}

	svc := NewService(snapshots, sectors, nil, 0, zerolog.Nop())

	out, err := svc.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, out.Gainers, 2)
	assert.Equal(t, "BBB", out.Gainers[0].Symbol, "largest gain first")
	assert.Equal(t, "Energy", out.Gainers[0].Sector)

	require.Len(t, out.Losers, 2)
	assert.Equal(t, "DDD", out.Losers[0].Symbol, "largest loss first")

	assert.Len(t, out.All(), 4)
}

func TestFetchAppliesLimit(t *testing.T) {
	snapshots := &stubSnapshots{
		gainers: []domain.Quote{
			{Symbol: "AAA", ChangePercent: 3.0},
			{Symbol: "BBB", ChangePercent: 8.5},
			{Symbol: "CCC", ChangePercent: 1.2},
		},
	}

	svc := NewService(snapshots, nil, nil, 2, zerolog.Nop())

	out, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Gainers, 2)
	assert.Equal(t, "BBB", out.Gainers[0].Symbol)
	assert.Equal(t, "AAA", out.Gainers[1].Symbol)
}

func TestFetchSingleDirectionFailureDegrades(t *testing.T) {
	snapshots := &stubSnapshots{
		gainersErr: errors.New("rate limited"),
		losers:     []domain.Quote{{Symbol: "CCC", ChangePercent: -2.0}},
	}

	svc := NewService(snapshots, nil, nil, 0, zerolog.Nop())

	out, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Gainers)
	assert.Len(t, out.Losers, 1)
}

func TestFetchDoubleFailure(t *testing.T) {
	snapshots := &stubSnapshots{
		gainersErr: errors.New("rate limited"),
		losersErr:  errors.New("rate limited"),
	}

	svc := NewService(snapshots, nil, nil, 0, zerolog.Nop())

	_, err := svc.Fetch(context.Background())
	require.Error(t, err)
}

func TestFetchCaches(t *testing.T) {
	snapshots := &stubSnapshots{
		gainers: []domain.Quote{{Symbol: "AAA", ChangePercent: 3.0}},
	}

	svc := NewService(snapshots, nil, cache.New(time.Minute), 0, zerolog.Nop())

	first, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	second, err := svc.Fetch(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, snapshots.calls)
}

func TestFetchSkipsEnrichmentWhenSectorKnown(t *testing.T) {
	snapshots := &stubSnapshots{
		gainers: []domain.Quote{{Symbol: "AAA", ChangePercent: 3.0, Sector: "Energy"}},
	}
	sectors := &stubSectors{sectors: map[string]string{"AAA": "Technology"}}

	svc := NewService(snapshots, sectors, nil, 0, zerolog.Nop())

	out, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Energy", out.Gainers[0].Sector)
	assert.Zero(t, sectors.calls)
}

func TestFetchEnrichmentFailureLeavesSectorEmpty(t *testing.T) {
	snapshots := &stubSnapshots{
		gainers: []domain.Quote{{Symbol: "ZZZ", ChangePercent: 3.0}},
	}
	sectors := &stubSectors{sectors: map[string]string{}}

	svc := NewService(snapshots, sectors, nil, 0, zerolog.Nop())

	out, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Gainers[0].Sector)
}
