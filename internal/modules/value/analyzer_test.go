package value

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

func fptr(v float64) *float64 { return &v }

func strongFundamentals() *domain.Fundamentals {
	return &domain.Fundamentals{
		Symbol:        "AAPL",
		Sector:        "Technology",
		PERatio:       fptr(20),
		PriceToBook:   fptr(3),
		ROE:           fptr(0.35),
		ProfitMargin:  fptr(0.25),
		DebtToEquity:  fptr(40),
		RevenueGrowth: fptr(0.18),
	}
}

func TestAnalyzeStrongCompany(t *testing.T) {
	out := Analyze(strongFundamentals())

	assert.Equal(t, 6.0, out.Score, "every metric beats its good threshold")
	assert.Empty(t, out.Reasons)
	assert.Len(t, out.Categories, 6)
}

func TestAnalyzeAllMissing(t *testing.T) {
	out := Analyze(&domain.Fundamentals{Symbol: "NEWCO", Sector: "Technology"})

	assert.Zero(t, out.Score)
	assert.Len(t, out.Reasons, 6)
	for _, points := range out.Categories {
		assert.Zero(t, points)
	}
	assert.Contains(t, out.Reasons, "pe unavailable")
	assert.Contains(t, out.Reasons, "growth unavailable")
}

func TestAnalyzePartialData(t *testing.T) {
	f := strongFundamentals()
	f.RevenueGrowth = nil
	f.DebtToEquity = nil

	out := Analyze(f)

	assert.Equal(t, 4.0, out.Score)
	assert.Len(t, out.Reasons, 2)
}

func TestAnalyzeClampsAtZero(t *testing.T) {
	f := &domain.Fundamentals{
		Symbol:        "JUNK",
		Sector:        "Technology",
		PERatio:       fptr(-5), // losing money
		PriceToBook:   fptr(40),
		ROE:           fptr(-0.10),
		ProfitMargin:  fptr(-0.20),
		DebtToEquity:  fptr(800),
		RevenueGrowth: fptr(-0.30),
	}

	out := Analyze(f)
	assert.Zero(t, out.Score, "a -3 raw total clamps to the floor")
	assert.Equal(t, -0.5, out.Categories["pe"])
}

func TestAnalyzeSectorAware(t *testing.T) {
	// P/E 22 with a leveraged balance sheet: fine for a tech company,
	// expensive for a bank
	base := domain.Fundamentals{
		PERatio:      fptr(22),
		DebtToEquity: fptr(180),
	}

	tech := base
	tech.Sector = "Technology"
	bank := base
	bank.Sector = "Financial Services"

	techOut := Analyze(&tech)
	bankOut := Analyze(&bank)

	assert.Equal(t, 1.0, techOut.Categories["pe"], "22x is below the tech good threshold")
	assert.Less(t, bankOut.Categories["pe"], 0.0, "22x is near the financials bad threshold")
	assert.Greater(t, bankOut.Categories["debt"], 0.8, "banks tolerate leverage")
	assert.Less(t, techOut.Categories["debt"], 0.0)
}

func TestAnalyzeUnknownSectorUsesDefaults(t *testing.T) {
	f := &domain.Fundamentals{
		Symbol:  "XYZ",
		Sector:  "Shipping Containers",
		PERatio: fptr(10),
	}

	out := Analyze(f)
	assert.Equal(t, 1.0, out.Categories["pe"])
}

func TestBandInterpolation(t *testing.T) {
	b := band{good: 10, bad: 20, lowerBetter: true}

	assert.Equal(t, 1.0, b.score(5))
	assert.Equal(t, -0.5, b.score(25))
	assert.InDelta(t, 0.25, b.score(15), 1e-9, "midpoint lands halfway between +1 and -0.5")

	up := band{good: 0.2, bad: 0.0}
	assert.InDelta(t, 0.25, up.score(0.1), 1e-9)
}

type stubFundamentals struct {
	f     *domain.Fundamentals
	err   error
	calls int
}

func (s *stubFundamentals) FetchFundamentals(_ context.Context, _ string) (*domain.Fundamentals, error) {
	s.calls++
	return s.f, s.err
}

func TestServiceCachesAnalysis(t *testing.T) {
	stub := &stubFundamentals{f: strongFundamentals()}
	svc := NewService(stub, cache.New(time.Minute), zerolog.Nop())

	first, err := svc.Analyze(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, stub.calls)
}

func TestServiceFetchError(t *testing.T) {
	stub := &stubFundamentals{err: errors.New("quota exceeded")}
	svc := NewService(stub, nil, zerolog.Nop())

	_, err := svc.Analyze(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fundamentals fetch failed")
}
