package options

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/market-pulse/internal/domain"
)

var scanTime = time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

// liquidCall is the canonical passing contract: strike 105 against spot
// 100, tight-ish spread, heavy volume against open interest
func liquidCall() domain.OptionContract {
	return domain.OptionContract{
		Symbol:            "AAPL",
		Type:              domain.OptionCall,
		Strike:            105,
		Expiry:            scanTime.AddDate(0, 0, 30),
		Bid:               2.0,
		Ask:               2.4,
		Last:              2.35,
		Volume:            2000,
		OpenInterest:      500,
		ImpliedVolatility: 0.35,
		LastTradeDate:     scanTime.Add(-30 * time.Minute),
	}
}

func buildTestSignal(t *testing.T, c domain.OptionContract) *Signal {
	t.Helper()
	th := DefaultThresholds()
	sig := BuildSignal(c, 100, 3e12, scanTime, th.FreshWindowMins(true), th)
	require.NotNil(t, sig)
	return sig
}

func TestBuildSignalDerivedFields(t *testing.T) {
	sig := buildTestSignal(t, liquidCall())

	assert.InDelta(t, 2.2, sig.Mid, 1e-9)
	assert.InDelta(t, 0.4/2.2, sig.SpreadPct, 1e-9)
	assert.InDelta(t, 2000*2.2*100, sig.Notional, 1e-9, "notional must be volume*mid*100 exactly")
	assert.InDelta(t, 1.05, sig.Moneyness, 1e-9)
	assert.True(t, sig.InBand)
}

func TestBuildSignalDirectionBuy(t *testing.T) {
	sig := buildTestSignal(t, liquidCall())

	// posScore = (2.35-2.2)/0.2 = 0.75; spread penalty saturates at 1 so
	// base confidence 0.4, boosted x1.2 for the fresh position, then
	// scaled by 0.5+0.5*0.75
	assert.Equal(t, DirectionBuy, sig.Direction)
	assert.InDelta(t, 0.75, sig.PosScore, 1e-9)
	assert.InDelta(t, 0.42, sig.DirectionConfidence, 1e-9)
	assert.Equal(t, TraderMixed, sig.TraderType)
}

func TestBuildSignalNeutralWhenPrintAtMid(t *testing.T) {
	c := liquidCall()
	c.Last = 2.2 // exactly at mid

	sig := buildTestSignal(t, c)
	assert.Equal(t, DirectionNeutral, sig.Direction)
	assert.InDelta(t, 0, sig.PosScore, 1e-9)
}

func TestBuildSignalConfidenceBounds(t *testing.T) {
	cases := []domain.OptionContract{
		liquidCall(),
		func() domain.OptionContract {
			c := liquidCall()
			c.Bid, c.Ask, c.Last = 0.05, 5.0, 4.9 // absurd spread
			return c
		}(),
		func() domain.OptionContract {
			c := liquidCall()
			c.Last = c.Ask // ambiguous print
			return c
		}(),
		func() domain.OptionContract {
			c := liquidCall()
			c.Volume, c.OpenInterest = 5000, 100 // extreme vol/OI
			return c
		}(),
	}

	for _, c := range cases {
		th := DefaultThresholds()
		sig := BuildSignal(c, 100, 3e12, scanTime, th.FreshWindowMins(true), th)
		if sig == nil {
			continue
		}
		assert.GreaterOrEqual(t, sig.DirectionConfidence, 0.0)
		assert.LessOrEqual(t, sig.DirectionConfidence, 1.0)
	}
}

func TestBuildSignalMidFallbacks(t *testing.T) {
	th := DefaultThresholds()

	c := liquidCall()
	c.Bid, c.Ask = 0, 0
	c.Last = 2.1
	sig := BuildSignal(c, 100, 3e12, scanTime, 60, th)
	require.NotNil(t, sig)
	assert.InDelta(t, 2.1, sig.Mid, 1e-9, "one-sided quote should fall back to last")

	c.Last = 0
	sig = BuildSignal(c, 100, 3e12, scanTime, 60, th)
	assert.Nil(t, sig, "no usable price should reject the contract")
}

func TestBuildSignalLiquidityGate(t *testing.T) {
	th := DefaultThresholds()

	c := liquidCall()
	c.Volume = 10 // notional = 10*2.2*100 = 2200 < 5000
	assert.Nil(t, BuildSignal(c, 100, 3e12, scanTime, 60, th))

	// Same thin volume but no open interest: relaxed notional floor
	c.OpenInterest = 0
	c.Volume = 12 // notional = 2640 >= 2500
	assert.NotNil(t, BuildSignal(c, 100, 3e12, scanTime, 60, th))
}

func TestBuildSignalFreshnessGate(t *testing.T) {
	th := DefaultThresholds()

	c := liquidCall()
	c.LastTradeDate = scanTime.Add(-90 * time.Minute)

	assert.Nil(t, BuildSignal(c, 100, 3e12, scanTime, th.FreshWindowMins(true), th),
		"90 minute old print fails the regular-session window")
	assert.NotNil(t, BuildSignal(c, 100, 3e12, scanTime, th.FreshWindowMins(false), th),
		"extended window spans the same print")
}

func TestBuildSignalRatioGate(t *testing.T) {
	th := DefaultThresholds()

	c := liquidCall()
	c.Volume = 100
	c.OpenInterest = 10000 // ratio 0.01 < 0.25, notional 22000 passes floor

	assert.Nil(t, BuildSignal(c, 100, 3e12, scanTime, 60, th))
}

func TestBuildSignalOutOfBandRetainedAsCandidate(t *testing.T) {
	c := liquidCall()
	c.Strike = 101 // moneyness 1.01 < 1.05

	sig := buildTestSignal(t, c)
	assert.False(t, sig.InBand, "near-the-money call is outside the primary band but still a candidate")
}

func TestBuildSignalPutBand(t *testing.T) {
	c := liquidCall()
	c.Type = domain.OptionPut

	c.Strike = 93
	sig := buildTestSignal(t, c)
	assert.True(t, sig.InBand)

	c.Strike = 40 // below spot*putBandMin = 50
	sig = buildTestSignal(t, c)
	assert.False(t, sig.InBand)
}

func TestBuildSignalSkipsNonFinite(t *testing.T) {
	th := DefaultThresholds()

	c := liquidCall()
	c.Ask = math.NaN()
	assert.Nil(t, BuildSignal(c, 100, 3e12, scanTime, 60, th))

	c = liquidCall()
	c.Last = math.Inf(1)
	assert.Nil(t, BuildSignal(c, 100, 3e12, scanTime, 60, th))
}

func TestClassifyTrader(t *testing.T) {
	tests := []struct {
		name     string
		notional float64
		spot     float64
		want     TraderType
	}{
		{"retail", 50_000, 100, TraderRetail}, // 5 equivalent contracts
		{"mixed", 440_000, 100, TraderMixed},
		{"institutional by contracts", 600_000, 10, TraderInstitutional}, // 600 contracts
		{"institutional by notional", 2_500_000, 100, TraderInstitutional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTrader(tt.notional, tt.spot))
		})
	}
}
