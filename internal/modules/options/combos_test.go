package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/market-pulse/internal/domain"
)

var (
	nearExpiry = time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	farExpiry  = time.Date(2025, 9, 19, 0, 0, 0, 0, time.UTC)
	tradeBase  = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
)

func leg(typ domain.OptionType, strike float64, expiry time.Time, dir Direction, notional float64, volume int64, tradeOffset time.Duration) *Signal {
	return &Signal{
		Symbol:    "AAPL",
		Type:      typ,
		Strike:    strike,
		Expiry:    expiry,
		Direction: dir,
		Notional:  notional,
		Volume:    volume,
		TradeTime: tradeBase.Add(tradeOffset),
		InBand:    true,
	}
}

func TestDetectStraddle(t *testing.T) {
	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 200_000, 900, 0),
		leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 180_000, 850, 2*time.Minute),
	}

	combos := DetectCombos(signals, DefaultThresholds())
	require.Len(t, combos, 1)

	assert.Equal(t, "long-straddle", combos[0].Strategy)
	assert.Equal(t, "hedge", combos[0].RiskProfile)
	assert.InDelta(t, 380_000, combos[0].Notional, 1e-9)
	assert.ElementsMatch(t, []int{0, 1}, combos[0].Legs)
}

func TestDetectStrangleAndSubtypes(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name    string
		callDir Direction
		putDir  Direction
		want    string
		profile string
	}{
		{"synthetic long", DirectionBuy, DirectionSell, "synthetic-long", "bullish"},
		{"synthetic short", DirectionSell, DirectionBuy, "synthetic-short", "bearish"},
		{"long strangle", DirectionBuy, DirectionBuy, "long-strangle", "hedge"},
		{"short strangle", DirectionSell, DirectionSell, "short-strangle", "hedge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := []*Signal{
				leg(domain.OptionCall, 103, nearExpiry, tt.callDir, 200_000, 900, 0),
				leg(domain.OptionPut, 100, nearExpiry, tt.putDir, 180_000, 850, time.Minute),
			}

			combos := DetectCombos(signals, th)
			require.Len(t, combos, 1)
			assert.Equal(t, tt.want, combos[0].Strategy)
			assert.Equal(t, tt.profile, combos[0].RiskProfile)
		})
	}
}

func TestStrangleStrikeTolerance(t *testing.T) {
	// 100 vs 110 is a 10% gap against the lower strike, beyond the 5%
	// tolerance
	signals := []*Signal{
		leg(domain.OptionCall, 110, nearExpiry, DirectionBuy, 200_000, 900, 0),
		leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 180_000, 850, time.Minute),
	}

	assert.Empty(t, DetectCombos(signals, DefaultThresholds()))
}

func TestNotionalRatioTolerance(t *testing.T) {
	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 500_000, 900, 0),
		leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 100_000, 850, time.Minute),
	}

	assert.Empty(t, DetectCombos(signals, DefaultThresholds()),
		"5:1 notional imbalance is not a paired strategy")
}

func TestTieredTimeWindows(t *testing.T) {
	th := DefaultThresholds() // base window 5 minutes

	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 200_000, 900, 0),
		leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 180_000, 850, 12*time.Minute),
	}

	combos := DetectCombos(signals, th)
	require.Len(t, combos, 1, "12 minute gap should match the 3x tier")

	signals[1].TradeTime = tradeBase.Add(40 * time.Minute)
	assert.Empty(t, DetectCombos(signals, th), "beyond the 6x tier nothing matches")
}

func TestDetectVerticalSpread(t *testing.T) {
	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 300_000, 1000, 0),
		leg(domain.OptionCall, 110, nearExpiry, DirectionSell, 120_000, 950, time.Minute),
	}

	combos := DetectCombos(signals, DefaultThresholds())
	require.Len(t, combos, 1)
	assert.Equal(t, "bull-spread", combos[0].Strategy)
	assert.Equal(t, "bullish", combos[0].RiskProfile)

	// Flip the legs: low-strike sell, high-strike buy
	signals = []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionSell, 300_000, 1000, 0),
		leg(domain.OptionCall, 110, nearExpiry, DirectionBuy, 120_000, 950, time.Minute),
	}

	combos = DetectCombos(signals, DefaultThresholds())
	require.Len(t, combos, 1)
	assert.Equal(t, "bear-spread", combos[0].Strategy)
	assert.Equal(t, "bearish", combos[0].RiskProfile)
}

func TestVerticalMatchesOnVolumeNotNotional(t *testing.T) {
	// Volumes 1000 vs 100 exceed ratio tolerance even though notionals
	// are balanced
	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 200_000, 1000, 0),
		leg(domain.OptionCall, 110, nearExpiry, DirectionSell, 200_000, 100, time.Minute),
	}

	assert.Empty(t, DetectCombos(signals, DefaultThresholds()))
}

func TestDetectCalendarSpread(t *testing.T) {
	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionSell, 200_000, 900, 0),
		leg(domain.OptionCall, 100, farExpiry, DirectionBuy, 180_000, 850, time.Minute),
	}

	combos := DetectCombos(signals, DefaultThresholds())
	require.Len(t, combos, 1)
	assert.Equal(t, "long-calendar", combos[0].Strategy)
	assert.Equal(t, "hedge", combos[0].RiskProfile)
}

func TestNeutralLegsNeverPair(t *testing.T) {
	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionNeutral, 200_000, 900, 0),
		leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 180_000, 850, time.Minute),
	}

	assert.Empty(t, DetectCombos(signals, DefaultThresholds()))
}

func TestGreedyAssignmentPrefersClosestInTime(t *testing.T) {
	// Two puts compete for the same call; the one printed closer in time
	// wins
	call := leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 200_000, 900, 0)
	nearPut := leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 190_000, 880, time.Minute)
	farPut := leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 185_000, 870, 4*time.Minute)

	combos := DetectCombos([]*Signal{call, farPut, nearPut}, DefaultThresholds())
	require.Len(t, combos, 1)
	assert.ElementsMatch(t, []int{0, 2}, combos[0].Legs)
}

func TestEachSignalJoinsAtMostOneCombo(t *testing.T) {
	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 200_000, 900, 0),
		leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 190_000, 880, time.Minute),
		leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 185_000, 870, 2*time.Minute),
	}

	combos := DetectCombos(signals, DefaultThresholds())
	require.Len(t, combos, 1)

	seen := map[int]bool{}
	for _, c := range combos {
		for _, idx := range c.Legs {
			assert.False(t, seen[idx])
			seen[idx] = true
		}
	}
}

func TestDetectCombosIdempotence(t *testing.T) {
	th := DefaultThresholds()
	signals := []*Signal{
		leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 200_000, 900, 0),
		leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 180_000, 850, time.Minute),
	}

	first := DetectCombos(signals, th)
	require.Len(t, first, 1)
	ApplyCombos(signals, first)

	// Tagged signals are skipped on the second pass
	assert.Empty(t, DetectCombos(signals, th))

	// Clearing the assignments reproduces identical IDs
	for _, s := range signals {
		s.ComboID = ""
		s.ComboType = ""
	}
	second := DetectCombos(signals, th)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestComboIDStableAcrossLegOrder(t *testing.T) {
	a := leg(domain.OptionCall, 100, nearExpiry, DirectionBuy, 200_000, 900, 0)
	b := leg(domain.OptionPut, 100, nearExpiry, DirectionBuy, 180_000, 850, time.Minute)

	assert.Equal(t, comboID(a, b), comboID(b, a))
}

func TestMergeComboLegs(t *testing.T) {
	inBand := leg(domain.OptionCall, 106, nearExpiry, DirectionBuy, 200_000, 900, 0)

	outOfBandTagged := leg(domain.OptionPut, 106, nearExpiry, DirectionBuy, 180_000, 850, time.Minute)
	outOfBandTagged.InBand = false
	outOfBandTagged.ComboID = "abc123"

	outOfBandPlain := leg(domain.OptionPut, 99, nearExpiry, DirectionSell, 50_000, 100, time.Minute)
	outOfBandPlain.InBand = false

	merged := MergeComboLegs([]*Signal{inBand, outOfBandTagged, outOfBandPlain})
	require.Len(t, merged, 2)
	assert.Same(t, inBand, merged[0])
	assert.Same(t, outOfBandTagged, merged[1], "combo legs outside the band must surface in the final list")
}
