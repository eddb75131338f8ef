package options

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/aristath/market-pulse/internal/domain"
)

// DetectCombos scans candidate signals for multi-leg strategies and
// returns the assignments without mutating the signals. Signals that
// already carry a ComboID are skipped, which makes repeated detection a
// no-op unless the IDs are cleared first.
//
// Matching is greedy: within each rule, eligible pairs are ordered by
// ascending leg time difference (index order breaks exact ties) and each
// signal joins at most one combo.
func DetectCombos(signals []*Signal, th Thresholds) []Combo {
	used := make([]bool, len(signals))
	for i, s := range signals {
		if s.ComboID != "" {
			used[i] = true
		}
	}

	var combos []Combo

	// Straddles and strangles get tiered time windows: pairs that miss
	// the base window may still match a wider one.
	for _, window := range []float64{
		th.ComboBaseWindowMins,
		th.ComboBaseWindowMins * 3,
		th.ComboBaseWindowMins * 6,
	} {
		combos = append(combos, matchStraddles(signals, used, window, th)...)
	}

	combos = append(combos, matchVerticals(signals, used, th)...)
	combos = append(combos, matchCalendars(signals, used, th)...)

	return combos
}

// ApplyCombos writes detected assignments onto the signals
func ApplyCombos(signals []*Signal, combos []Combo) {
	for _, combo := range combos {
		for _, idx := range combo.Legs {
			if idx < 0 || idx >= len(signals) {
				continue
			}
			sig := signals[idx]
			sig.ComboID = combo.ID
			sig.ComboType = combo.Label
			sig.IsComboHedge = combo.RiskProfile == "hedge"
		}
	}
}

// candidatePair is one eligible leg pairing, ranked by time proximity
type candidatePair struct {
	i, j     int
	timeDiff float64
	strategy string
}

func collectPairs(signals []*Signal, used []bool, eligible func(a, b *Signal) (string, bool), windowMins float64) []candidatePair {
	var pairs []candidatePair
	for i := 0; i < len(signals); i++ {
		if used[i] || signals[i].Direction == DirectionNeutral {
			continue
		}
		for j := i + 1; j < len(signals); j++ {
			if used[j] || signals[j].Direction == DirectionNeutral {
				continue
			}

			timeDiff := math.Abs(signals[i].TradeTime.Sub(signals[j].TradeTime).Minutes())
			if timeDiff > windowMins {
				continue
			}

			strategy, ok := eligible(signals[i], signals[j])
			if !ok {
				continue
			}

			pairs = append(pairs, candidatePair{i: i, j: j, timeDiff: timeDiff, strategy: strategy})
		}
	}

	// Lowest time difference wins; pair order breaks exact ties so the
	// assignment is deterministic regardless of input order
	sort.SliceStable(pairs, func(a, b int) bool {
		if pairs[a].timeDiff != pairs[b].timeDiff {
			return pairs[a].timeDiff < pairs[b].timeDiff
		}
		if pairs[a].i != pairs[b].i {
			return pairs[a].i < pairs[b].i
		}
		return pairs[a].j < pairs[b].j
	})

	return pairs
}

func assignPairs(signals []*Signal, used []bool, pairs []candidatePair) []Combo {
	var combos []Combo
	for _, p := range pairs {
		if used[p.i] || used[p.j] {
			continue
		}
		used[p.i] = true
		used[p.j] = true

		a, b := signals[p.i], signals[p.j]
		id := comboID(a, b)

		combos = append(combos, Combo{
			ID:          id,
			Strategy:    p.strategy,
			Label:       fmt.Sprintf("%s-%s", p.strategy, id[:6]),
			Notional:    a.Notional + b.Notional,
			RiskProfile: riskProfile(p.strategy),
			Legs:        []int{p.i, p.j},
		})
	}
	return combos
}

func matchStraddles(signals []*Signal, used []bool, windowMins float64, th Thresholds) []Combo {
	pairs := collectPairs(signals, used, func(a, b *Signal) (string, bool) {
		// One call plus one put at the same expiry
		if a.Type == b.Type || !a.Expiry.Equal(b.Expiry) {
			return "", false
		}

		call, put := a, b
		if call.Type != domain.OptionCall {
			call, put = b, a
		}

		strikeDiff := math.Abs(call.Strike - put.Strike)
		tol := math.Min(call.Strike, put.Strike) * th.ComboStrikeTolPct
		if strikeDiff > tol {
			return "", false
		}
		if !ratioWithin(a.Notional, b.Notional, th.ComboNotionalRatioTol) {
			return "", false
		}

		base := "strangle"
		if strikeDiff == 0 {
			base = "straddle"
		}

		switch {
		case call.Direction == DirectionBuy && put.Direction == DirectionSell:
			return "synthetic-long", true
		case call.Direction == DirectionSell && put.Direction == DirectionBuy:
			return "synthetic-short", true
		case call.Direction == DirectionBuy && put.Direction == DirectionBuy:
			return "long-" + base, true
		default:
			return "short-" + base, true
		}
	}, windowMins)

	return assignPairs(signals, used, pairs)
}

func matchVerticals(signals []*Signal, used []bool, th Thresholds) []Combo {
	pairs := collectPairs(signals, used, func(a, b *Signal) (string, bool) {
		// Same type and expiry, different strikes, opposite directions
		if a.Type != b.Type || !a.Expiry.Equal(b.Expiry) || a.Strike == b.Strike {
			return "", false
		}
		if a.Direction == b.Direction {
			return "", false
		}

		// Verticals are sized in contracts, so legs match on volume
		if !ratioWithin(float64(a.Volume), float64(b.Volume), th.ComboVolumeRatioTol) {
			return "", false
		}

		low, high := a, b
		if low.Strike > high.Strike {
			low, high = b, a
		}

		if low.Direction == DirectionBuy && high.Direction == DirectionSell {
			return "bull-spread", true
		}
		return "bear-spread", true
	}, th.ComboBaseWindowMins)

	return assignPairs(signals, used, pairs)
}

func matchCalendars(signals []*Signal, used []bool, th Thresholds) []Combo {
	pairs := collectPairs(signals, used, func(a, b *Signal) (string, bool) {
		// Same type and strike, different expiries, opposite directions
		if a.Type != b.Type || a.Strike != b.Strike || a.Expiry.Equal(b.Expiry) {
			return "", false
		}
		if a.Direction == b.Direction {
			return "", false
		}
		if !ratioWithin(a.Notional, b.Notional, th.ComboNotionalRatioTol) {
			return "", false
		}

		near, far := a, b
		if near.Expiry.After(far.Expiry) {
			near, far = b, a
		}

		if near.Direction == DirectionSell && far.Direction == DirectionBuy {
			return "long-calendar", true
		}
		return "short-calendar", true
	}, th.ComboBaseWindowMins)

	return assignPairs(signals, used, pairs)
}

func ratioWithin(a, b, tol float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	larger, smaller := a, b
	if smaller > larger {
		larger, smaller = smaller, larger
	}
	return larger/smaller <= tol
}

// comboID derives a stable hash from the legs' expiries, strikes and
// trade times, so the same pair always maps to the same ID
func comboID(a, b *Signal) string {
	keyA := fmt.Sprintf("%d|%.4f|%s|%d", a.Expiry.Unix(), a.Strike, a.Type, a.TradeTime.Unix())
	keyB := fmt.Sprintf("%d|%.4f|%s|%d", b.Expiry.Unix(), b.Strike, b.Type, b.TradeTime.Unix())
	if keyB < keyA {
		keyA, keyB = keyB, keyA
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "%s||%s", keyA, keyB)
	return fmt.Sprintf("%016x", h.Sum64())
}

// riskProfile maps a strategy name to its directional bias
func riskProfile(strategy string) string {
	switch {
	case strategy == "synthetic-long" || strings.HasPrefix(strategy, "bull"):
		return "bullish"
	case strategy == "synthetic-short" || strings.HasPrefix(strategy, "bear"):
		return "bearish"
	default:
		return "hedge"
	}
}

// MergeComboLegs builds the final signal list: all primary-band signals
// plus any out-of-band legs that joined a combo. Order within each group
// is preserved.
func MergeComboLegs(candidates []*Signal) []*Signal {
	var out []*Signal
	for _, s := range candidates {
		if s.InBand {
			out = append(out, s)
		}
	}
	for _, s := range candidates {
		if !s.InBand && s.ComboID != "" {
			out = append(out, s)
		}
	}
	return out
}
