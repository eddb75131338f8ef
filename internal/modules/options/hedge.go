package options

import (
	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/formulas"
)

// Hedge feature weights. The score is a weighted linear sum clamped to
// [0,1], not a probability.
const (
	weightDeepOTMPut      = 0.35
	weightSmallCapRatio   = 0.15
	weightLongTermHedge   = 0.25
	weightComboMembership = 0.40

	weightShortTermSpec = 0.35
	weightLargeOTMCall  = 0.25
	weightHighIVBuy     = 0.15
	weightInstitutional = 0.10

	weightMoneyFlow = 0.20

	// Notional-to-market-cap band that reads as position insurance
	// rather than an outright bet
	smallCapRatioMin = 1e-5
	smallCapRatioMax = 1e-3

	// Money-flow strength below this magnitude is treated as noise
	moneyFlowNoiseFloor = 0.15
)

// ScoreHedge estimates how likely a signal is protective rather than
// directional. moneyFlow is the symbol's independently computed money-flow
// strength in [-1,1]; pass 0 when unavailable.
//
// Returned tags list the features that fired, for explainability only.
func ScoreHedge(s *Signal, marketCap float64, moneyFlow float64, th Thresholds) (float64, []string, SpotConfirmation) {
	score := 0.0
	var tags []string

	if s.Type == domain.OptionPut && s.Moneyness <= th.DeepOTMPutCut {
		score += weightDeepOTMPut
		tags = append(tags, "deep_otm_put")
	}

	if marketCap > 0 {
		ratio := s.Notional / marketCap
		if ratio >= smallCapRatioMin && ratio <= smallCapRatioMax {
			score += weightSmallCapRatio
			tags = append(tags, "small_cap_ratio")
		}
	}

	if s.DaysToExpiry >= th.LongTermDays {
		score += weightLongTermHedge
		tags = append(tags, "long_term")
	}

	if s.ComboID != "" {
		score += weightComboMembership
		tags = append(tags, "combo_member")
	}

	if s.DaysToExpiry <= th.ShortTermDays {
		score -= weightShortTermSpec
		tags = append(tags, "short_term_speculative")
	}

	if s.Type == domain.OptionCall && s.Moneyness >= th.LargeOTMCallCut {
		score -= weightLargeOTMCall
		tags = append(tags, "large_otm_call")
	}

	if s.ImpliedVolatility >= th.HighIVCut && s.Direction == DirectionBuy {
		score -= weightHighIVBuy
		tags = append(tags, "high_iv_directional")
	}

	if s.TraderType == TraderInstitutional {
		score -= weightInstitutional
		tags = append(tags, "institutional")
	}

	// Money-flow cross-check: agreement with the tape means the trade is
	// probably directional; contradicting it reads as insurance.
	confirmation := ConfirmationNone
	flowBullish := moneyFlow > moneyFlowNoiseFloor
	flowBearish := moneyFlow < -moneyFlowNoiseFloor
	switch {
	case (s.IsBullish() && flowBullish) || (s.IsBearish() && flowBearish):
		score -= weightMoneyFlow
		tags = append(tags, "flow_confirms")
		confirmation = ConfirmationConfirms
	case (s.IsBullish() && flowBearish) || (s.IsBearish() && flowBullish):
		score += weightMoneyFlow
		tags = append(tags, "flow_contradicts")
		confirmation = ConfirmationContradicts
	}

	return formulas.Clamp(score, 0, 1), tags, confirmation
}
