package options

import (
	"math"
	"time"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/formulas"
)

// Notional at or above this position score counts toward ask-bias
const askBiasPosScore = 0.66

// AggregationPolicy selects which signals feed the directional buckets of
// the extended aggregate. Ask-bias and total decayed notional always use
// the full signal set regardless of policy.
type AggregationPolicy string

const (
	// PolicyStandard aggregates every signal
	PolicyStandard AggregationPolicy = "standard"
	// PolicyBuyersOnly aggregates only buy-direction signals
	PolicyBuyersOnly AggregationPolicy = "buyersOnly"
	// PolicyBuyersOnlyAuxSP adds a fractional bullish contribution from
	// deep-OTM short puts on top of buyersOnly
	PolicyBuyersOnlyAuxSP AggregationPolicy = "buyersOnlyAuxSP"
)

// SentimentSummary is the instantaneous (non-decayed) aggregate
type SentimentSummary struct {
	Bullish      float64 `json:"bullish_notional"`
	Bearish      float64 `json:"bearish_notional"`
	CallNotional float64 `json:"call_notional"`
	PutNotional  float64 `json:"put_notional"`
	AskBias      float64 `json:"ask_bias"`
	Score        float64 `json:"score"`
}

// AggregateSentiment sums signal notionals into bullish and bearish
// buckets. Score is 100*(bull-bear)/total plus an ask-bias tilt, clamped
// to [-100, 100]; an empty signal list scores 0.
func AggregateSentiment(signals []*Signal) SentimentSummary {
	var out SentimentSummary
	var total, askNotional float64

	for _, s := range signals {
		total += s.Notional
		if s.PosScore >= askBiasPosScore {
			askNotional += s.Notional
		}

		switch s.Type {
		case domain.OptionCall:
			out.CallNotional += s.Notional
		case domain.OptionPut:
			out.PutNotional += s.Notional
		}

		switch {
		case s.IsBullish():
			out.Bullish += s.Notional
		case s.IsBearish():
			out.Bearish += s.Notional
		}
	}

	if total > 0 {
		out.AskBias = askNotional / total
	}

	directional := out.Bullish + out.Bearish
	if directional > 0 {
		score := 100*(out.Bullish-out.Bearish)/directional + 20*(out.AskBias-0.5)
		out.Score = formulas.Clamp(score, -100, 100)
	}

	return out
}

// ExtendedOptions configures the time-decayed aggregate
type ExtendedOptions struct {
	HalfLifeMins      float64
	Policy            AggregationPolicy
	AuxShortPutWeight float64
	DeepOTMPutCut     float64

	// HedgeAlpha > 0 discounts each signal's notional by
	// (1 - alpha*hedgeScore) before decay
	HedgeAlpha float64

	// Raw (non-decayed) bullish window tracking
	WindowMins      float64
	WindowThreshold float64

	// Confidence dampening. When MarketCapRatio > 0 the threshold is
	// marketCap*ratio clamped to [CapMin, CapMax]; otherwise Threshold
	// is used as-is.
	Threshold      float64
	MarketCap      float64
	MarketCapRatio float64
	CapMin         float64
	CapMax         float64
}

// ExtendedOptionsFrom builds decay options from pipeline thresholds
func ExtendedOptionsFrom(th Thresholds, policy AggregationPolicy, hedgeAdjusted bool, marketCap float64) ExtendedOptions {
	alpha := 0.0
	if hedgeAdjusted {
		alpha = th.HedgeAlpha
	}
	return ExtendedOptions{
		HalfLifeMins:      th.HalfLifeMins,
		Policy:            policy,
		AuxShortPutWeight: th.AuxShortPutWeight,
		DeepOTMPutCut:     th.DeepOTMPutCut,
		HedgeAlpha:        alpha,
		WindowMins:        th.WindowMins,
		WindowThreshold:   th.WindowThreshold,
		Threshold:         th.ConfidenceThreshold,
		MarketCap:         marketCap,
		MarketCapRatio:    th.MarketCapConfRatio,
		CapMin:            th.ConfidenceCapMin,
		CapMax:            th.ConfidenceCapMax,
	}
}

// ExtendedSentiment is the time-decayed aggregate
type ExtendedSentiment struct {
	Bullish      float64 `json:"bullish_decayed"`
	Bearish      float64 `json:"bearish_decayed"`
	CallNotional float64 `json:"call_decayed"`
	PutNotional  float64 `json:"put_decayed"`
	AskBias      float64 `json:"ask_bias"`
	TotalDecayed float64 `json:"total_decayed"`
	Score        float64 `json:"score"`
	Confidence   float64 `json:"confidence"`

	WindowBullish       float64 `json:"window_bullish"`
	BullishWindowActive bool    `json:"bullish_window_active"`
}

// ComputeExtendedSentiment weights each signal's notional by
// 0.5^(age/halfLife) and aggregates under the configured policy.
//
// The score compresses the bullish/bearish imbalance through tanh so a
// single large trade cannot pin the scale, then dampens by a confidence
// factor driven by total decayed notional so a handful of stale prints
// cannot fake an extreme reading.
func ComputeExtendedSentiment(signals []*Signal, now time.Time, opts ExtendedOptions) ExtendedSentiment {
	var out ExtendedSentiment

	if opts.HalfLifeMins <= 0 {
		opts.HalfLifeMins = 120
	}

	var askDecayed float64

	for _, s := range signals {
		age := now.Sub(s.TradeTime).Minutes()
		if age < 0 {
			age = 0
		}

		decay := math.Pow(0.5, age/opts.HalfLifeMins)
		effNotional := s.Notional
		if opts.HedgeAlpha > 0 {
			effNotional *= 1 - opts.HedgeAlpha*s.HedgeScore
		}
		weighted := effNotional * decay

		// Ask-bias and total always see the full set: the market
		// temperature reading must not inherit the policy's bias
		out.TotalDecayed += weighted
		if s.PosScore >= askBiasPosScore {
			askDecayed += weighted
		}

		// Raw bullish window, undecayed
		if s.IsBullish() && age <= opts.WindowMins {
			out.WindowBullish += s.Notional
		}

		contribution, bucket := policyContribution(s, opts)
		if contribution == 0 {
			continue
		}
		weighted = effNotional * contribution * decay

		switch s.Type {
		case domain.OptionCall:
			out.CallNotional += weighted
		case domain.OptionPut:
			out.PutNotional += weighted
		}

		switch bucket {
		case DirectionBuy: // bullish bucket
			out.Bullish += weighted
		case DirectionSell: // bearish bucket
			out.Bearish += weighted
		}
	}

	if out.TotalDecayed > 0 {
		out.AskBias = askDecayed / out.TotalDecayed
	}

	directional := out.Bullish + out.Bearish
	coreRatio := 0.0
	if directional > 0 {
		coreRatio = (out.Bullish - out.Bearish) / directional
	}

	threshold := opts.Threshold
	if opts.MarketCapRatio > 0 && opts.MarketCap > 0 {
		threshold = formulas.Clamp(opts.MarketCap*opts.MarketCapRatio, opts.CapMin, opts.CapMax)
	}
	if threshold <= 0 {
		threshold = 1
	}
	out.Confidence = 1 - math.Exp(-out.TotalDecayed/threshold)

	score := (100*math.Tanh(coreRatio) + 5*(out.AskBias-0.5)) * out.Confidence
	out.Score = formulas.Clamp(score, -100, 100)

	out.BullishWindowActive = opts.WindowThreshold > 0 && out.WindowBullish >= opts.WindowThreshold

	return out
}

// policyContribution returns the fraction of a signal's notional that the
// directional buckets should see under the policy, and which bucket it
// lands in (buy = bullish, sell = bearish).
func policyContribution(s *Signal, opts ExtendedOptions) (float64, Direction) {
	bullish := s.IsBullish()
	bearish := s.IsBearish()
	if !bullish && !bearish {
		return 0, DirectionNeutral
	}

	bucket := DirectionSell
	if bullish {
		bucket = DirectionBuy
	}

	switch opts.Policy {
	case PolicyBuyersOnly:
		if s.Direction != DirectionBuy {
			return 0, bucket
		}
		return 1, bucket

	case PolicyBuyersOnlyAuxSP:
		if s.Direction == DirectionBuy {
			return 1, bucket
		}
		// Selling deep OTM puts is implicit bullishness: count a
		// fraction of it toward the bullish bucket
		if s.Type == domain.OptionPut && s.Direction == DirectionSell && s.Moneyness <= opts.DeepOTMPutCut {
			return opts.AuxShortPutWeight, DirectionBuy
		}
		return 0, bucket

	default: // PolicyStandard
		return 1, bucket
	}
}
