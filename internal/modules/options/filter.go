package options

import (
	"math"
	"time"

	"github.com/aristath/market-pulse/internal/domain"
	"github.com/aristath/market-pulse/pkg/formulas"
)

// BuildSignal runs the per-contract filter and classifier. It returns nil
// when the contract fails a gate. The returned signal carries every
// derived field except combo and hedge data, which later passes fill in.
//
// Contracts outside the primary OTM band still come back as signals with
// InBand=false: the combo detector wants them as candidates.
func BuildSignal(c domain.OptionContract, spot, marketCap float64, now time.Time, freshWindowMins float64, th Thresholds) *Signal {
	if !isFinite(c.Strike, c.Bid, c.Ask, c.Last) || spot <= 0 {
		return nil
	}

	mid := computeMid(c)
	if mid <= 0 {
		return nil
	}

	spreadPct := 0.0
	if c.Ask > c.Bid && c.Bid >= 0 {
		spreadPct = (c.Ask - c.Bid) / mid
	}

	notional := float64(c.Volume) * mid * 100

	// Liquidity gate. Without open-interest data the notional floor is
	// relaxed since the vol/OI ratio gate cannot corroborate volume.
	notionalFloor := th.MinNotional
	if c.OpenInterest <= 0 {
		notionalFloor = th.MinNotionalNoRatio
	}
	if c.Volume < th.MinVolume && notional < notionalFloor {
		return nil
	}

	// Freshness gate
	if c.LastTradeDate.IsZero() {
		return nil
	}
	ageMins := now.Sub(c.LastTradeDate).Minutes()
	if ageMins < 0 || ageMins > freshWindowMins {
		return nil
	}

	// Volume/open-interest ratio gate
	if c.OpenInterest > 0 {
		ratio := float64(c.Volume) / float64(c.OpenInterest)
		if ratio < th.MinRatio {
			return nil
		}
	}

	moneyness := c.Strike / spot
	inBand := inPrimaryBand(c.Type, moneyness, c.Strike, spot, th)

	direction, confidence, posScore := classifyDirection(c, mid, spreadPct)
	traderType := classifyTrader(notional, spot)

	sig := &Signal{
		Symbol:              c.Symbol,
		Type:                c.Type,
		Strike:              c.Strike,
		Expiry:              c.Expiry,
		Bid:                 c.Bid,
		Ask:                 c.Ask,
		Last:                c.Last,
		Mid:                 mid,
		SpreadPct:           spreadPct,
		Volume:              c.Volume,
		OpenInterest:        c.OpenInterest,
		ImpliedVolatility:   c.ImpliedVolatility,
		TradeTime:           c.LastTradeDate,
		Notional:            notional,
		Moneyness:           moneyness,
		DaysToExpiry:        c.Expiry.Sub(now).Hours() / 24,
		Direction:           direction,
		DirectionConfidence: confidence,
		PosScore:            posScore,
		TraderType:          traderType,
		InBand:              inBand,
	}
	sig.SignalQuality = classifyQuality(sig, th)

	return sig
}

// computeMid derives a usable mid price, falling back through last, bid
// and ask when the quote is one-sided
func computeMid(c domain.OptionContract) float64 {
	if c.Bid > 0 && c.Ask > 0 && c.Ask >= c.Bid {
		return (c.Bid + c.Ask) / 2
	}
	if c.Last > 0 {
		return c.Last
	}
	if c.Bid > 0 {
		return c.Bid
	}
	if c.Ask > 0 {
		return c.Ask
	}
	return 0
}

func inPrimaryBand(typ domain.OptionType, moneyness, strike, spot float64, th Thresholds) bool {
	switch typ {
	case domain.OptionCall:
		return moneyness >= th.CallOTMMin && strike <= spot*th.CallBandMax
	case domain.OptionPut:
		return moneyness <= th.PutOTMMax && strike >= spot*th.PutBandMin
	}
	return false
}

// classifyDirection infers buy/sell pressure from where the last trade
// printed inside the spread.
//
// posScore is the last price's position relative to mid, scaled by the
// half-spread and clamped to [-1, 1]: +1 prints at the ask (aggressive
// buyer), -1 at the bid (aggressive seller).
func classifyDirection(c domain.OptionContract, mid, spreadPct float64) (Direction, float64, float64) {
	halfSpread := (c.Ask - c.Bid) / 2

	posScore := 0.0
	if halfSpread > 0 {
		posScore = formulas.Clamp((c.Last-mid)/halfSpread, -1, 1)
	}

	// Wide spreads make the print position less meaningful
	spreadPenalty := math.Min(1, spreadPct/0.15)
	confidence := 1 - spreadPenalty*0.6

	// A print exactly at bid or ask is ambiguous: it can be a fill
	// against stale quotes
	if c.Last == c.Bid || c.Last == c.Ask {
		confidence *= 0.5
	}

	// High vol/OI with a decisive print suggests a new position
	if c.OpenInterest > 0 && float64(c.Volume)/float64(c.OpenInterest) > 1 && math.Abs(posScore) > 0.5 {
		confidence = math.Min(1, confidence*1.2)
	}

	if confidence < 0.25 || math.Abs(posScore) < 0.3 {
		return DirectionNeutral, confidence, posScore
	}

	direction := DirectionSell
	if posScore > 0 {
		direction = DirectionBuy
	}

	confidence = confidence * (0.5 + 0.5*math.Abs(posScore))

	return direction, confidence, posScore
}

// classifyTrader buckets the trade size into retail / mixed / institutional
func classifyTrader(notional, spot float64) TraderType {
	equivalentContracts := notional / (spot * 100)

	switch {
	case equivalentContracts >= 500 || notional >= 2_000_000:
		return TraderInstitutional
	case equivalentContracts < 20 && notional < 100_000:
		return TraderRetail
	default:
		return TraderMixed
	}
}

func classifyQuality(s *Signal, th Thresholds) string {
	switch {
	case s.DirectionConfidence >= 0.6 && s.Notional >= th.MinNotional*10:
		return "high"
	case s.DirectionConfidence < 0.35:
		return "low"
	default:
		return "medium"
	}
}

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
