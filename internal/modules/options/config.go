package options

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds holds every tunable of the scan pipeline. Defaults match the
// values the dashboard was calibrated against; a YAML file can override
// any subset.
type Thresholds struct {
	// Filter gates
	MinVolume          int64   `yaml:"min_volume"`
	MinNotional        float64 `yaml:"min_notional"`
	MinNotionalNoRatio float64 `yaml:"min_notional_no_ratio"`
	MinRatio           float64 `yaml:"min_ratio"`

	// OTM bands (moneyness = strike / spot)
	CallOTMMin  float64 `yaml:"call_otm_min"`
	CallBandMax float64 `yaml:"call_band_max"`
	PutOTMMax   float64 `yaml:"put_otm_max"`
	PutBandMin  float64 `yaml:"put_band_min"`

	// Freshness windows in minutes. The extended window spans weekends.
	FreshWindowRegularMins  float64 `yaml:"fresh_window_regular_mins"`
	FreshWindowExtendedMins float64 `yaml:"fresh_window_extended_mins"`

	// Combo matching
	ComboBaseWindowMins   float64 `yaml:"combo_base_window_mins"`
	ComboNotionalRatioTol float64 `yaml:"combo_notional_ratio_tol"`
	ComboVolumeRatioTol   float64 `yaml:"combo_volume_ratio_tol"`
	ComboStrikeTolPct     float64 `yaml:"combo_strike_tol_pct"`

	// Hedge scoring cuts
	DeepOTMPutCut   float64 `yaml:"deep_otm_put_cut"`
	LargeOTMCallCut float64 `yaml:"large_otm_call_cut"`
	LongTermDays    float64 `yaml:"long_term_days"`
	ShortTermDays   float64 `yaml:"short_term_days"`
	HighIVCut       float64 `yaml:"high_iv_cut"`
	HedgeAlpha      float64 `yaml:"hedge_alpha"`

	// Sentiment aggregation
	HalfLifeMins         float64 `yaml:"half_life_mins"`
	WindowMins           float64 `yaml:"window_mins"`
	WindowThreshold      float64 `yaml:"window_threshold"`
	AuxShortPutWeight    float64 `yaml:"aux_short_put_weight"`
	ConfidenceThreshold  float64 `yaml:"confidence_threshold"`
	MarketCapConfRatio   float64 `yaml:"market_cap_conf_ratio"`
	ConfidenceCapMin     float64 `yaml:"confidence_cap_min"`
	ConfidenceCapMax     float64 `yaml:"confidence_cap_max"`
}

// DefaultThresholds returns the calibrated defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinVolume:          50,
		MinNotional:        5000,
		MinNotionalNoRatio: 2500,
		MinRatio:           0.25,

		CallOTMMin:  1.05,
		CallBandMax: 1.6,
		PutOTMMax:   0.95,
		PutBandMin:  0.5,

		FreshWindowRegularMins:  60,
		FreshWindowExtendedMins: 4320, // 72h, spans weekends

		ComboBaseWindowMins:   5,
		ComboNotionalRatioTol: 1.5,
		ComboVolumeRatioTol:   1.5,
		ComboStrikeTolPct:     0.05,

		DeepOTMPutCut:   0.85,
		LargeOTMCallCut: 1.15,
		LongTermDays:    90,
		ShortTermDays:   14,
		HighIVCut:       0.5,
		HedgeAlpha:      0.7,

		HalfLifeMins:        120,
		WindowMins:          30,
		WindowThreshold:     250000,
		AuxShortPutWeight:   0.5,
		ConfidenceThreshold: 500000,
		MarketCapConfRatio:  0,
		ConfidenceCapMin:    100000,
		ConfidenceCapMax:    5000000,
	}
}

// LoadThresholds reads a YAML overrides file on top of the defaults.
// An empty path returns the defaults unchanged.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	if path == "" {
		return th, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	if err := yaml.Unmarshal(data, &th); err != nil {
		return th, fmt.Errorf("failed to parse thresholds file: %w", err)
	}

	return th, nil
}

// FreshWindowMins returns the freshness window for the given session state
func (t Thresholds) FreshWindowMins(regularSession bool) float64 {
	if regularSession {
		return t.FreshWindowRegularMins
	}
	return t.FreshWindowExtendedMins
}
