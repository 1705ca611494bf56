package deviation

import (
	"fmt"
	"math"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================================
// DEVIATION ENCODING
// ============================================================================
// A current value is compared against its baseline as a z-score, re-signed by
// metric polarity so that a positive goodness score always reads "better".
// The magnitude is capped, gamma-compressed and binned onto a diverging ramp.
// ============================================================================

const (
	DefaultSigmaCap   = 2.5
	DefaultGamma      = 1.6
	DefaultRampLength = 6
	DefaultAlphaBase  = 0.35
	DefaultAlphaSpan  = 0.60

	// values closer than this to the mean read as "about the same"
	verdictTolerance = 1e-9
)

// EncoderConfig holds the rendering parameters of the color scale
type EncoderConfig struct {
	SigmaCap   float64 `yaml:"sigma_cap"`
	Gamma      float64 `yaml:"gamma"`
	RampLength int     `yaml:"ramp_length"`
	AlphaBase  float64 `yaml:"alpha_base"`
	AlphaSpan  float64 `yaml:"alpha_span"`
}

// DefaultEncoderConfig returns cap 2.5, gamma 1.6, 6-step ramps
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		SigmaCap:   DefaultSigmaCap,
		Gamma:      DefaultGamma,
		RampLength: DefaultRampLength,
		AlphaBase:  DefaultAlphaBase,
		AlphaSpan:  DefaultAlphaSpan,
	}
}

// Validate rejects scales that cannot produce a bin
func (c EncoderConfig) Validate() error {
	if c.SigmaCap <= 0 || math.IsInf(c.SigmaCap, 0) || math.IsNaN(c.SigmaCap) {
		return fmt.Errorf("sigma cap must be positive, got %v", c.SigmaCap)
	}
	if c.Gamma <= 0 || math.IsNaN(c.Gamma) {
		return fmt.Errorf("gamma must be positive, got %v", c.Gamma)
	}
	if c.RampLength < 1 {
		return fmt.Errorf("ramp length must be at least 1, got %d", c.RampLength)
	}
	return nil
}

// Encoder turns (value, baseline, polarity) into deviation cards
type Encoder struct {
	config EncoderConfig
}

// NewEncoder validates config and returns an encoder
func NewEncoder(config EncoderConfig) (*Encoder, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder config: %w", err)
	}
	return &Encoder{config: config}, nil
}

// Config returns the encoder's scale parameters
func (e *Encoder) Config() EncoderConfig {
	return e.config
}

// Encode builds the card for one metric
func (e *Encoder) Encode(spec sleep.MetricSpec, current core.Optional[float64], baseline stats.Baseline) stats.DeviationCard {
	card := stats.DeviationCard{
		Metric:         spec.Name,
		Label:          spec.Label,
		Unit:           spec.Unit,
		CurrentValue:   current,
		Mean:           baseline.Mean,
		StdDev:         baseline.StdDev,
		BaselineCount:  baseline.Count,
		BaselineStatus: baseline.Status,
	}

	// Step 1: signed deviation, 0 whenever no comparison is possible
	value, present := current.Get()
	if present && baseline.Comparable() {
		card.ZScore = (value - baseline.Mean) / baseline.StdDev
	}

	// Step 2: polarity-adjusted goodness
	card.GoodnessScore = card.ZScore
	if !spec.HigherIsBetter() {
		card.GoodnessScore = -card.ZScore
	}

	// Step 3: capped magnitude drives both bin and alpha
	card.Sigma = math.Min(math.Abs(card.ZScore), e.config.SigmaCap)
	ramp := stats.RampFavorable
	if card.GoodnessScore < 0 {
		ramp = stats.RampUnfavorable
	}
	card.ColorBin = stats.ColorBin{Ramp: ramp, Index: e.binIndex(card.Sigma)}
	card.Alpha = e.config.AlphaBase + e.config.AlphaSpan*(card.Sigma/e.config.SigmaCap)

	card.Percentile = distuv.UnitNormal.CDF(card.GoodnessScore)
	card.Verdict = verdict(spec, current, baseline)
	return card
}

// EncodeRecord encodes every catalog metric of record, in catalog order
func (e *Encoder) EncodeRecord(record sleep.AggregateRecord, baselines stats.Baselines, catalog sleep.MetricCatalog) []stats.DeviationCard {
	specs := catalog.Specs()
	cards := make([]stats.DeviationCard, 0, len(specs))
	for _, spec := range specs {
		cards = append(cards, e.Encode(spec, record.Metric(spec.Name), baselines.Get(spec.Name)))
	}
	return cards
}

// binIndex maps sigma in [0, cap] to a ramp index via t = (sigma/cap)^gamma
func (e *Encoder) binIndex(sigma float64) int {
	t := math.Pow(sigma/e.config.SigmaCap, e.config.Gamma)
	idx := int(math.Round(t * float64(e.config.RampLength-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > e.config.RampLength-1 {
		idx = e.config.RampLength - 1
	}
	return idx
}

// verdict compares against the mean directly, so a zero-spread baseline still
// yields better/worse/same
func verdict(spec sleep.MetricSpec, current core.Optional[float64], baseline stats.Baseline) stats.Verdict {
	value, ok := current.Get()
	if !ok {
		return stats.VerdictMissing
	}
	if !baseline.IsSufficient() {
		return stats.VerdictNoBaseline
	}
	if math.Abs(value-baseline.Mean) < verdictTolerance {
		return stats.VerdictSame
	}
	if (value > baseline.Mean) == spec.HigherIsBetter() {
		return stats.VerdictBetter
	}
	return stats.VerdictWorse
}
