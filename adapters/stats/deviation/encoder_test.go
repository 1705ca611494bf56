package deviation

import (
	"testing"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lowerSpec  = sleep.MetricSpec{Name: sleep.MetricRestingHeartRate, Polarity: sleep.LowerIsBetter, Label: "resting HR", Unit: sleep.UnitBPM}
	higherSpec = sleep.MetricSpec{Name: sleep.MetricSleepScore, Polarity: sleep.HigherIsBetter, Label: "sleep score", Unit: sleep.UnitScore}
)

func computed(mean, stdDev float64) stats.Baseline {
	return stats.Baseline{Mean: mean, StdDev: stdDev, Count: 7, Status: stats.BaselineComputed}
}

func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	enc, err := NewEncoder(DefaultEncoderConfig())
	require.NoError(t, err)
	return enc
}

func TestEncode_LowerIsBetterAboveMean(t *testing.T) {
	enc := newTestEncoder(t)

	card := enc.Encode(lowerSpec, core.Some(50.0), computed(30.0, 14.14))

	assert.InDelta(t, 1.414, card.ZScore, 0.01)
	assert.InDelta(t, -1.414, card.GoodnessScore, 0.01)
	assert.Equal(t, stats.RampUnfavorable, card.ColorBin.Ramp)
	// t = (1.414/2.5)^1.6 ~= 0.40, round(0.40*5) = 2
	assert.Equal(t, 2, card.ColorBin.Index)
	assert.InDelta(t, 0.35+0.60*(1.414/2.5), card.Alpha, 0.01)
	assert.Equal(t, stats.VerdictWorse, card.Verdict)
	assert.Less(t, card.Percentile, 0.5)
	assert.Equal(t, "#b88c80", DefaultPalette().Color(card.ColorBin))
}

func TestEncode_SignConsistency(t *testing.T) {
	enc := newTestEncoder(t)
	b := computed(60, 5)

	below := enc.Encode(lowerSpec, core.Some(52.0), b)
	assert.Greater(t, below.GoodnessScore, 0.0)
	assert.Equal(t, stats.RampFavorable, below.ColorBin.Ramp)
	assert.Equal(t, stats.VerdictBetter, below.Verdict)

	higherBelow := enc.Encode(higherSpec, core.Some(52.0), b)
	assert.Less(t, higherBelow.GoodnessScore, 0.0)
	assert.Equal(t, stats.RampUnfavorable, higherBelow.ColorBin.Ramp)
}

func TestEncode_AtMean(t *testing.T) {
	enc := newTestEncoder(t)

	card := enc.Encode(higherSpec, core.Some(80.0), computed(80, 6))

	assert.Equal(t, 0.0, card.ZScore)
	assert.Equal(t, 0, card.ColorBin.Index)
	assert.Equal(t, stats.RampFavorable, card.ColorBin.Ramp)
	assert.InDelta(t, 0.35, card.Alpha, 1e-12)
	assert.Equal(t, stats.VerdictSame, card.Verdict)
	assert.Equal(t, NeutralColor, DefaultPalette().Color(card.ColorBin))
}

func TestEncode_MonotoneInMagnitude(t *testing.T) {
	enc := newTestEncoder(t)
	b := computed(0, 1)

	prev := -1
	for z := 0.0; z <= 4.0; z += 0.05 {
		card := enc.Encode(higherSpec, core.Some(z), b)
		assert.GreaterOrEqual(t, card.ColorBin.Index, prev, "z=%.2f", z)
		prev = card.ColorBin.Index
	}
	assert.Equal(t, DefaultRampLength-1, prev)
}

func TestEncode_CapsSigma(t *testing.T) {
	enc := newTestEncoder(t)

	card := enc.Encode(higherSpec, core.Some(100.0), computed(0, 1))

	assert.Equal(t, DefaultSigmaCap, card.Sigma)
	assert.Equal(t, 5, card.ColorBin.Index)
	assert.InDelta(t, 0.95, card.Alpha, 1e-12)
}

func TestEncode_NoComparison(t *testing.T) {
	enc := newTestEncoder(t)

	missing := enc.Encode(higherSpec, core.None[float64](), computed(80, 6))
	assert.Equal(t, 0.0, missing.ZScore)
	assert.Equal(t, stats.VerdictMissing, missing.Verdict)

	insufficient := enc.Encode(higherSpec, core.Some(90.0), stats.InsufficientBaseline(3))
	assert.Equal(t, 0.0, insufficient.ZScore)
	assert.Equal(t, 0, insufficient.ColorBin.Index)
	assert.Equal(t, stats.VerdictNoBaseline, insufficient.Verdict)

	flat := enc.Encode(higherSpec, core.Some(90.0), computed(80, 0))
	assert.Equal(t, 0.0, flat.ZScore)
	assert.Equal(t, stats.VerdictBetter, flat.Verdict)
	assert.InDelta(t, 0.5, flat.Percentile, 1e-12)
}

func TestEncodeRecord_CatalogOrder(t *testing.T) {
	enc := newTestEncoder(t)
	catalog := sleep.DefaultMetricCatalog()
	record := sleep.AggregateRecord{Timestamp: core.Unix(1710000000), SleepScore: core.Some(77.0)}

	cards := enc.EncodeRecord(record, stats.Baselines{sleep.MetricSleepScore: computed(70, 7)}, catalog)

	require.Len(t, cards, catalog.Len())
	for i, name := range catalog.Names() {
		assert.Equal(t, name, cards[i].Metric)
	}
}

func TestNewEncoder_RejectsBadConfig(t *testing.T) {
	bad := DefaultEncoderConfig()
	bad.SigmaCap = 0
	_, err := NewEncoder(bad)
	assert.Error(t, err)

	bad = DefaultEncoderConfig()
	bad.RampLength = 0
	_, err = NewEncoder(bad)
	assert.Error(t, err)
}

func TestPalette(t *testing.T) {
	p := DefaultPalette()
	require.NoError(t, p.Validate())
	assert.Equal(t, "#af1c17", p.Color(stats.ColorBin{Ramp: stats.RampUnfavorable, Index: 99}))
	assert.Equal(t, NeutralColor, p.Color(stats.ColorBin{Ramp: stats.RampFavorable, Index: -1}))

	assert.Error(t, Palette{Favorable: []string{"#000"}}.Validate())
	assert.Equal(t, DefaultRampLength, p.Len())
}
