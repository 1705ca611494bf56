package stats

import (
	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
)

// Ramp selects the color family of a card
type Ramp string

const (
	RampFavorable   Ramp = "favorable"
	RampUnfavorable Ramp = "unfavorable"
)

// ColorBin is a discrete position on one ramp; index 0 is neutral
type ColorBin struct {
	Ramp  Ramp `json:"ramp"`
	Index int  `json:"index"`
}

// Verdict is the plain-language comparison against the baseline mean
type Verdict string

const (
	VerdictBetter     Verdict = "better"
	VerdictWorse      Verdict = "worse"
	VerdictSame       Verdict = "same"
	VerdictNoBaseline Verdict = "no_baseline"
	VerdictMissing    Verdict = "missing"
)

// DeviationCard is the per-metric comparison rendered on the report.
// GoodnessScore > 0 always means "better than baseline".
type DeviationCard struct {
	Metric         sleep.MetricName       `json:"metric"`
	Label          string                 `json:"label"`
	Unit           sleep.ValueUnit        `json:"unit"`
	CurrentValue   core.Optional[float64] `json:"current_value"`
	Mean           float64                `json:"mean"`
	StdDev         float64                `json:"std_dev"`
	BaselineCount  int                    `json:"baseline_count"`
	BaselineStatus BaselineStatus         `json:"baseline_status"`
	ZScore         float64                `json:"z_score"`
	GoodnessScore  float64                `json:"goodness_score"`
	Sigma          float64                `json:"sigma"`
	ColorBin       ColorBin               `json:"color_bin"`
	Alpha          float64                `json:"alpha"`
	Percentile     float64                `json:"percentile"`
	Verdict        Verdict                `json:"verdict"`
}
