package stats

import "sleepreport/domain/sleep"

// BaselineStatus distinguishes "not enough history" from a computed baseline.
// A computed baseline may still have zero spread.
type BaselineStatus string

const (
	BaselineInsufficient BaselineStatus = "insufficient"
	BaselineComputed     BaselineStatus = "computed"
)

// Baseline is the historical mean and population standard deviation of one metric.
// INVARIANTS:
// - StdDev >= 0, and exactly 0 when below the numeric epsilon
// - Insufficient baselines carry Mean == StdDev == 0
type Baseline struct {
	Mean   float64        `json:"mean"`
	StdDev float64        `json:"std_dev"`
	Count  int            `json:"count"`
	Status BaselineStatus `json:"status"`
}

// InsufficientBaseline is the (0, 0) sentinel for a metric with too few values
func InsufficientBaseline(count int) Baseline {
	return Baseline{Count: count, Status: BaselineInsufficient}
}

// IsSufficient reports whether enough history existed to compute the baseline
func (b Baseline) IsSufficient() bool {
	return b.Status == BaselineComputed
}

// Comparable reports whether a z-score against this baseline is meaningful
func (b Baseline) Comparable() bool {
	return b.IsSufficient() && b.StdDev > 0
}

// Baselines maps metric name to its baseline
type Baselines map[sleep.MetricName]Baseline

// Get returns the baseline for name, or an insufficient sentinel when absent
func (b Baselines) Get(name sleep.MetricName) Baseline {
	if bl, ok := b[name]; ok {
		return bl
	}
	return InsufficientBaseline(0)
}
