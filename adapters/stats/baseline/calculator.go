package baseline

import (
	"math"

	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"

	mfstats "github.com/montanaflynn/stats"
)

const (
	DefaultMinCount = 5
	DefaultEpsilon  = 1e-12
)

// CalculatorConfig controls baseline computation
type CalculatorConfig struct {
	MinCount int     // fewer valid values yields the insufficient sentinel
	Epsilon  float64 // standard deviations below this snap to exactly 0
}

// DefaultCalculatorConfig returns minCount 5, epsilon 1e-12
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{MinCount: DefaultMinCount, Epsilon: DefaultEpsilon}
}

// Calculator computes per-metric baselines for the metrics of a catalog
type Calculator struct {
	catalog sleep.MetricCatalog
	config  CalculatorConfig
}

// NewCalculator creates a calculator bound to catalog
func NewCalculator(catalog sleep.MetricCatalog, config CalculatorConfig) *Calculator {
	if config.MinCount <= 0 {
		config.MinCount = DefaultMinCount
	}
	if config.Epsilon <= 0 {
		config.Epsilon = DefaultEpsilon
	}
	return &Calculator{catalog: catalog, config: config}
}

// Compute returns baselines for every catalog metric, excluding records that
// share exclude's timestamp. exclude may be nil.
func (c *Calculator) Compute(history []sleep.AggregateRecord, exclude *sleep.AggregateRecord) stats.Baselines {
	return computeBaselines(history, c.catalog.Names(), c.config, exclude)
}

// ComputeBaselines is the functional form used when no catalog is at hand
func ComputeBaselines(history []sleep.AggregateRecord, metrics []sleep.MetricName, minCount int, exclude *sleep.AggregateRecord) stats.Baselines {
	return computeBaselines(history, metrics, CalculatorConfig{MinCount: minCount, Epsilon: DefaultEpsilon}, exclude)
}

func computeBaselines(history []sleep.AggregateRecord, metrics []sleep.MetricName, config CalculatorConfig, exclude *sleep.AggregateRecord) stats.Baselines {
	// Step 1: drop every record stamped like the excluded one (duplicates included)
	pool := make([]sleep.AggregateRecord, 0, len(history))
	for _, r := range history {
		if exclude != nil && !exclude.Timestamp.IsZero() && r.Timestamp.Equal(exclude.Timestamp) {
			continue
		}
		pool = append(pool, r)
	}

	// Step 2: per metric, population mean and standard deviation
	out := make(stats.Baselines, len(metrics))
	for _, name := range metrics {
		out[name] = baselineOf(collectValues(pool, name), config)
	}
	return out
}

// collectValues skips missing and non-finite values
func collectValues(records []sleep.AggregateRecord, name sleep.MetricName) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		v, ok := r.Metric(name).Get()
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	return values
}

func baselineOf(values []float64, config CalculatorConfig) stats.Baseline {
	minCount := config.MinCount
	if minCount < 1 {
		minCount = 1
	}
	if len(values) < minCount {
		return stats.InsufficientBaseline(len(values))
	}

	mean, err := mfstats.Mean(values)
	if err != nil {
		return stats.InsufficientBaseline(len(values))
	}
	stdDev, err := mfstats.StandardDeviationPopulation(values)
	if err != nil {
		return stats.InsufficientBaseline(len(values))
	}
	if stdDev < config.Epsilon {
		stdDev = 0
	}

	return stats.Baseline{
		Mean:   mean,
		StdDev: stdDev,
		Count:  len(values),
		Status: stats.BaselineComputed,
	}
}
