package sleep

import (
	"fmt"
	"strings"
)

// MetricName identifies a nightly aggregate metric
type MetricName string

const (
	MetricAvgSleepStress       MetricName = "avgSleepStress"
	MetricAwakeCount           MetricName = "awakeCount"
	MetricAwakeSleepSeconds    MetricName = "awakeSleepSeconds"
	MetricDeepSleepSeconds     MetricName = "deepSleepSeconds"
	MetricRemSleepSeconds      MetricName = "remSleepSeconds"
	MetricRestingHeartRate     MetricName = "restingHeartRate"
	MetricRestlessMomentsCount MetricName = "restlessMomentsCount"
	MetricSleepScore           MetricName = "sleepScore"
	MetricSleepTimeSeconds     MetricName = "sleepTimeSeconds"
)

// Polarity says which direction of change is favorable
type Polarity string

const (
	HigherIsBetter Polarity = "higher_is_better"
	LowerIsBetter  Polarity = "lower_is_better"
)

// ValueUnit controls how values are formatted for display
type ValueUnit string

const (
	UnitSeconds ValueUnit = "seconds" // shown as hours and minutes
	UnitMinutes ValueUnit = "minutes" // seconds, shown as whole minutes
	UnitCount   ValueUnit = "count"
	UnitBPM     ValueUnit = "bpm"
	UnitScore   ValueUnit = "score"
	UnitPlain   ValueUnit = "plain"
)

// MetricSpec is one entry of the metric catalog
type MetricSpec struct {
	Name     MetricName `json:"name" yaml:"name"`
	Polarity Polarity   `json:"polarity" yaml:"polarity"`
	Label    string     `json:"label" yaml:"label"`
	Unit     ValueUnit  `json:"unit" yaml:"unit"`
}

// HigherIsBetter reports the polarity as a bool
func (s MetricSpec) HigherIsBetter() bool {
	return s.Polarity == HigherIsBetter
}

// MetricCatalog is the ordered, immutable metric/polarity table shared by
// baseline computation, encoding and rendering. Build it once and pass it in.
type MetricCatalog struct {
	specs []MetricSpec
	index map[MetricName]int
}

// NewMetricCatalog validates and copies specs. Order is preserved and becomes
// the card order.
func NewMetricCatalog(specs ...MetricSpec) (MetricCatalog, error) {
	if len(specs) == 0 {
		return MetricCatalog{}, fmt.Errorf("metric catalog cannot be empty")
	}
	c := MetricCatalog{
		specs: make([]MetricSpec, 0, len(specs)),
		index: make(map[MetricName]int, len(specs)),
	}
	for _, spec := range specs {
		if strings.TrimSpace(string(spec.Name)) == "" {
			return MetricCatalog{}, fmt.Errorf("metric name cannot be empty")
		}
		if spec.Polarity != HigherIsBetter && spec.Polarity != LowerIsBetter {
			return MetricCatalog{}, fmt.Errorf("metric %s: invalid polarity %q", spec.Name, spec.Polarity)
		}
		if _, dup := c.index[spec.Name]; dup {
			return MetricCatalog{}, fmt.Errorf("metric %s listed twice", spec.Name)
		}
		if spec.Label == "" {
			spec.Label = string(spec.Name)
		}
		if spec.Unit == "" {
			spec.Unit = UnitPlain
		}
		c.index[spec.Name] = len(c.specs)
		c.specs = append(c.specs, spec)
	}
	return c, nil
}

// DefaultMetricCatalog returns the nine nightly summary metrics
func DefaultMetricCatalog() MetricCatalog {
	c, err := NewMetricCatalog(
		MetricSpec{MetricAvgSleepStress, LowerIsBetter, "avg sleep stress", UnitPlain},
		MetricSpec{MetricAwakeCount, LowerIsBetter, "awakenings", UnitCount},
		MetricSpec{MetricAwakeSleepSeconds, LowerIsBetter, "awake time", UnitMinutes},
		MetricSpec{MetricDeepSleepSeconds, HigherIsBetter, "deep sleep", UnitSeconds},
		MetricSpec{MetricRemSleepSeconds, HigherIsBetter, "REM sleep", UnitSeconds},
		MetricSpec{MetricRestingHeartRate, LowerIsBetter, "resting HR", UnitBPM},
		MetricSpec{MetricRestlessMomentsCount, LowerIsBetter, "restless moments", UnitCount},
		MetricSpec{MetricSleepScore, HigherIsBetter, "sleep score", UnitScore},
		MetricSpec{MetricSleepTimeSeconds, HigherIsBetter, "total sleep time", UnitSeconds},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of metrics
func (c MetricCatalog) Len() int { return len(c.specs) }

// Specs returns a copy of the catalog in order
func (c MetricCatalog) Specs() []MetricSpec {
	out := make([]MetricSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Names returns the metric names in order
func (c MetricCatalog) Names() []MetricName {
	out := make([]MetricName, len(c.specs))
	for i, s := range c.specs {
		out[i] = s.Name
	}
	return out
}

// Lookup finds a metric spec by name
func (c MetricCatalog) Lookup(name MetricName) (MetricSpec, bool) {
	i, ok := c.index[name]
	if !ok {
		return MetricSpec{}, false
	}
	return c.specs[i], true
}

// Label returns the display label, falling back to the raw name
func (c MetricCatalog) Label(name MetricName) string {
	if s, ok := c.Lookup(name); ok {
		return s.Label
	}
	return string(name)
}
