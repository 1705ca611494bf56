package sleep

import (
	"sort"
	"time"

	"sleepreport/domain/core"
)

// SamplePoint is one raw intraday reading.
// A sample with a zero Timestamp or unset Stage is kept as-is by adapters and
// dropped by the session builder.
type SamplePoint struct {
	Timestamp       core.Instant             `json:"time"`
	Stage           core.Optional[StageCode] `json:"stage"`
	DurationSeconds core.Optional[float64]   `json:"duration_seconds"`
}

// NewSamplePoint parses loosely typed sample fields. Stage codes arrive as
// floats in most exports and are truncated to integers.
func NewSamplePoint(rawTime, rawStage, rawDuration any) SamplePoint {
	p := SamplePoint{DurationSeconds: core.ParseOptionalFloat(rawDuration)}
	if ts, err := core.NormalizeTime(rawTime); err == nil {
		p.Timestamp = ts
	}
	if code, ok := core.ParseOptionalFloat(rawStage).Get(); ok {
		p.Stage = core.Some(StageCode(int(code)))
	}
	return p
}

// Usable reports whether the sample has both a timestamp and a stage
func (p SamplePoint) Usable() bool {
	return !p.Timestamp.IsZero() && p.Stage.IsSet()
}

// StageSession is a contiguous run of samples belonging to one sleep event.
type StageSession struct {
	Points            []SamplePoint `json:"points"`
	StartUTC          core.Instant  `json:"start_utc"`
	EndUTC            core.Instant  `json:"end_utc"`
	TotalStageSeconds float64       `json:"total_stage_seconds"`
}

// Duration is the wall span from first sample to synthesized end
func (s StageSession) Duration() time.Duration {
	return s.EndUTC.Sub(s.StartUTC)
}

// Len returns the number of samples in the session
func (s StageSession) Len() int {
	return len(s.Points)
}

// AggregateRecord is one night's summary.
type AggregateRecord struct {
	Timestamp    core.Instant `json:"time"`
	CalendarDate string       `json:"calendarDate,omitempty"`

	AvgSleepStress       core.Optional[float64] `json:"avgSleepStress"`
	AwakeCount           core.Optional[float64] `json:"awakeCount"`
	AwakeSleepSeconds    core.Optional[float64] `json:"awakeSleepSeconds"`
	DeepSleepSeconds     core.Optional[float64] `json:"deepSleepSeconds"`
	RemSleepSeconds      core.Optional[float64] `json:"remSleepSeconds"`
	RestingHeartRate     core.Optional[float64] `json:"restingHeartRate"`
	RestlessMomentsCount core.Optional[float64] `json:"restlessMomentsCount"`
	SleepScore           core.Optional[float64] `json:"sleepScore"`
	SleepTimeSeconds     core.Optional[float64] `json:"sleepTimeSeconds"`

	// Extra keeps numeric fields this package has no named slot for
	Extra map[MetricName]core.Optional[float64] `json:"extra,omitempty"`
}

// Metric returns the named metric value, falling back to Extra
func (r AggregateRecord) Metric(name MetricName) core.Optional[float64] {
	switch name {
	case MetricAvgSleepStress:
		return r.AvgSleepStress
	case MetricAwakeCount:
		return r.AwakeCount
	case MetricAwakeSleepSeconds:
		return r.AwakeSleepSeconds
	case MetricDeepSleepSeconds:
		return r.DeepSleepSeconds
	case MetricRemSleepSeconds:
		return r.RemSleepSeconds
	case MetricRestingHeartRate:
		return r.RestingHeartRate
	case MetricRestlessMomentsCount:
		return r.RestlessMomentsCount
	case MetricSleepScore:
		return r.SleepScore
	case MetricSleepTimeSeconds:
		return r.SleepTimeSeconds
	}
	if v, ok := r.Extra[name]; ok {
		return v
	}
	return core.None[float64]()
}

// WithMetric returns a copy of r with name set to v. Extra is copied, never shared.
func (r AggregateRecord) WithMetric(name MetricName, v core.Optional[float64]) AggregateRecord {
	switch name {
	case MetricAvgSleepStress:
		r.AvgSleepStress = v
	case MetricAwakeCount:
		r.AwakeCount = v
	case MetricAwakeSleepSeconds:
		r.AwakeSleepSeconds = v
	case MetricDeepSleepSeconds:
		r.DeepSleepSeconds = v
	case MetricRemSleepSeconds:
		r.RemSleepSeconds = v
	case MetricRestingHeartRate:
		r.RestingHeartRate = v
	case MetricRestlessMomentsCount:
		r.RestlessMomentsCount = v
	case MetricSleepScore:
		r.SleepScore = v
	case MetricSleepTimeSeconds:
		r.SleepTimeSeconds = v
	default:
		extra := make(map[MetricName]core.Optional[float64], len(r.Extra)+1)
		for k, val := range r.Extra {
			extra[k] = val
		}
		extra[name] = v
		r.Extra = extra
	}
	return r
}

// KnownMetricNames lists the metrics with a named field on AggregateRecord
func KnownMetricNames() []MetricName {
	return []MetricName{
		MetricAvgSleepStress, MetricAwakeCount, MetricAwakeSleepSeconds,
		MetricDeepSleepSeconds, MetricRemSleepSeconds, MetricRestingHeartRate,
		MetricRestlessMomentsCount, MetricSleepScore, MetricSleepTimeSeconds,
	}
}

// SleepKey returns the delivery dedupe key for the night
func (r AggregateRecord) SleepKey() core.SleepKey {
	return core.NewSleepKey(r.CalendarDate, r.Timestamp)
}

// SortAggregates sorts records ascending by timestamp, keeping input order for ties
func SortAggregates(records []AggregateRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
