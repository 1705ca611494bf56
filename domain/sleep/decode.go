package sleep

import (
	"strings"

	"sleepreport/domain/core"
)

// Field names used by the upstream sleep exports
const (
	FieldTime            = "time"
	FieldCalendarDate    = "calendarDate"
	FieldStageLevel      = "SleepStageLevel"
	FieldStageSeconds    = "SleepStageSeconds"
	fieldMeasurementName = "measurement"
)

// nonMetricFields are tags carried by exports that never hold metric values
var nonMetricFields = map[string]bool{
	FieldTime:            true,
	FieldCalendarDate:    true,
	fieldMeasurementName: true,
	"Device":             true,
	"Database":           true,
}

// AggregateFromFields converts one decoded export row into a typed record.
// The row is inspected once here; downstream code only sees typed fields.
// A row whose time cannot be parsed is returned with the parse error so
// callers can decide whether to skip it.
func AggregateFromFields(fields map[string]any) (AggregateRecord, error) {
	rec := AggregateRecord{}

	ts, err := core.NormalizeTime(fields[FieldTime])
	if err != nil {
		return rec, err
	}
	rec.Timestamp = ts

	if cd, ok := fields[FieldCalendarDate].(string); ok {
		rec.CalendarDate = strings.TrimSpace(cd)
	}

	for key, raw := range fields {
		if nonMetricFields[key] {
			continue
		}
		v := core.ParseOptionalFloat(raw)
		name := MetricName(key)
		if isKnownMetric(name) {
			rec = rec.WithMetric(name, v)
			continue
		}
		if v.IsSet() {
			rec = rec.WithMetric(name, v)
		}
	}
	return rec, nil
}

// SampleFromFields converts one decoded intraday row into a SamplePoint
func SampleFromFields(fields map[string]any) SamplePoint {
	return NewSamplePoint(fields[FieldTime], fields[FieldStageLevel], fields[FieldStageSeconds])
}

func isKnownMetric(name MetricName) bool {
	for _, known := range KnownMetricNames() {
		if known == name {
			return true
		}
	}
	return false
}
