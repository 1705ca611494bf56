package ports

import (
	"context"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
)

// SleepDataSource retrieves already-materialized records for a UTC window.
// Both bounds are inclusive. Implementations skip malformed rows rather than
// failing the whole fetch.
type SleepDataSource interface {
	FetchAggregates(ctx context.Context, start, end core.Instant) ([]sleep.AggregateRecord, error)
	FetchSamples(ctx context.Context, start, end core.Instant) ([]sleep.SamplePoint, error)
}

// SleepDataSink stores imported records. Writes are idempotent per timestamp.
type SleepDataSink interface {
	SaveAggregates(ctx context.Context, records []sleep.AggregateRecord) (int, error)
	SaveSamples(ctx context.Context, samples []sleep.SamplePoint) (int, error)
}

// SleepStore is a source that can also be written to
type SleepStore interface {
	SleepDataSource
	SleepDataSink
}
