package app

import (
	"context"
	"log"
	"time"

	"sleepreport/domain/core"
	"sleepreport/internal/errors"
	"sleepreport/ports"
)

// ImportResult counts what one import copied
type ImportResult struct {
	Aggregates int           `json:"aggregates"`
	Samples    int           `json:"samples"`
	Took       time.Duration `json:"took"`
}

// ImportService copies sleep data from one source into a writable store
type ImportService struct {
	source ports.SleepDataSource
	sink   ports.SleepDataSink
}

// NewImportService creates an importer from source into sink
func NewImportService(source ports.SleepDataSource, sink ports.SleepDataSink) *ImportService {
	return &ImportService{source: source, sink: sink}
}

// Import copies every record and sample stamped within [start, end].
// Saving is idempotent, so re-running an import only refreshes values.
func (s *ImportService) Import(ctx context.Context, start, end core.Instant) (*ImportResult, error) {
	if s.sink == nil {
		return nil, errors.ValidationError("the target store is read-only")
	}
	if end.Before(start) {
		return nil, errors.InvalidInput("import window ends before it starts")
	}
	startTime := time.Now()

	// Step 1: nightly summaries
	records, err := s.source.FetchAggregates(ctx, start, end)
	if err != nil {
		return nil, errors.ExternalServiceError("import source", err)
	}
	savedRecords, err := s.sink.SaveAggregates(ctx, records)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save summaries")
	}

	// Step 2: intraday samples
	samples, err := s.source.FetchSamples(ctx, start, end)
	if err != nil {
		return nil, errors.ExternalServiceError("import source", err)
	}
	savedSamples, err := s.sink.SaveSamples(ctx, samples)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save samples")
	}

	result := &ImportResult{Aggregates: savedRecords, Samples: savedSamples, Took: time.Since(startTime)}
	log.Printf("[ImportService] imported %d summaries and %d samples in %s",
		result.Aggregates, result.Samples, result.Took.Round(time.Millisecond))
	return result, nil
}

// ImportAll is Import over every timestamp a source can hold
func (s *ImportService) ImportAll(ctx context.Context) (*ImportResult, error) {
	return s.Import(ctx, core.NewInstant(time.Unix(0, 0)), core.NewInstant(time.Now().AddDate(1, 0, 0)))
}
