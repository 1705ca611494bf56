package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"sleepreport/adapters/stats/baseline"
	"sleepreport/adapters/stats/deviation"
	"sleepreport/adapters/stats/session"
	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"
	"sleepreport/internal/errors"
	"sleepreport/internal/report"
	"sleepreport/ports"
)

// PipelineConfig holds the knobs shared by image and text reports
type PipelineConfig struct {
	DisplayTimezone string
	SummaryDays     int
	Builder         session.BuilderConfig
	Window          session.WindowConfig
	Baseline        baseline.CalculatorConfig
}

// DefaultPipelineConfig returns a 30-day baseline in America/Toronto
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		DisplayTimezone: "America/Toronto",
		SummaryDays:     30,
		Builder:         session.DefaultBuilderConfig(),
		Window:          session.DefaultWindowConfig(),
		Baseline:        baseline.DefaultCalculatorConfig(),
	}
}

// Pipeline runs the pure core against a data source: select the night,
// compute baselines, encode cards and find the matching session.
type Pipeline struct {
	source     ports.SleepDataSource
	catalog    sleep.MetricCatalog
	calculator *baseline.Calculator
	encoder    *deviation.Encoder
	config     PipelineConfig
	now        func() time.Time
}

// NewPipeline wires the core components around source
func NewPipeline(source ports.SleepDataSource, catalog sleep.MetricCatalog, encoder *deviation.Encoder, config PipelineConfig) *Pipeline {
	if config.SummaryDays < 1 {
		config.SummaryDays = DefaultPipelineConfig().SummaryDays
	}
	return &Pipeline{
		source:     source,
		catalog:    catalog,
		calculator: baseline.NewCalculator(catalog, config.Baseline),
		encoder:    encoder,
		config:     config,
		now:        time.Now,
	}
}

// WithClock replaces the wall clock used for the trailing history window
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Catalog returns the metric catalog in card order
func (p *Pipeline) Catalog() sleep.MetricCatalog {
	return p.catalog
}

// Location resolves the display timezone
func (p *Pipeline) Location() (*time.Location, error) {
	return report.LoadDisplayLocation(p.config.DisplayTimezone)
}

// Selection is the night being reported and the history around it
type Selection struct {
	Current sleep.AggregateRecord
	History []sleep.AggregateRecord
	Day     string
	Latest  bool
}

// SleepKey is the dedupe key of the selected night
func (s Selection) SleepKey() core.SleepKey {
	return s.Current.SleepKey()
}

// Select picks the current record: the latest one when day is empty, else the
// record of that local day. History covers SummaryDays before the current record.
func (p *Pipeline) Select(ctx context.Context, day string) (*Selection, error) {
	loc, err := p.Location()
	if err != nil {
		return nil, errors.Classify(err, "invalid display timezone")
	}

	span := time.Duration(p.config.SummaryDays) * 24 * time.Hour
	sel := &Selection{Latest: day == ""}

	if sel.Latest {
		now := core.NewInstant(p.now())
		history, err := p.source.FetchAggregates(ctx, now.Add(-span), now)
		if err != nil {
			return nil, errors.ExternalServiceError("sleep data source", err)
		}
		current, err := session.SelectCurrent(history)
		if err != nil {
			return nil, errors.Classify(err, fmt.Sprintf("no sleep summary in the last %d days", p.config.SummaryDays))
		}
		sel.Current, sel.History = current, history
	} else {
		start, end, err := session.DayFetchWindow(day, loc)
		if err != nil {
			return nil, errors.Classify(err, "invalid day")
		}
		candidates, err := p.source.FetchAggregates(ctx, start, end)
		if err != nil {
			return nil, errors.ExternalServiceError("sleep data source", err)
		}
		current, err := session.SelectForDay(candidates, day, loc)
		if err != nil {
			return nil, errors.Classify(err, "no sleep summary for "+day)
		}

		// the window ends just past the current record so it is fetched and then excluded
		history, err := p.source.FetchAggregates(ctx, current.Timestamp.Add(-span), current.Timestamp.Add(time.Second))
		if err != nil {
			return nil, errors.ExternalServiceError("sleep data source", err)
		}
		sel.Current, sel.History = current, history
	}

	sel.Day = DayKey(sel.Current, loc)
	log.Printf("[Pipeline] selected %s (%d history records, latest=%t)", sel.Day, len(sel.History), sel.Latest)
	return sel, nil
}

// Baselines computes exclude-self baselines over the selection history
func (p *Pipeline) Baselines(sel *Selection) stats.Baselines {
	return p.calculator.Compute(sel.History, &sel.Current)
}

// Cards encodes the current record against baselines in catalog order
func (p *Pipeline) Cards(current sleep.AggregateRecord, baselines stats.Baselines) []stats.DeviationCard {
	return p.encoder.EncodeRecord(current, baselines, p.catalog)
}

// MatchSession fetches intraday samples around current and returns its session
func (p *Pipeline) MatchSession(ctx context.Context, current sleep.AggregateRecord) (sleep.StageSession, error) {
	start, end, err := session.ComputeFetchWindow(current, p.config.Window)
	if err != nil {
		return sleep.StageSession{}, errors.Classify(err, "cannot derive intraday window")
	}
	samples, err := p.source.FetchSamples(ctx, start, end)
	if err != nil {
		return sleep.StageSession{}, errors.ExternalServiceError("sleep data source", err)
	}

	sessions := session.BuildSessions(samples, p.config.Builder)
	matched, err := session.MatchSession(current, sessions)
	if err != nil {
		return sleep.StageSession{}, errors.Classify(err, fmt.Sprintf("no sleep session near %s", current.Timestamp))
	}
	log.Printf("[Pipeline] matched session %s..%s (%d samples of %d, %d sessions)",
		matched.StartUTC, matched.EndUTC, matched.Len(), len(samples), len(sessions))
	return matched, nil
}

// DayKey names the night: the calendar date when present, else the local
// date of the record timestamp
func DayKey(rec sleep.AggregateRecord, loc *time.Location) string {
	if cd := rec.CalendarDate; cd != "" {
		if len(cd) > 10 {
			return cd[:10]
		}
		return cd
	}
	return rec.Timestamp.In(loc).Format(time.DateOnly)
}
