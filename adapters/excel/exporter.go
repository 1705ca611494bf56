package excel

import (
	"fmt"
	"io"
	"log"
	"strconv"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"

	"github.com/xuri/excelize/v2"
)

// WorkbookExport is everything written to one export workbook.
// Baselines and Cards are optional; empty sheets are still created.
type WorkbookExport struct {
	Summaries []sleep.AggregateRecord
	Samples   []sleep.SamplePoint
	Catalog   sleep.MetricCatalog
	Baselines stats.Baselines
	Cards     []stats.DeviationCard
}

// Exporter writes sleep data into an xlsx workbook readable by WorkbookSource
type Exporter struct {
	file *excelize.File
}

// NewExporter builds the workbook in memory
func NewExporter(data WorkbookExport) (*Exporter, error) {
	if data.Catalog.Len() == 0 {
		data.Catalog = sleep.DefaultMetricCatalog()
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, sheet := range []string{IntradaySheet, BaselinesSheet, CardsSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	e := &Exporter{file: f}

	// Step 1: nightly summaries
	if err := e.writeSummaries(data.Summaries, data.Catalog); err != nil {
		f.Close()
		return nil, err
	}

	// Step 2: intraday stage samples
	if err := e.writeSamples(data.Samples); err != nil {
		f.Close()
		return nil, err
	}

	// Step 3: baselines and deviation cards
	if err := e.writeBaselines(data.Baselines, data.Catalog); err != nil {
		f.Close()
		return nil, err
	}
	if err := e.writeCards(data.Cards); err != nil {
		f.Close()
		return nil, err
	}

	log.Printf("[Exporter] built workbook: %d summaries, %d samples, %d cards",
		len(data.Summaries), len(data.Samples), len(data.Cards))
	return e, nil
}

// SaveAs writes the workbook to path
func (e *Exporter) SaveAs(path string) error {
	if err := e.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	log.Printf("[Exporter] wrote %s", path)
	return nil
}

// WriteTo streams the workbook
func (e *Exporter) WriteTo(w io.Writer) (int64, error) {
	return e.file.WriteTo(w)
}

// Close releases the workbook
func (e *Exporter) Close() error {
	return e.file.Close()
}

func (e *Exporter) writeSummaries(records []sleep.AggregateRecord, catalog sleep.MetricCatalog) error {
	names := catalog.Names()
	header := []any{"time_utc", sleep.FieldCalendarDate}
	for _, name := range names {
		header = append(header, string(name))
	}
	if err := e.setRow(SummarySheet, 1, header); err != nil {
		return err
	}

	for i, rec := range records {
		row := []any{rec.Timestamp.String(), rec.CalendarDate}
		for _, name := range names {
			row = append(row, cellValue(rec.Metric(name)))
		}
		if err := e.setRow(SummarySheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeSamples(samples []sleep.SamplePoint) error {
	header := []any{"time_utc", sleep.FieldStageLevel, sleep.FieldStageSeconds}
	if err := e.setRow(IntradaySheet, 1, header); err != nil {
		return err
	}

	for i, s := range samples {
		stage := any(nil)
		if code, ok := s.Stage.Get(); ok {
			stage = int(code)
		}
		row := []any{s.Timestamp.String(), stage, cellValue(s.DurationSeconds)}
		if err := e.setRow(IntradaySheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeBaselines(baselines stats.Baselines, catalog sleep.MetricCatalog) error {
	if err := e.setRow(BaselinesSheet, 1, []any{"metric", "mean", "std_dev", "count", "status"}); err != nil {
		return err
	}

	rowNum := 2
	for _, name := range catalog.Names() {
		bl, ok := baselines[name]
		if !ok {
			continue
		}
		row := []any{string(name), bl.Mean, bl.StdDev, bl.Count, string(bl.Status)}
		if err := e.setRow(BaselinesSheet, rowNum, row); err != nil {
			return err
		}
		rowNum++
	}
	return nil
}

func (e *Exporter) writeCards(cards []stats.DeviationCard) error {
	header := []any{"metric", "label", "current", "mean", "std_dev", "z_score",
		"goodness", "sigma", "ramp", "bin", "alpha", "percentile", "verdict"}
	if err := e.setRow(CardsSheet, 1, header); err != nil {
		return err
	}

	for i, c := range cards {
		row := []any{
			string(c.Metric), c.Label, cellValue(c.CurrentValue), c.Mean, c.StdDev, c.ZScore,
			c.GoodnessScore, c.Sigma, string(c.ColorBin.Ramp), c.ColorBin.Index, c.Alpha,
			c.Percentile, string(c.Verdict),
		}
		if err := e.setRow(CardsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) setRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := e.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue leaves missing values as blank cells. Floats go out as text
// with full precision so they survive a GetRows round trip unchanged.
func cellValue(v core.Optional[float64]) any {
	f, ok := v.Get()
	if !ok {
		return nil
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
