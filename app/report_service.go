package app

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"sleepreport/adapters/excel"
	"sleepreport/adapters/render"
	"sleepreport/domain/core"
	domain "sleepreport/domain/report"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"
	"sleepreport/internal/errors"
	"sleepreport/internal/report"
	"sleepreport/ports"
)

// ReportRequest selects the night to render
type ReportRequest struct {
	Day     string // YYYY-MM-DD in the display timezone; empty means latest
	Deliver bool
}

// ReportResult is everything one report run produced
type ReportResult struct {
	ReportID    core.ReportID         `json:"report_id"`
	Day         string                `json:"day"`
	SleepKey    core.SleepKey         `json:"sleep_key"`
	Current     sleep.AggregateRecord `json:"current"`
	Baselines   stats.Baselines       `json:"baselines"`
	Cards       []stats.DeviationCard `json:"cards"`
	Session     sleep.StageSession    `json:"-"`
	Render      domain.RenderRequest  `json:"render"`
	Fingerprint core.Hash             `json:"fingerprint"`
	ImagePath   string                `json:"image_path,omitempty"`
	Skipped     bool                  `json:"skipped"`
	Sent        bool                  `json:"sent"`
}

// Caption is the photo caption sent with a report
func Caption(day string) string {
	return fmt.Sprintf("Sleep Summary (%s) \n%s", day, "Any thoughts on why your sleep was like this?")
}

// ReportService produces the image report
type ReportService struct {
	pipeline  *Pipeline
	assembler *report.Assembler
	painter   *render.Painter
	outputDir string
	deliverer ports.Deliverer
	sentKeys  ports.SentKeyStore
}

// NewReportService creates the image report service. deliverer and sentKeys
// may be nil, which disables delivery and dedupe.
func NewReportService(pipeline *Pipeline, assembler *report.Assembler, painter *render.Painter, outputDir string, deliverer ports.Deliverer, sentKeys ports.SentKeyStore) *ReportService {
	return &ReportService{
		pipeline:  pipeline,
		assembler: assembler,
		painter:   painter,
		outputDir: outputDir,
		deliverer: deliverer,
		sentKeys:  sentKeys,
	}
}

// Build computes the report without drawing or sending it
func (s *ReportService) Build(ctx context.Context, day string) (*ReportResult, error) {
	sel, err := s.pipeline.Select(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, sel)
}

func (s *ReportService) build(ctx context.Context, sel *Selection) (*ReportResult, error) {
	// Step 1: baselines exclude the night being reported
	baselines := s.pipeline.Baselines(sel)

	// Step 2: one card per catalog metric
	cards := s.pipeline.Cards(sel.Current, baselines)

	// Step 3: the intraday session behind the summary
	matched, err := s.pipeline.MatchSession(ctx, sel.Current)
	if err != nil {
		return nil, err
	}

	// Step 4: layout
	req, err := s.assembler.Assemble(matched, cards, s.pipeline.config.DisplayTimezone)
	if err != nil {
		return nil, errors.Classify(err, "failed to assemble report")
	}
	fingerprint, err := core.Fingerprint(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fingerprint report")
	}

	return &ReportResult{
		ReportID:    core.NewReportID(),
		Day:         sel.Day,
		SleepKey:    sel.SleepKey(),
		Current:     sel.Current,
		Baselines:   baselines,
		Cards:       cards,
		Session:     matched,
		Render:      req,
		Fingerprint: fingerprint,
	}, nil
}

// Export gathers the selected night, its baseline history and its session
// into a workbook payload
func (s *ReportService) Export(ctx context.Context, day string) (excel.WorkbookExport, *ReportResult, error) {
	sel, err := s.pipeline.Select(ctx, day)
	if err != nil {
		return excel.WorkbookExport{}, nil, err
	}
	result, err := s.build(ctx, sel)
	if err != nil {
		return excel.WorkbookExport{}, nil, err
	}
	return excel.WorkbookExport{
		Summaries: sel.History,
		Samples:   result.Session.Points,
		Catalog:   s.pipeline.Catalog(),
		Baselines: result.Baselines,
		Cards:     result.Cards,
	}, result, nil
}

// RenderPNG draws a built report into memory
func (s *ReportService) RenderPNG(result *ReportResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.painter.Render(result.Render, &buf); err != nil {
		return nil, errors.Wrap(err, "failed to render report")
	}
	return buf.Bytes(), nil
}

// RunOnce renders the report to disk and optionally delivers it. In latest
// mode a night that was already delivered is skipped. The sent key is saved
// only after a successful delivery so failures retry on the next run.
func (s *ReportService) RunOnce(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	startTime := time.Now()

	sel, err := s.pipeline.Select(ctx, req.Day)
	if err != nil {
		return nil, err
	}

	key := sel.SleepKey()
	if key.IsEmpty() {
		return nil, errors.ValidationError("could not determine sleep key (missing calendarDate and time)")
	}
	if sel.Latest && req.Deliver && s.sentKeys != nil {
		last, err := s.sentKeys.LastSentKey(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read sent key")
		}
		if last == key {
			log.Printf("[ReportService] already sent image for %s; skipping", key)
			return &ReportResult{Day: sel.Day, SleepKey: key, Current: sel.Current, Skipped: true}, nil
		}
	} else if !sel.Latest {
		log.Printf("[ReportService] day override active: ignoring sent key")
	}

	result, err := s.build(ctx, sel)
	if err != nil {
		return nil, err
	}

	result.ImagePath = filepath.Join(s.outputDir, fmt.Sprintf("sleep_report_%s.png", result.Day))
	if err := s.painter.RenderFile(result.Render, result.ImagePath); err != nil {
		return nil, errors.Wrapf(err, "failed to write report image %s", result.ImagePath)
	}

	if !req.Deliver || s.deliverer == nil {
		log.Printf("[ReportService] not delivering %s; sent key unchanged", result.Day)
		return result, nil
	}

	if err := s.deliverer.SendPhoto(ctx, result.ImagePath, Caption(result.Day)); err != nil {
		log.Printf("[ReportService] delivery failed for %s; sent key unchanged so it can retry", key)
		return result, errors.ExternalServiceError("telegram", err)
	}
	result.Sent = true

	if s.sentKeys != nil {
		if err := s.sentKeys.SaveSentKey(ctx, key); err != nil {
			return result, errors.Wrap(err, "report sent but sent key not saved")
		}
	}

	log.Printf("[ReportService] sent %s in %s", result.Day, time.Since(startTime).Round(time.Millisecond))
	return result, nil
}
