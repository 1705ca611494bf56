package app

import (
	"context"
	"log"
	"time"

	"sleepreport/adapters/render/text"
	"sleepreport/adapters/stats/baseline"
	"sleepreport/adapters/stats/session"
	"sleepreport/domain/core"
	"sleepreport/domain/stats"
	"sleepreport/internal/errors"
	"sleepreport/ports"
)

// PriorWeek is the comparison window of the text summary
const PriorWeek = 7 * 24 * time.Hour

// SummaryResult is the text comparison of one night against the prior week
type SummaryResult struct {
	Day       string                `json:"day"`
	SleepKey  core.SleepKey         `json:"sleep_key"`
	PriorDays int                   `json:"prior_records"`
	Cards     []stats.DeviationCard `json:"cards"`
	Text      string                `json:"text"`
	Markdown  string                `json:"markdown"`
	HTML      string                `json:"html"`
	Skipped   bool                  `json:"skipped"`
	Sent      bool                  `json:"sent"`
}

// SummaryService produces the plain-text prior-week summary
type SummaryService struct {
	pipeline  *Pipeline
	formatter *text.Formatter
	deliverer ports.Deliverer
	sentKeys  ports.SentKeyStore
}

// NewSummaryService creates the text summary service. deliverer and sentKeys may be nil.
func NewSummaryService(pipeline *Pipeline, formatter *text.Formatter, deliverer ports.Deliverer, sentKeys ports.SentKeyStore) *SummaryService {
	if formatter == nil {
		formatter = text.NewFormatter(nil)
	}
	return &SummaryService{pipeline: pipeline, formatter: formatter, deliverer: deliverer, sentKeys: sentKeys}
}

// Build compares the selected night with a plain average of the prior seven days
func (s *SummaryService) Build(ctx context.Context, day string) (*SummaryResult, error) {
	sel, err := s.pipeline.Select(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.build(sel), nil
}

func (s *SummaryService) build(sel *Selection) *SummaryResult {
	prior := session.PriorWindow(sel.History, sel.Current, PriorWeek)
	// one prior night is enough for an average
	baselines := baseline.ComputeBaselines(prior, s.pipeline.Catalog().Names(), 1, nil)
	cards := s.pipeline.Cards(sel.Current, baselines)

	return &SummaryResult{
		Day:       sel.Day,
		SleepKey:  sel.SleepKey(),
		PriorDays: len(prior),
		Cards:     cards,
		Text:      s.formatter.Text(cards),
		Markdown:  s.formatter.Markdown(sel.Day, cards),
		HTML:      string(s.formatter.HTML(sel.Day, cards)),
	}
}

// RunOnce builds the summary and sends it as a message. Dedupe follows the
// same rules as the image report, with its own sent key.
func (s *SummaryService) RunOnce(ctx context.Context, req ReportRequest) (*SummaryResult, error) {
	sel, err := s.pipeline.Select(ctx, req.Day)
	if err != nil {
		return nil, err
	}

	key := sel.SleepKey()
	if sel.Latest && req.Deliver && s.sentKeys != nil {
		last, err := s.sentKeys.LastSentKey(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read sent key")
		}
		if !key.IsEmpty() && last == key {
			log.Printf("[SummaryService] already sent text for %s; skipping", key)
			return &SummaryResult{Day: sel.Day, SleepKey: key, Skipped: true}, nil
		}
	}

	result := s.build(sel)
	if !req.Deliver || s.deliverer == nil {
		return result, nil
	}

	if err := s.deliverer.SendMessage(ctx, result.Text); err != nil {
		return result, errors.ExternalServiceError("telegram", err)
	}
	result.Sent = true
	log.Printf("[SummaryService] sent text summary for %s", result.Day)

	if s.sentKeys != nil && !key.IsEmpty() {
		if err := s.sentKeys.SaveSentKey(ctx, key); err != nil {
			return result, errors.Wrap(err, "summary sent but sent key not saved")
		}
	}
	return result, nil
}
