package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/ports"

	"github.com/tidwall/gjson"
)

// Default file names written by the sleep data export
const (
	SummaryFile  = "SleepSummary.jsonl"
	IntradayFile = "SleepIntraday.jsonl"
)

// maxLineBytes bounds a single exported point
const maxLineBytes = 1 << 20

// FileSource reads exported points, one JSON object per line.
// Files are re-read on every fetch.
type FileSource struct {
	summaryPath  string
	intradayPath string
}

// NewFileSource reads SleepSummary.jsonl and SleepIntraday.jsonl from dir
func NewFileSource(dir string) ports.SleepDataSource {
	return NewFileSourceFromPaths(filepath.Join(dir, SummaryFile), filepath.Join(dir, IntradayFile))
}

// NewFileSourceFromPaths uses explicit file paths
func NewFileSourceFromPaths(summaryPath, intradayPath string) ports.SleepDataSource {
	return &FileSource{summaryPath: summaryPath, intradayPath: intradayPath}
}

// FetchAggregates implements ports.SleepDataSource
func (s *FileSource) FetchAggregates(ctx context.Context, start, end core.Instant) ([]sleep.AggregateRecord, error) {
	var records []sleep.AggregateRecord
	skipped := 0
	err := eachObject(ctx, s.summaryPath, func(fields map[string]any) {
		rec, err := sleep.AggregateFromFields(fields)
		if err != nil {
			skipped++
			return
		}
		if inWindow(rec.Timestamp, start, end) {
			records = append(records, rec)
		}
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Printf("[JSONLSource] skipped %d summary points without a usable time", skipped)
	}
	sleep.SortAggregates(records)
	return records, nil
}

// FetchSamples implements ports.SleepDataSource
func (s *FileSource) FetchSamples(ctx context.Context, start, end core.Instant) ([]sleep.SamplePoint, error) {
	var samples []sleep.SamplePoint
	err := eachObject(ctx, s.intradayPath, func(fields map[string]any) {
		p := sleep.SampleFromFields(fields)
		if inWindow(p.Timestamp, start, end) {
			samples = append(samples, p)
		}
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// eachObject calls fn with the top-level fields of every non-blank line.
// A line that is not a JSON object fails the whole read with its line number.
func eachObject(ctx context.Context, path string, fn func(map[string]any)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return fmt.Errorf("invalid JSON on line %d in %s", lineNo, path)
		}
		obj := gjson.ParseBytes(line)
		if !obj.IsObject() {
			return fmt.Errorf("line %d in %s is not an object", lineNo, path)
		}
		fn(toFields(obj))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// toFields flattens one object. Numbers stay float64, strings stay text and
// nested values are dropped.
func toFields(obj gjson.Result) map[string]any {
	fields := make(map[string]any)
	obj.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Number:
			fields[key.String()] = value.Float()
		case gjson.String:
			fields[key.String()] = value.String()
		case gjson.Null:
			fields[key.String()] = nil
		}
		return true
	})
	return fields
}

func inWindow(ts, start, end core.Instant) bool {
	return !ts.IsZero() && !ts.Before(start) && !ts.After(end)
}
