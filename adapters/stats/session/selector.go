package session

import (
	"fmt"
	"strings"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
)

// dayWindowMargin widens a local day so nights recorded near midnight are found
const dayWindowMargin = 18 * time.Hour

// SelectCurrent returns the most recent record with a usable timestamp.
// Among records sharing the latest timestamp the last one in input order wins.
func SelectCurrent(records []sleep.AggregateRecord) (sleep.AggregateRecord, error) {
	found := false
	var current sleep.AggregateRecord
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		if !found || !r.Timestamp.Before(current.Timestamp) {
			current = r
			found = true
		}
	}
	if !found {
		return sleep.AggregateRecord{}, core.ErrAggregateNotFound
	}
	return current, nil
}

// ParseDay validates a YYYY-MM-DD local day
func ParseDay(day string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, core.NewParseError("day", day, "expected YYYY-MM-DD")
	}
	return d, nil
}

// DayFetchWindow is the UTC range used to look up the record for a local day
func DayFetchWindow(day string, loc *time.Location) (core.Instant, core.Instant, error) {
	d, err := ParseDay(day)
	if err != nil {
		return core.Instant{}, core.Instant{}, err
	}
	startLocal := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	endLocal := startLocal.AddDate(0, 0, 1)
	return core.NewInstant(startLocal.Add(-dayWindowMargin)), core.NewInstant(endLocal.Add(dayWindowMargin)), nil
}

// SelectForDay picks the record for a local day. Records whose calendarDate
// equals day are preferred; otherwise the local date of the timestamp in loc
// is used. The latest matching record wins.
func SelectForDay(records []sleep.AggregateRecord, day string, loc *time.Location) (sleep.AggregateRecord, error) {
	d, err := ParseDay(day)
	if err != nil {
		return sleep.AggregateRecord{}, err
	}
	dayStr := d.Format(time.DateOnly)

	matches := make([]sleep.AggregateRecord, 0, 2)
	for _, r := range records {
		if strings.TrimSpace(r.CalendarDate) == dayStr {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		for _, r := range records {
			if r.Timestamp.IsZero() {
				continue
			}
			if r.Timestamp.In(loc).Format(time.DateOnly) == dayStr {
				matches = append(matches, r)
			}
		}
	}

	current, err := SelectCurrent(matches)
	if err != nil {
		return sleep.AggregateRecord{}, fmt.Errorf("%w for local day %s in %s", core.ErrAggregateNotFound, dayStr, loc)
	}
	return current, nil
}

// PriorWindow returns records with timestamps in [current - span, current),
// sorted ascending. The current record itself is never included.
func PriorWindow(records []sleep.AggregateRecord, current sleep.AggregateRecord, span time.Duration) []sleep.AggregateRecord {
	start := current.Timestamp.Add(-span)
	out := make([]sleep.AggregateRecord, 0, len(records))
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		if !r.Timestamp.Before(start) && r.Timestamp.Before(current.Timestamp) {
			out = append(out, r)
		}
	}
	sleep.SortAggregates(out)
	return out
}
