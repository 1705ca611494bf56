package core

import (
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// ReportID identifies one report run
type ReportID ID

func (id ReportID) String() string { return ID(id).String() }

// NewReportID creates a time-ordered report run identifier
func NewReportID() ReportID { return ReportID(NewID()) }

// SleepKey identifies one night for delivery dedupe: the calendar date when
// the source provides one, else the record timestamp.
type SleepKey string

// NewSleepKey builds the dedupe key for a night
func NewSleepKey(calendarDate string, timestamp Instant) SleepKey {
	if d := strings.TrimSpace(calendarDate); d != "" {
		return SleepKey(d)
	}
	return SleepKey(timestamp.String())
}

func (k SleepKey) String() string { return string(k) }

func (k SleepKey) IsEmpty() bool { return strings.TrimSpace(string(k)) == "" }
