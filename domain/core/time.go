package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Instant is a point in time normalized to UTC.
// The zero value means "no timestamp".
type Instant time.Time

// layouts accepted by NormalizeTime, tried in order after the Z-suffix rewrite
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NewInstant converts t to an Instant in UTC
func NewInstant(t time.Time) Instant {
	if t.IsZero() {
		return Instant{}
	}
	return Instant(t.UTC())
}

// Unix builds an Instant from epoch seconds
func Unix(sec int64) Instant {
	return Instant(time.Unix(sec, 0).UTC())
}

// NormalizeTime parses the timestamp shapes found in exported sleep data:
// Instant, time.Time, epoch seconds (int or float), json.Number and
// RFC3339-like strings. Anything else is a parse error.
func NormalizeTime(raw any) (Instant, error) {
	switch v := raw.(type) {
	case Instant:
		return NewInstant(time.Time(v)), nil
	case time.Time:
		return NewInstant(v), nil
	case *time.Time:
		if v == nil {
			return Instant{}, NewParseError("timestamp", raw, "nil time")
		}
		return NewInstant(*v), nil
	case int:
		return Unix(int64(v)), nil
	case int32:
		return Unix(int64(v)), nil
	case int64:
		return Unix(v), nil
	case uint32:
		return Unix(int64(v)), nil
	case float32:
		return fromEpochFloat(float64(v), raw)
	case float64:
		return fromEpochFloat(v, raw)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Unix(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Instant{}, NewParseError("timestamp", raw, "invalid number")
		}
		return fromEpochFloat(f, raw)
	case string:
		return parseInstantString(v)
	case nil:
		return Instant{}, NewParseError("timestamp", raw, "missing value")
	default:
		return Instant{}, NewParseError("timestamp", raw, fmt.Sprintf("unsupported type %T", raw))
	}
}

// MustNormalizeTime is NormalizeTime for literals known to be valid
func MustNormalizeTime(raw any) Instant {
	t, err := NormalizeTime(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func fromEpochFloat(f float64, raw any) (Instant, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Instant{}, NewParseError("timestamp", raw, "non-finite epoch")
	}
	sec, frac := math.Modf(f)
	return Instant(time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()), nil
}

func parseInstantString(s string) (Instant, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Instant{}, NewParseError("timestamp", s, "empty string")
	}
	// Influx-style exports use a literal Z instead of +00:00
	if strings.HasSuffix(trimmed, "z") || strings.HasSuffix(trimmed, "Z") {
		trimmed = trimmed[:len(trimmed)-1] + "+00:00"
	}
	for _, layout := range instantLayouts {
		// layouts without a zone are interpreted as UTC
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return NewInstant(t), nil
		}
	}
	return Instant{}, NewParseError("timestamp", s, "not an RFC3339 timestamp")
}

// Time returns the underlying time.Time in UTC
func (t Instant) Time() time.Time {
	return time.Time(t)
}

// IsZero reports whether the instant is missing
func (t Instant) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Instant) Before(u Instant) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Instant) After(u Instant) bool {
	return time.Time(t).After(time.Time(u))
}

// Equal reports whether t and u are the same physical moment
func (t Instant) Equal(u Instant) bool {
	return time.Time(t).Equal(time.Time(u))
}

// Sub returns t-u
func (t Instant) Sub(u Instant) time.Duration {
	return time.Time(t).Sub(time.Time(u))
}

// Add returns t+d
func (t Instant) Add(d time.Duration) Instant {
	return Instant(time.Time(t).Add(d))
}

// In returns the wall-clock time in loc
func (t Instant) In(loc *time.Location) time.Time {
	return time.Time(t).In(loc)
}

// Unix returns epoch seconds
func (t Instant) Unix() int64 {
	return time.Time(t).Unix()
}

// String renders RFC3339 with a Z suffix
func (t Instant) String() string {
	if t.IsZero() {
		return ""
	}
	return time.Time(t).Format(time.RFC3339Nano)
}

// AbsDuration is |d|
func AbsDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// JSON marshaling for Instant
func (t Instant) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Instant) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Instant{}
		return nil
	}
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := NormalizeTime(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
