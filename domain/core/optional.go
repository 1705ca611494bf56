package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Optional holds a value that may be missing.
type Optional[T any] struct {
	value T
	valid bool
}

// Some wraps a present value
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

// None returns a missing value
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

// IsSet reports whether a value is present
func (o Optional[T]) IsSet() bool {
	return o.valid
}

// OrElse returns the value or fallback when missing
func (o Optional[T]) OrElse(fallback T) T {
	if o.valid {
		return o.value
	}
	return fallback
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// ParseOptionalFloat converts loosely typed numeric input into an Optional.
// nil, empty strings, non-numeric text, NaN and ±Inf are all "missing".
func ParseOptionalFloat(raw any) Optional[float64] {
	var f float64
	switch v := raw.(type) {
	case nil:
		return None[float64]()
	case Optional[float64]:
		return v
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case bool:
		return None[float64]()
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return None[float64]()
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return None[float64]()
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return None[float64]()
		}
		f = parsed
	default:
		return None[float64]()
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return None[float64]()
	}
	return Some(f)
}

// FloatOf builds an Optional from a possibly nil pointer
func FloatOf(p *float64) Optional[float64] {
	if p == nil {
		return None[float64]()
	}
	return ParseOptionalFloat(*p)
}
