package render

import (
	"fmt"
	"math"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
)

// MissingValue is shown on a card whose metric is absent
const MissingValue = "—"

// FormatCardValue formats a metric value for display on a card
func FormatCardValue(unit sleep.ValueUnit, value core.Optional[float64]) string {
	v, ok := value.Get()
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return MissingValue
	}
	switch unit {
	case sleep.UnitMinutes:
		return fmt.Sprintf("%dmin", roundedMinutes(v))
	case sleep.UnitSeconds:
		return FormatHoursMinutes(v)
	case sleep.UnitBPM:
		return fmt.Sprintf("%d bpm", int(math.RoundToEven(v)))
	case sleep.UnitScore, sleep.UnitCount:
		return fmt.Sprintf("%d", int(math.RoundToEven(v)))
	}
	if math.Abs(v) >= 10 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// FormatHoursMinutes renders seconds as "7h 5m", "7h" or "45min"
func FormatHoursMinutes(seconds float64) string {
	mins := roundedMinutes(seconds)
	h, m := mins/60, mins%60
	switch {
	case h <= 0:
		return fmt.Sprintf("%dmin", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// roundedMinutes clamps negatives to zero
func roundedMinutes(seconds float64) int {
	if seconds < 0 {
		seconds = 0
	}
	return int(math.RoundToEven(seconds / 60))
}
