package session

import (
	"fmt"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
)

// MatchSession picks the session belonging to target.
// Aggregates are stamped near wake time, so the session whose EndUTC is
// closest to target.Timestamp wins. Ties go to the earliest StartUTC, then
// to the earlier position in sessions.
func MatchSession(target sleep.AggregateRecord, sessions []sleep.StageSession) (sleep.StageSession, error) {
	if target.Timestamp.IsZero() {
		return sleep.StageSession{}, core.NewParseError("aggregate timestamp", "", "current record has no timestamp")
	}
	if len(sessions) == 0 {
		return sleep.StageSession{}, fmt.Errorf("%w: nothing to match against %s", core.ErrNoCandidate, target.Timestamp)
	}

	best := 0
	bestDistance := core.AbsDuration(sessions[0].EndUTC.Sub(target.Timestamp))
	for i := 1; i < len(sessions); i++ {
		distance := core.AbsDuration(sessions[i].EndUTC.Sub(target.Timestamp))
		switch {
		case distance < bestDistance:
			best, bestDistance = i, distance
		case distance == bestDistance && sessions[i].StartUTC.Before(sessions[best].StartUTC):
			best = i
		}
	}
	return sessions[best], nil
}

// WindowConfig pads the estimated sleep span when fetching intraday samples
type WindowConfig struct {
	ExtraBefore time.Duration
	ExtraAfter  time.Duration
	MinWindow   time.Duration
	MaxWindow   time.Duration
}

// DefaultWindowConfig returns 4h before, 1.5h after, clamped to [14h, 20h]
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		ExtraBefore: 4 * time.Hour,
		ExtraAfter:  90 * time.Minute,
		MinWindow:   14 * time.Hour,
		MaxWindow:   20 * time.Hour,
	}
}

// ComputeFetchWindow derives the UTC range likely to contain target's session.
// The estimate is sleep + awake seconds from the aggregate itself (missing
// fields count as 0) plus padding, clamped to [MinWindow, MaxWindow].
func ComputeFetchWindow(target sleep.AggregateRecord, config WindowConfig) (core.Instant, core.Instant, error) {
	if target.Timestamp.IsZero() {
		return core.Instant{}, core.Instant{}, core.NewParseError("aggregate timestamp", "", "current record has no timestamp")
	}
	if config.MinWindow > config.MaxWindow {
		return core.Instant{}, core.Instant{}, fmt.Errorf("invalid fetch window: min %s > max %s", config.MinWindow, config.MaxWindow)
	}

	sleepSeconds := target.SleepTimeSeconds.OrElse(0)
	awakeSeconds := target.AwakeSleepSeconds.OrElse(0)
	estimate := time.Duration((sleepSeconds + awakeSeconds) * float64(time.Second))

	window := estimate + config.ExtraBefore + config.ExtraAfter
	if window < config.MinWindow {
		window = config.MinWindow
	}
	if window > config.MaxWindow {
		window = config.MaxWindow
	}

	return target.Timestamp.Add(-window), target.Timestamp.Add(config.ExtraAfter), nil
}
