package session

import (
	"sort"
	"time"

	"sleepreport/domain/sleep"

	"gonum.org/v1/gonum/floats"
)

// ============================================================================
// SESSION RECONSTRUCTION
// ============================================================================
// Intraday stage samples arrive as one flat, gappy stream that can hold
// several sleep events (main sleep plus naps). Sessions are split wherever two
// consecutive samples are further apart than the gap threshold.
// ============================================================================

const (
	DefaultGapThreshold   = 6 * time.Hour
	DefaultSampleDuration = 240 * time.Second
)

// BuilderConfig controls session splitting
type BuilderConfig struct {
	GapThreshold    time.Duration // consecutive samples further apart start a new session
	DefaultDuration time.Duration // duration of a final sample that carries none
}

// DefaultBuilderConfig returns the 6h gap / 240s cadence defaults
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		GapThreshold:    DefaultGapThreshold,
		DefaultDuration: DefaultSampleDuration,
	}
}

func (c BuilderConfig) withDefaults() BuilderConfig {
	if c.GapThreshold <= 0 {
		c.GapThreshold = DefaultGapThreshold
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = DefaultSampleDuration
	}
	return c
}

// BuildSessions groups samples into contiguous sessions.
// Samples without a timestamp or stage are dropped. The input slice is not
// modified. Zero usable samples yield an empty, non-nil slice.
func BuildSessions(samples []sleep.SamplePoint, config BuilderConfig) []sleep.StageSession {
	config = config.withDefaults()

	// Step 1: keep usable samples (copy, so the caller's slice stays untouched)
	usable := make([]sleep.SamplePoint, 0, len(samples))
	for _, p := range samples {
		if p.Usable() {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		return []sleep.StageSession{}
	}

	// Step 2: chronological order, equal timestamps keep arrival order
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Timestamp.Before(usable[j].Timestamp)
	})

	// Step 3: split on gaps strictly greater than the threshold
	sessions := make([]sleep.StageSession, 0, 1)
	start := 0
	for i := 1; i < len(usable); i++ {
		if usable[i].Timestamp.Sub(usable[i-1].Timestamp) > config.GapThreshold {
			sessions = append(sessions, newSession(usable[start:i], config))
			start = i
		}
	}
	sessions = append(sessions, newSession(usable[start:], config))

	return sessions
}

// newSession finalizes one run of samples. points must be non-empty and sorted.
func newSession(points []sleep.SamplePoint, config BuilderConfig) sleep.StageSession {
	owned := make([]sleep.SamplePoint, len(points))
	copy(owned, points)

	durations := make([]float64, 0, len(owned))
	for _, p := range owned {
		if d, ok := p.DurationSeconds.Get(); ok {
			durations = append(durations, d)
		}
	}

	last := owned[len(owned)-1]
	return sleep.StageSession{
		Points:            owned,
		StartUTC:          owned[0].Timestamp,
		EndUTC:            last.Timestamp.Add(SampleDuration(last, config.DefaultDuration)),
		TotalStageSeconds: floats.Sum(durations),
	}
}

// SampleDuration is the sample's own positive duration, else fallback.
// Zero and negative durations count as absent.
func SampleDuration(p sleep.SamplePoint, fallback time.Duration) time.Duration {
	if d, ok := p.DurationSeconds.Get(); ok && d > 0 {
		return time.Duration(d * float64(time.Second))
	}
	return fallback
}
