package session

import (
	"testing"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(startOffset, endOffset int64) sleep.StageSession {
	return sleep.StageSession{
		Points:   []sleep.SamplePoint{sample(startOffset, sleep.StageLight)},
		StartUTC: core.Unix(baseEpoch + startOffset),
		EndUTC:   core.Unix(baseEpoch + endOffset),
	}
}

func aggregateAt(offsetSeconds int64) sleep.AggregateRecord {
	return sleep.AggregateRecord{Timestamp: core.Unix(baseEpoch + offsetSeconds)}
}

func TestMatchSession_NearestEnd(t *testing.T) {
	nap := span(0, 3600)
	main := span(20000, 50000)
	target := aggregateAt(50400)

	got, err := MatchSession(target, []sleep.StageSession{nap, main})
	require.NoError(t, err)
	assert.Equal(t, main.StartUTC, got.StartUTC)
}

func TestMatchSession_TargetBeforeEnd(t *testing.T) {
	early := span(0, 10000)
	late := span(20000, 30000)

	got, err := MatchSession(aggregateAt(12000), []sleep.StageSession{late, early})
	require.NoError(t, err)
	assert.Equal(t, early.StartUTC, got.StartUTC)
}

func TestMatchSession_TieGoesToEarliestStart(t *testing.T) {
	a := span(1000, 10000)
	b := span(15000, 20000)
	target := aggregateAt(15000)

	got, err := MatchSession(target, []sleep.StageSession{b, a})
	require.NoError(t, err)
	assert.Equal(t, a.StartUTC, got.StartUTC)

	same := span(1000, 10000)
	same.TotalStageSeconds = 42
	got, err = MatchSession(aggregateAt(10000), []sleep.StageSession{same, a})
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.TotalStageSeconds, "identical sessions keep input order")
}

func TestMatchSession_NoCandidates(t *testing.T) {
	_, err := MatchSession(aggregateAt(0), nil)
	require.Error(t, err)
	assert.True(t, core.IsNoCandidateError(err))
}

func TestMatchSession_TargetWithoutTimestamp(t *testing.T) {
	_, err := MatchSession(sleep.AggregateRecord{}, []sleep.StageSession{span(0, 10)})
	require.Error(t, err)
	assert.True(t, core.IsParseError(err))
}

func TestComputeFetchWindow(t *testing.T) {
	tests := []struct {
		name         string
		sleepSeconds core.Optional[float64]
		awakeSeconds core.Optional[float64]
		wantWindow   time.Duration
	}{
		{"missing fields clamp to min", core.None[float64](), core.None[float64](), 14 * time.Hour},
		{"estimate inside bounds", core.Some(36000.0), core.Some(3600.0), 16*time.Hour + 30*time.Minute},
		{"long night clamps to max", core.Some(72000.0), core.None[float64](), 20 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := aggregateAt(0)
			target.SleepTimeSeconds = tt.sleepSeconds
			target.AwakeSleepSeconds = tt.awakeSeconds

			start, end, err := ComputeFetchWindow(target, DefaultWindowConfig())
			require.NoError(t, err)
			assert.Equal(t, target.Timestamp.Add(-tt.wantWindow), start)
			assert.Equal(t, target.Timestamp.Add(90*time.Minute), end)
		})
	}
}

func TestComputeFetchWindow_Errors(t *testing.T) {
	_, _, err := ComputeFetchWindow(sleep.AggregateRecord{}, DefaultWindowConfig())
	assert.True(t, core.IsParseError(err))

	bad := DefaultWindowConfig()
	bad.MinWindow = 30 * time.Hour
	_, _, err = ComputeFetchWindow(aggregateAt(0), bad)
	assert.Error(t, err)
}
