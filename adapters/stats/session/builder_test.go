package session

import (
	"testing"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseEpoch = int64(1710000000)

func sample(offsetSeconds int64, stage sleep.StageCode, duration ...float64) sleep.SamplePoint {
	p := sleep.SamplePoint{
		Timestamp: core.Unix(baseEpoch + offsetSeconds),
		Stage:     core.Some(stage),
	}
	if len(duration) > 0 {
		p.DurationSeconds = core.Some(duration[0])
	}
	return p
}

func sessionSizes(sessions []sleep.StageSession) []int {
	sizes := make([]int, len(sessions))
	for i, s := range sessions {
		sizes[i] = s.Len()
	}
	return sizes
}

func TestBuildSessions_SplitsOnLongGap(t *testing.T) {
	samples := []sleep.SamplePoint{
		sample(0, sleep.StageLight),
		sample(300, sleep.StageDeep),
		sample(600, sleep.StageREM),
		sample(40000, sleep.StageLight),
	}

	sessions := BuildSessions(samples, DefaultBuilderConfig())

	require.Len(t, sessions, 2)
	assert.Equal(t, []int{3, 1}, sessionSizes(sessions))
	assert.Equal(t, core.Unix(baseEpoch), sessions[0].StartUTC)
	assert.Equal(t, core.Unix(baseEpoch+600+240), sessions[0].EndUTC)
	assert.Equal(t, core.Unix(baseEpoch+40000), sessions[1].StartUTC)
}

func TestBuildSessions_GapExactlyAtThresholdStaysTogether(t *testing.T) {
	threshold := int64(DefaultGapThreshold / time.Second)
	samples := []sleep.SamplePoint{
		sample(0, sleep.StageLight),
		sample(threshold, sleep.StageLight),
		sample(2*threshold+1, sleep.StageAwake),
	}

	sessions := BuildSessions(samples, DefaultBuilderConfig())

	assert.Equal(t, []int{2, 1}, sessionSizes(sessions))
}

func TestBuildSessions_CustomThreshold(t *testing.T) {
	samples := []sleep.SamplePoint{
		sample(0, sleep.StageLight),
		sample(60, sleep.StageLight),
		sample(200, sleep.StageLight),
	}

	sessions := BuildSessions(samples, BuilderConfig{GapThreshold: 100 * time.Second})

	assert.Equal(t, []int{2, 1}, sessionSizes(sessions))
}

func TestBuildSessions_Empty(t *testing.T) {
	sessions := BuildSessions(nil, DefaultBuilderConfig())
	require.NotNil(t, sessions)
	assert.Empty(t, sessions)

	unusable := []sleep.SamplePoint{
		{Timestamp: core.Unix(baseEpoch)},
		{Stage: core.Some(sleep.StageDeep)},
	}
	assert.Empty(t, BuildSessions(unusable, DefaultBuilderConfig()))
}

func TestBuildSessions_SingleSampleUsesDefaultDuration(t *testing.T) {
	sessions := BuildSessions([]sleep.SamplePoint{sample(0, sleep.StageDeep)}, DefaultBuilderConfig())

	require.Len(t, sessions, 1)
	assert.Equal(t, 240*time.Second, sessions[0].Duration())
	assert.Equal(t, 0.0, sessions[0].TotalStageSeconds)
}

func TestBuildSessions_ExplicitDurations(t *testing.T) {
	samples := []sleep.SamplePoint{
		sample(0, sleep.StageLight, 300),
		sample(300, sleep.StageDeep),
		sample(600, sleep.StageREM, 120),
	}

	sessions := BuildSessions(samples, DefaultBuilderConfig())

	require.Len(t, sessions, 1)
	assert.InDelta(t, 420.0, sessions[0].TotalStageSeconds, 1e-9)
	assert.Equal(t, core.Unix(baseEpoch+720), sessions[0].EndUTC)
}

func TestBuildSessions_NonPositiveDurationFallsBackForEnd(t *testing.T) {
	sessions := BuildSessions([]sleep.SamplePoint{sample(0, sleep.StageLight, 0)}, DefaultBuilderConfig())

	require.Len(t, sessions, 1)
	assert.Equal(t, core.Unix(baseEpoch+240), sessions[0].EndUTC)
}

func TestBuildSessions_SortsWithoutMutatingInput(t *testing.T) {
	samples := []sleep.SamplePoint{
		sample(600, sleep.StageREM),
		sample(0, sleep.StageLight),
		sample(300, sleep.StageDeep),
	}
	original := make([]sleep.SamplePoint, len(samples))
	copy(original, samples)

	sessions := BuildSessions(samples, DefaultBuilderConfig())

	require.Len(t, sessions, 1)
	assert.Equal(t, original, samples)
	for i := 1; i < sessions[0].Len(); i++ {
		assert.False(t, sessions[0].Points[i].Timestamp.Before(sessions[0].Points[i-1].Timestamp))
	}
}

func TestBuildSessions_PartitionProperty(t *testing.T) {
	offsets := []int64{0, 240, 480, 30000, 30240, 90000, 90100, 90200, 200000}
	samples := make([]sleep.SamplePoint, 0, len(offsets)+2)
	for i, off := range offsets {
		samples = append(samples, sample(off, sleep.StageCode(i%4)))
	}
	samples = append(samples,
		sleep.SamplePoint{Timestamp: core.Unix(baseEpoch + 100)},
		sleep.SamplePoint{Stage: core.Some(sleep.StageLight)},
	)

	sessions := BuildSessions(samples, DefaultBuilderConfig())

	total := 0
	for i, s := range sessions {
		require.NotEmpty(t, s.Points)
		total += s.Len()
		for j := 1; j < s.Len(); j++ {
			gap := s.Points[j].Timestamp.Sub(s.Points[j-1].Timestamp)
			assert.LessOrEqual(t, gap, DefaultGapThreshold)
		}
		if i > 0 {
			prev := sessions[i-1]
			assert.Greater(t, s.StartUTC.Sub(prev.Points[prev.Len()-1].Timestamp), DefaultGapThreshold)
		}
	}
	assert.Equal(t, len(offsets), total)
	assert.Equal(t, []int{3, 2, 3, 1}, sessionSizes(sessions))
}
