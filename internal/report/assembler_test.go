package report

import (
	"testing"
	"time"
	_ "time/tzdata"

	stagesession "sleepreport/adapters/stats/session"
	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(ts string, stage sleep.StageCode, duration ...float64) sleep.SamplePoint {
	p := sleep.SamplePoint{Timestamp: core.MustNormalizeTime(ts), Stage: core.Some(stage)}
	if len(duration) > 0 {
		p.DurationSeconds = core.Some(duration[0])
	}
	return p
}

func testSession() sleep.StageSession {
	points := []sleep.SamplePoint{
		point("2024-03-05T03:40:00Z", sleep.StageLight, 240),
		point("2024-03-05T03:44:00Z", sleep.StageDeep),
		point("2024-03-05T04:30:00Z", sleep.StageCode(7)),
		point("2024-03-05T05:50:00Z", sleep.StageAwake),
	}
	return sleep.StageSession{
		Points:   points,
		StartUTC: points[0].Timestamp,
		EndUTC:   points[3].Timestamp.Add(240 * time.Second),
	}
}

func cards(n int) []stats.DeviationCard {
	out := make([]stats.DeviationCard, n)
	for i := range out {
		out[i] = stats.DeviationCard{Metric: sleep.MetricName(string(rune('a' + i)))}
	}
	return out
}

func TestAssemble_Timeline(t *testing.T) {
	a := NewAssembler(DefaultLayoutConfig(), 240*time.Second)

	req, err := a.Assemble(testSession(), cards(9), "America/Toronto")
	require.NoError(t, err)

	tl := req.Timeline
	require.Len(t, tl.Segments, 3)
	assert.Equal(t, 1, tl.UnrenderedPoints)
	assert.Equal(t, core.MustNormalizeTime("2024-03-05T03:44:00Z"), tl.Segments[0].End)
	assert.Equal(t, core.MustNormalizeTime("2024-03-05T04:30:00Z"), tl.Segments[1].End, "gap to next sample")
	assert.Equal(t, core.MustNormalizeTime("2024-03-05T05:54:00Z"), tl.Segments[2].End, "default duration")
	assert.Equal(t, "Deep", tl.Segments[1].Name)
	assert.Equal(t, 1, tl.Segments[1].Level)

	assert.Equal(t, "22:40", tl.SleepLabel)
	assert.Equal(t, "00:54", tl.WakeLabel)
	assert.Equal(t, "America/Toronto", req.Timezone)
	assert.Equal(t, "Sleep Report (2024-03-05)", req.Title)

	require.Len(t, tl.Ticks, 2)
	assert.Equal(t, "23:00", tl.Ticks[0].Label)
	assert.Equal(t, core.MustNormalizeTime("2024-03-05T04:00:00Z"), tl.Ticks[0].At)
	assert.Equal(t, "00:00", tl.Ticks[1].Label)

	require.Len(t, tl.Legend, 4)
	assert.Equal(t, "Deep", tl.Legend[0].Name)
}

func TestHourTicks_FallbackToEndpoints(t *testing.T) {
	start := core.MustNormalizeTime("2024-03-05T04:10:00Z")
	end := core.MustNormalizeTime("2024-03-05T04:50:00Z")

	ticks := HourTicks(start, end, time.UTC)

	require.Len(t, ticks, 2)
	assert.Equal(t, start, ticks[0].At)
	assert.Equal(t, "04:50", ticks[1].Label)
}

func TestHourTicks_StartOnTheHour(t *testing.T) {
	start := core.MustNormalizeTime("2024-03-05T04:00:00Z")
	end := core.MustNormalizeTime("2024-03-05T06:00:00Z")

	ticks := HourTicks(start, end, time.UTC)

	require.Len(t, ticks, 3)
	assert.Equal(t, "04:00", ticks[0].Label)
	assert.Equal(t, "06:00", ticks[2].Label)
}

func TestHourTicks_HalfHourZone(t *testing.T) {
	loc, err := LoadDisplayLocation("Asia/Kolkata")
	require.NoError(t, err)

	ticks := HourTicks(core.MustNormalizeTime("2024-03-05T04:10:00Z"), core.MustNormalizeTime("2024-03-05T05:00:00Z"), loc)

	require.Len(t, ticks, 1)
	assert.Equal(t, "10:00", ticks[0].Label)
	assert.Equal(t, core.MustNormalizeTime("2024-03-05T04:30:00Z"), ticks[0].At)
}

func TestAssemble_GridLayout(t *testing.T) {
	a := NewAssembler(DefaultLayoutConfig(), 0)

	req, err := a.Assemble(testSession(), cards(9), "")
	require.NoError(t, err)

	grid := req.Grid
	assert.Equal(t, 3, grid.Columns)
	assert.Equal(t, 3, grid.Rows)
	require.Len(t, grid.Slots, 9)

	center := grid.Slots[4]
	assert.Equal(t, 1, center.Row)
	assert.Equal(t, 1, center.Column)
	assert.InDelta(t, 0.88/3, center.Bounds.W, 1e-9)
	assert.InDelta(t, 0.28, center.Bounds.H, 1e-9)
	assert.InDelta(t, 0.03+0.88/3+0.03, center.Bounds.X, 1e-9)
	assert.InDelta(t, 0.03+0.28+0.05, center.Bounds.Y, 1e-9)
	assert.Equal(t, sleep.MetricName("e"), center.Card.Metric)
	assert.Equal(t, "UTC", req.Timezone)
}

func TestAssemble_PartialLastRow(t *testing.T) {
	a := NewAssembler(LayoutConfig{Columns: 4, Padding: 0.02, GapX: 0.02, GapY: 0.02}, 0)

	req, err := a.Assemble(testSession(), cards(5), "UTC")
	require.NoError(t, err)

	assert.Equal(t, 2, req.Grid.Rows)
	assert.Equal(t, 1, req.Grid.Slots[4].Row)
	assert.Equal(t, 0, req.Grid.Slots[4].Column)
}

func TestAssemble_Errors(t *testing.T) {
	a := NewAssembler(DefaultLayoutConfig(), 0)

	_, err := a.Assemble(testSession(), nil, "Mars/Olympus")
	assert.ErrorIs(t, err, core.ErrInvalidTimezone)

	_, err = a.Assemble(sleep.StageSession{}, nil, "UTC")
	assert.ErrorIs(t, err, core.ErrNoCandidate)

	crowded := NewAssembler(LayoutConfig{Columns: 3, Padding: 0.4, GapX: 0.1, GapY: 0.1}, 0)
	_, err = crowded.Assemble(testSession(), cards(3), "UTC")
	assert.Error(t, err)
}

func TestNewAssembler_DefaultDurationMatchesBuilder(t *testing.T) {
	assert.Equal(t, stagesession.DefaultSampleDuration, NewAssembler(DefaultLayoutConfig(), 0).defaultDuration)
	assert.Equal(t, stagesession.DefaultBuilderConfig().DefaultDuration, NewAssembler(DefaultLayoutConfig(), -time.Second).defaultDuration)
	assert.Equal(t, 90*time.Second, NewAssembler(DefaultLayoutConfig(), 90*time.Second).defaultDuration)
}
