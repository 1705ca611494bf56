package text

import (
	"strings"
	"testing"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryCards() []stats.DeviationCard {
	return []stats.DeviationCard{
		{Metric: sleep.MetricSleepTimeSeconds, Unit: sleep.UnitSeconds, CurrentValue: core.Some(25530.0), Mean: 27000.4, Verdict: stats.VerdictWorse},
		{Metric: sleep.MetricDeepSleepSeconds, Unit: sleep.UnitSeconds, CurrentValue: core.Some(5400.0), Mean: 4812.6, Verdict: stats.VerdictBetter},
		{Metric: sleep.MetricRestingHeartRate, Unit: sleep.UnitBPM, CurrentValue: core.Some(52.0), Mean: 52.0, Verdict: stats.VerdictSame},
		{Metric: sleep.MetricSleepScore, Unit: sleep.UnitScore, CurrentValue: core.Some(80.0), Verdict: stats.VerdictNoBaseline},
		{Metric: sleep.MetricAwakeCount, Unit: sleep.UnitCount, Verdict: stats.VerdictMissing},
		{Metric: "hrv", Label: "HRV", Unit: sleep.UnitPlain, CurrentValue: core.Some(41.0), Mean: 38.25, Verdict: stats.VerdictBetter},
	}
}

func TestFormatter_Lines(t *testing.T) {
	f := NewFormatter(nil)

	lines := f.Lines(summaryCards())

	require.Len(t, lines, 6)
	assert.Equal(t, "Your total sleep time was 7h6m; this is worse than the previous week average of 7h30m.", lines[0])
	assert.Equal(t, "Your deep sleep was 90m; this is better than the previous week average of 80m13sec.", lines[1])
	assert.Equal(t, "Your resting heart rate was 52; this is about the same as the previous week average of 52.0.", lines[2])
	assert.Equal(t, "Your sleep score was 80. (Not enough prior-week data to compare.)", lines[3])
	assert.Equal(t, "Your awake count is missing in the most recent record.", lines[4])
	assert.Equal(t, "Your HRV was 41; this is better than the previous week average of 38.3.", lines[5])
}

func TestFormatter_TextEndsWithQuestion(t *testing.T) {
	text := NewFormatter(nil).Text(summaryCards())

	lines := strings.Split(text, "\n")
	assert.Len(t, lines, 7)
	assert.Equal(t, ClosingQuestion, lines[6])
}

func TestFormatter_MarkdownAndHTML(t *testing.T) {
	f := NewFormatter(nil)

	md := f.Markdown("2024-03-09", summaryCards()[:1])
	assert.True(t, strings.HasPrefix(md, "## Sleep Summary (2024-03-09)"))
	assert.Contains(t, md, "- Your total sleep time was 7h6m")

	html := string(f.HTML("2024-03-09", summaryCards()[:1]))
	assert.Contains(t, html, "<h2")
	assert.Contains(t, html, "<li>Your total sleep time was 7h6m")
	assert.Contains(t, html, "<em>"+ClosingQuestion+"</em>")
}
