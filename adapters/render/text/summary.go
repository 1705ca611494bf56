package text

import (
	"fmt"
	"math"
	"strings"

	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"

	"github.com/gomarkdown/markdown"
)

// ClosingQuestion ends every summary to invite a reply
const ClosingQuestion = "Any thoughts on why your sleep was like this?"

// DefaultProseLabels are the sentence-friendly metric names
func DefaultProseLabels() map[sleep.MetricName]string {
	return map[sleep.MetricName]string{
		sleep.MetricAvgSleepStress:       "sleep stress",
		sleep.MetricAwakeCount:           "awake count",
		sleep.MetricAwakeSleepSeconds:    "awake time",
		sleep.MetricDeepSleepSeconds:     "deep sleep",
		sleep.MetricRemSleepSeconds:      "REM sleep",
		sleep.MetricRestingHeartRate:     "resting heart rate",
		sleep.MetricRestlessMomentsCount: "restless moments",
		sleep.MetricSleepScore:           "sleep score",
		sleep.MetricSleepTimeSeconds:     "total sleep time",
	}
}

// Formatter turns deviation cards into comparison sentences
type Formatter struct {
	labels map[sleep.MetricName]string
	// duration metrics shown as hours and minutes rather than minutes
	longDurations map[sleep.MetricName]bool
}

// NewFormatter creates a formatter. Metrics without a label fall back to the
// card label.
func NewFormatter(labels map[sleep.MetricName]string) *Formatter {
	if labels == nil {
		labels = DefaultProseLabels()
	}
	return &Formatter{
		labels:        labels,
		longDurations: map[sleep.MetricName]bool{sleep.MetricSleepTimeSeconds: true},
	}
}

// Lines returns one sentence per card, in card order
func (f *Formatter) Lines(cards []stats.DeviationCard) []string {
	lines := make([]string, 0, len(cards))
	for _, card := range cards {
		lines = append(lines, f.line(card))
	}
	return lines
}

// Text is the plain message: one line per card and the closing question
func (f *Formatter) Text(cards []stats.DeviationCard) string {
	lines := append(f.Lines(cards), ClosingQuestion)
	return strings.Join(lines, "\n")
}

// Markdown renders the summary as a headed bullet list
func (f *Formatter) Markdown(day string, cards []stats.DeviationCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Sleep Summary (%s)\n\n", day)
	for _, line := range f.Lines(cards) {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	fmt.Fprintf(&b, "\n_%s_\n", ClosingQuestion)
	return b.String()
}

// HTML renders the markdown summary
func (f *Formatter) HTML(day string, cards []stats.DeviationCard) []byte {
	return markdown.ToHTML([]byte(f.Markdown(day, cards)), nil, nil)
}

func (f *Formatter) line(card stats.DeviationCard) string {
	label := f.label(card)
	value, ok := card.CurrentValue.Get()
	if !ok || card.Verdict == stats.VerdictMissing {
		return fmt.Sprintf("Your %s is missing in the most recent record.", label)
	}
	current := f.currentValue(card, value)
	if card.Verdict == stats.VerdictNoBaseline || card.Verdict == "" {
		return fmt.Sprintf("Your %s was %s. (Not enough prior-week data to compare.)", label, current)
	}
	return fmt.Sprintf("Your %s was %s; this is %s the previous week average of %s.",
		label, current, verdictPhrase(card.Verdict), f.averageValue(card, card.Mean))
}

func (f *Formatter) label(card stats.DeviationCard) string {
	if l, ok := f.labels[card.Metric]; ok {
		return l
	}
	if card.Label != "" {
		return card.Label
	}
	return string(card.Metric)
}

func verdictPhrase(v stats.Verdict) string {
	switch v {
	case stats.VerdictBetter:
		return "better than"
	case stats.VerdictWorse:
		return "worse than"
	default:
		return "about the same as"
	}
}

// currentValue rounds durations to the minute and everything else to a whole number
func (f *Formatter) currentValue(card stats.DeviationCard, v float64) string {
	if isDuration(card.Unit) {
		mins := int(math.RoundToEven(v / 60))
		if f.longDurations[card.Metric] {
			return fmt.Sprintf("%dh%dm", mins/60, mins%60)
		}
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%d", int(math.RoundToEven(v)))
}

// averageValue keeps seconds for durations and one decimal otherwise
func (f *Formatter) averageValue(card stats.DeviationCard, v float64) string {
	if isDuration(card.Unit) {
		secs := int(math.RoundToEven(v))
		if f.longDurations[card.Metric] {
			return fmt.Sprintf("%dh%dm", secs/3600, secs%3600/60)
		}
		return fmt.Sprintf("%dm%dsec", secs/60, secs%60)
	}
	return fmt.Sprintf("%.1f", math.Round((v+1e-12)*10)/10)
}

func isDuration(unit sleep.ValueUnit) bool {
	return unit == sleep.UnitSeconds || unit == sleep.UnitMinutes
}
