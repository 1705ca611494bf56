package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	stagesession "sleepreport/adapters/stats/session"
	"sleepreport/domain/core"
	domain "sleepreport/domain/report"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"
)

const clockLayout = "15:04"

// LayoutConfig positions cards on the grid in normalized panel coordinates
type LayoutConfig struct {
	Columns int     `yaml:"columns"`
	Padding float64 `yaml:"padding"`
	GapX    float64 `yaml:"gap_x"`
	GapY    float64 `yaml:"gap_y"`
}

// DefaultLayoutConfig is three columns with 3% padding
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{Columns: 3, Padding: 0.03, GapX: 0.03, GapY: 0.05}
}

// Assembler composes a session timeline and deviation cards into a RenderRequest
type Assembler struct {
	layout          LayoutConfig
	defaultDuration time.Duration
}

// NewAssembler creates an assembler. defaultDuration is used for the last
// sample when it carries no duration of its own.
func NewAssembler(layout LayoutConfig, defaultDuration time.Duration) *Assembler {
	if layout.Columns <= 0 {
		layout.Columns = DefaultLayoutConfig().Columns
	}
	if defaultDuration <= 0 {
		defaultDuration = stagesession.DefaultSampleDuration
	}
	return &Assembler{layout: layout, defaultDuration: defaultDuration}
}

// Assemble builds the render request. It has no side effects.
func (a *Assembler) Assemble(session sleep.StageSession, cards []stats.DeviationCard, displayTimezone string) (domain.RenderRequest, error) {
	loc, err := LoadDisplayLocation(displayTimezone)
	if err != nil {
		return domain.RenderRequest{}, err
	}
	if len(session.Points) == 0 {
		return domain.RenderRequest{}, fmt.Errorf("%w: session has no samples to draw", core.ErrNoCandidate)
	}

	timeline := a.buildTimeline(session, loc)
	grid, err := a.buildGrid(cards)
	if err != nil {
		return domain.RenderRequest{}, err
	}

	return domain.RenderRequest{
		Title:    fmt.Sprintf("Sleep Report (%s)", timeline.End.In(loc).Format(time.DateOnly)),
		Timezone: loc.String(),
		Timeline: timeline,
		Grid:     grid,
	}, nil
}

// LoadDisplayLocation resolves an IANA zone name; empty means UTC
func LoadDisplayLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, core.NewTimezoneError(name, err)
	}
	return loc, nil
}

func (a *Assembler) buildTimeline(session sleep.StageSession, loc *time.Location) domain.Timeline {
	points := make([]sleep.SamplePoint, len(session.Points))
	copy(points, session.Points)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	timeline := domain.Timeline{
		Start:    points[0].Timestamp,
		Segments: make([]domain.TimelineSegment, 0, len(points)),
		MaxLevel: sleep.MaxStageLevel,
	}

	// Step 1: one segment per sample; unknown stages advance time but are not drawn
	var end core.Instant
	for i, p := range points {
		segEnd := p.Timestamp.Add(a.segmentDuration(points, i))
		end = segEnd

		code, ok := p.Stage.Get()
		info, known := sleep.LookupStage(code)
		if !ok || !known {
			timeline.UnrenderedPoints++
			continue
		}
		timeline.Segments = append(timeline.Segments, domain.TimelineSegment{
			Start: p.Timestamp,
			End:   segEnd,
			Stage: info.Code,
			Name:  info.Name,
			Level: info.Level,
			Color: info.Color,
		})
	}
	timeline.End = end

	// Step 2: labels and ticks in the display zone, geometry stays UTC
	timeline.SleepLabel = timeline.Start.In(loc).Format(clockLayout)
	timeline.WakeLabel = timeline.End.In(loc).Format(clockLayout)
	timeline.Ticks = HourTicks(timeline.Start, timeline.End, loc)

	for _, info := range sleep.KnownStages() {
		timeline.Legend = append(timeline.Legend, domain.LegendEntry{Name: info.Name, Color: info.Color})
	}
	return timeline
}

// segmentDuration is the explicit positive duration, else the gap to the next
// sample, else the default
func (a *Assembler) segmentDuration(points []sleep.SamplePoint, i int) time.Duration {
	if d, ok := points[i].DurationSeconds.Get(); ok && d > 0 {
		return time.Duration(d * float64(time.Second))
	}
	if i < len(points)-1 {
		return points[i+1].Timestamp.Sub(points[i].Timestamp)
	}
	return a.defaultDuration
}

// HourTicks starts at the first local hour at or after start and steps one
// hour while at or before end. With no hour inside the range the two
// endpoints are returned.
func HourTicks(start, end core.Instant, loc *time.Location) []domain.TimeTick {
	startLocal := start.In(loc)
	// Truncate works on absolute time, which is wrong for zones with sub-hour offsets
	tick := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), startLocal.Hour(), 0, 0, 0, loc)
	if tick.Before(startLocal) {
		tick = tick.Add(time.Hour)
	}

	ticks := make([]domain.TimeTick, 0, 16)
	for !tick.After(end.Time()) {
		ticks = append(ticks, domain.TimeTick{At: core.NewInstant(tick), Label: tick.Format(clockLayout)})
		tick = tick.Add(time.Hour)
	}
	if len(ticks) == 0 {
		ticks = append(ticks,
			domain.TimeTick{At: start, Label: start.In(loc).Format(clockLayout)},
			domain.TimeTick{At: end, Label: end.In(loc).Format(clockLayout)},
		)
	}
	return ticks
}

// buildGrid lays cards out row-major
func (a *Assembler) buildGrid(cards []stats.DeviationCard) (domain.Grid, error) {
	cols := a.layout.Columns
	rows := int(math.Ceil(float64(len(cards)) / float64(cols)))
	grid := domain.Grid{Columns: cols, Rows: rows, Slots: make([]domain.CardSlot, 0, len(cards))}
	if len(cards) == 0 {
		return grid, nil
	}

	pad, gapX, gapY := a.layout.Padding, a.layout.GapX, a.layout.GapY
	cardW := (1 - 2*pad - float64(cols-1)*gapX) / float64(cols)
	cardH := (1 - 2*pad - float64(rows-1)*gapY) / float64(rows)
	if cardW <= 0 || cardH <= 0 {
		return domain.Grid{}, fmt.Errorf("card layout leaves no room: %d columns, %d rows, padding %.3f", cols, rows, pad)
	}

	for i, card := range cards {
		row, col := i/cols, i%cols
		grid.Slots = append(grid.Slots, domain.CardSlot{
			Row:    row,
			Column: col,
			Bounds: domain.Rect{
				X: pad + float64(col)*(cardW+gapX),
				Y: pad + float64(row)*(cardH+gapY),
				W: cardW,
				H: cardH,
			},
			Card: card,
		})
	}
	return grid, nil
}
