package report

import (
	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"
)

// Rect is a rectangle in normalized [0,1] panel coordinates, origin top-left
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// TimelineSegment is one stage band on the time axis. Geometry stays in UTC.
type TimelineSegment struct {
	Start core.Instant    `json:"start"`
	End   core.Instant    `json:"end"`
	Stage sleep.StageCode `json:"stage"`
	Name  string          `json:"name"`
	Level int             `json:"level"`
	Color string          `json:"color"`
}

// TimeTick is an hour-aligned axis tick labelled in the display timezone
type TimeTick struct {
	At    core.Instant `json:"at"`
	Label string       `json:"label"`
}

// LegendEntry describes one stage color
type LegendEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Timeline is the stage chart half of the report
type Timeline struct {
	Start            core.Instant      `json:"start"`
	End              core.Instant      `json:"end"`
	SleepLabel       string            `json:"sleep_label"`
	WakeLabel        string            `json:"wake_label"`
	Segments         []TimelineSegment `json:"segments"`
	Ticks            []TimeTick        `json:"ticks"`
	Legend           []LegendEntry     `json:"legend"`
	MaxLevel         int               `json:"max_level"`
	UnrenderedPoints int               `json:"unrendered_points"`
}

// CardSlot places one deviation card on the grid
type CardSlot struct {
	Row    int                 `json:"row"`
	Column int                 `json:"column"`
	Bounds Rect                `json:"bounds"`
	Card   stats.DeviationCard `json:"card"`
}

// Grid is the card half of the report
type Grid struct {
	Columns int        `json:"columns"`
	Rows    int        `json:"rows"`
	Slots   []CardSlot `json:"slots"`
}

// RenderRequest is everything a canvas painter needs. It holds no behavior
// and no references to live resources.
type RenderRequest struct {
	Title    string   `json:"title"`
	Timezone string   `json:"timezone"`
	Timeline Timeline `json:"timeline"`
	Grid     Grid     `json:"grid"`
}
