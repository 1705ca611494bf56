package sleep

import "fmt"

// StageCode is the small integer sleep-stage code carried by raw samples.
type StageCode int

const (
	StageDeep  StageCode = 0
	StageLight StageCode = 1
	StageREM   StageCode = 2
	StageAwake StageCode = 3
)

// StageInfo describes how a known stage is drawn on the timeline.
// Level is the bar height: deeper sleep draws lower.
type StageInfo struct {
	Code  StageCode `json:"code"`
	Name  string    `json:"name"`
	Level int       `json:"level"`
	Color string    `json:"color"`
}

var stageTaxonomy = [...]StageInfo{
	{Code: StageDeep, Name: "Deep", Level: 1, Color: "#0B3D91"},
	{Code: StageLight, Name: "Light", Level: 2, Color: "#6FA8FF"},
	{Code: StageREM, Name: "REM", Level: 3, Color: "#A352CC"},
	{Code: StageAwake, Name: "Awake", Level: 4, Color: "#FF6B6B"},
}

// MaxStageLevel is the tallest bar level in the taxonomy
const MaxStageLevel = 4

// LookupStage returns the taxonomy entry for code
func LookupStage(code StageCode) (StageInfo, bool) {
	if code < 0 || int(code) >= len(stageTaxonomy) {
		return StageInfo{}, false
	}
	return stageTaxonomy[code], true
}

// KnownStages lists the taxonomy in legend order (deepest first)
func KnownStages() []StageInfo {
	out := make([]StageInfo, len(stageTaxonomy))
	copy(out, stageTaxonomy[:])
	return out
}

// IsKnown reports whether the code belongs to the taxonomy
func (c StageCode) IsKnown() bool {
	_, ok := LookupStage(c)
	return ok
}

func (c StageCode) String() string {
	if info, ok := LookupStage(c); ok {
		return info.Name
	}
	return fmt.Sprintf("stage(%d)", int(c))
}
