package deviation

import (
	"fmt"

	"sleepreport/domain/stats"
)

// NeutralColor is index 0 of both ramps
const NeutralColor = "#a1a38c"

// Palette holds the two diverging ramps, neutral first
type Palette struct {
	Favorable   []string `yaml:"favorable"`
	Unfavorable []string `yaml:"unfavorable"`
}

// DefaultPalette is a green/red ramp pair of six steps each
func DefaultPalette() Palette {
	return Palette{
		Favorable:   []string{NeutralColor, "#9cb096", "#90caa9", "#8bd7b3", "#51c38d", "#17af68"},
		Unfavorable: []string{NeutralColor, "#ac9886", "#b88c80", "#cf7673", "#bf4945", "#af1c17"},
	}
}

// Validate requires two non-empty ramps of equal length
func (p Palette) Validate() error {
	if len(p.Favorable) == 0 || len(p.Unfavorable) == 0 {
		return fmt.Errorf("palette ramps must not be empty")
	}
	if len(p.Favorable) != len(p.Unfavorable) {
		return fmt.Errorf("palette ramps differ in length: %d favorable, %d unfavorable", len(p.Favorable), len(p.Unfavorable))
	}
	return nil
}

// Len is the ramp length used for binning
func (p Palette) Len() int {
	return len(p.Favorable)
}

// Color resolves a bin to its hex color, clamping out-of-range indexes
func (p Palette) Color(bin stats.ColorBin) string {
	ramp := p.Favorable
	if bin.Ramp == stats.RampUnfavorable {
		ramp = p.Unfavorable
	}
	if len(ramp) == 0 {
		return NeutralColor
	}
	idx := bin.Index
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ramp) {
		idx = len(ramp) - 1
	}
	return ramp[idx]
}
