package render

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"sleepreport/adapters/stats/deviation"
	"sleepreport/domain/core"
	domain "sleepreport/domain/report"
	"sleepreport/domain/stats"
	"sleepreport/ports"
)

// PainterConfig sets the raster size and the fixed colors of the report
type PainterConfig struct {
	Width      int
	Height     int
	Background string
	TextColor  string
	AxisColor  string
	CardBorder string
	HideMean   bool
	HideSigma  bool
}

// DefaultPainterConfig is a 2800x1800 dark report
func DefaultPainterConfig() PainterConfig {
	return PainterConfig{
		Width:      2800,
		Height:     1800,
		Background: "#0B1020",
		TextColor:  "#FFFFFF",
		AxisColor:  "#B7BCC7",
		CardBorder: "#FFFFFF",
	}
}

// vertical bands of the report, as fractions of the height
const (
	titleY          = 0.045
	timelineTop     = 0.09
	timelineBottom  = 0.40
	legendY         = 0.49
	cardsTop        = 0.54
	cardsBottom     = 0.98
	horizontalInset = 0.05
	levelHeadroom   = 0.25
)

// Painter draws a RenderRequest onto a canvas
type Painter struct {
	factory ports.CanvasFactory
	palette deviation.Palette
	config  PainterConfig
}

// NewPainter creates a painter
func NewPainter(factory ports.CanvasFactory, palette deviation.Palette, config PainterConfig) *Painter {
	if config.Width <= 0 || config.Height <= 0 {
		def := DefaultPainterConfig()
		config.Width, config.Height = def.Width, def.Height
	}
	return &Painter{factory: factory, palette: palette, config: config}
}

// Paint draws req and returns the canvas
func (p *Painter) Paint(req domain.RenderRequest) (ports.Canvas, error) {
	canvas, err := p.factory.NewCanvas(p.config.Width, p.config.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to create canvas: %w", err)
	}
	canvas.Clear(p.config.Background)

	w := float64(p.config.Width)
	h := float64(p.config.Height)
	canvas.DrawText(req.Title, w/2, h*titleY, p.text(40, 0.5, 0.5))

	p.paintTimeline(canvas, req)
	p.paintCards(canvas, req.Grid)
	return canvas, nil
}

// Render paints req and writes it as PNG
func (p *Painter) Render(req domain.RenderRequest, w io.Writer) error {
	canvas, err := p.Paint(req)
	if err != nil {
		return err
	}
	if err := canvas.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode report PNG: %w", err)
	}
	return nil
}

// RenderFile paints req to path, creating parent directories
func (p *Painter) RenderFile(req domain.RenderRequest, path string) error {
	var buf bytes.Buffer
	if err := p.Render(req, &buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report image: %w", err)
	}
	log.Printf("[Painter] wrote %s (%d bytes)", path, buf.Len())
	return nil
}

func (p *Painter) paintTimeline(canvas ports.Canvas, req domain.RenderRequest) {
	tl := req.Timeline
	w := float64(p.config.Width)
	h := float64(p.config.Height)

	left, right := w*horizontalInset, w*(1-horizontalInset)
	top, bottom := h*timelineTop, h*timelineBottom
	span := tl.End.Sub(tl.Start).Seconds()

	canvas.DrawText("Sleep Stages", w/2, top-h*0.012, p.text(30, 0.5, 0))

	xOf := func(seconds float64) float64 {
		if span <= 0 {
			return left
		}
		return left + (right-left)*seconds/span
	}
	levelScale := (bottom - top) / (float64(tl.MaxLevel) + levelHeadroom)

	for _, seg := range tl.Segments {
		x0 := xOf(seg.Start.Sub(tl.Start).Seconds())
		x1 := xOf(seg.End.Sub(tl.Start).Seconds())
		barH := float64(seg.Level) * levelScale
		canvas.FillRect(x0, bottom-barH, x1-x0, barH, seg.Color, 1)
	}

	canvas.DrawLine(left, bottom, right, bottom, 2, p.config.AxisColor, 1)
	for _, tick := range tl.Ticks {
		x := xOf(tick.At.Sub(tl.Start).Seconds())
		canvas.DrawLine(x, bottom, x, bottom+h*0.008, 2, p.config.TextColor, 1)
		canvas.DrawText(tick.Label, x, bottom+h*0.012, p.text(20, 0.5, 1))
	}
	canvas.DrawText(fmt.Sprintf("Time (%s)", req.Timezone), w/2, bottom+h*0.05, p.styled(22, p.config.AxisColor, 0.5, 1))

	// legend centered, sleep/wake at the edges of the same band
	y := h * legendY
	swatch := h * 0.018
	slot := w * 0.09
	x := w/2 - slot*float64(len(tl.Legend))/2
	for _, entry := range tl.Legend {
		canvas.FillRect(x, y-swatch/2, swatch, swatch, entry.Color, 1)
		canvas.DrawText(entry.Name, x+swatch*1.4, y, p.text(20, 0, 0.5))
		x += slot
	}
	canvas.DrawText("Sleep= "+tl.SleepLabel, left, y, p.text(24, 0, 0.5))
	canvas.DrawText("Wake= "+tl.WakeLabel, right, y, p.text(24, 1, 0.5))
}

func (p *Painter) paintCards(canvas ports.Canvas, grid domain.Grid) {
	w := float64(p.config.Width)
	h := float64(p.config.Height)

	panelX, panelW := w*horizontalInset, w*(1-2*horizontalInset)
	panelY, panelH := h*cardsTop, h*(cardsBottom-cardsTop)

	for _, slot := range grid.Slots {
		card := slot.Card
		x := panelX + slot.Bounds.X*panelW
		y := panelY + slot.Bounds.Y*panelH
		cw := slot.Bounds.W * panelW
		ch := slot.Bounds.H * panelH
		radius := ch * 0.08

		canvas.FillRoundedRect(x, y, cw, ch, radius, p.palette.Color(card.ColorBin), card.Alpha)
		canvas.StrokeRoundedRect(x, y, cw, ch, radius, 2, p.config.CardBorder, 0.08)

		inset := cw * 0.03
		if !p.config.HideSigma {
			canvas.DrawText(fmt.Sprintf("σ = %.2f", card.Sigma), x+cw-inset, y+ch*0.06, p.text(22, 1, 1))
		}
		if !p.config.HideMean {
			canvas.DrawText("μ = "+FormatCardValue(card.Unit, meanValue(card.Mean, card.BaselineStatus)), x+cw-inset, y+ch*0.2, p.text(20, 1, 1))
		}
		canvas.DrawText(FormatCardValue(card.Unit, card.CurrentValue), x+cw/2, y+ch*0.52, p.text(56, 0.5, 0.5))
		canvas.DrawText(card.Label, x+cw/2, y+ch*0.76, p.text(28, 0.5, 0.5))
	}
}

func (p *Painter) text(size, ax, ay float64) ports.TextStyle {
	return p.styled(size, p.config.TextColor, ax, ay)
}

func (p *Painter) styled(size float64, color string, ax, ay float64) ports.TextStyle {
	return ports.TextStyle{Size: size, Color: color, Alpha: 1, AnchorX: ax, AnchorY: ay}
}

// meanValue hides the (0, 0) sentinel of an insufficient baseline
func meanValue(mean float64, status stats.BaselineStatus) core.Optional[float64] {
	if status != stats.BaselineComputed {
		return core.None[float64]()
	}
	return core.Some(mean)
}
