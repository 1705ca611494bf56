package ports

import "io"

// TextStyle controls one text draw. AnchorX 0 starts the text at x and 1 ends
// it there. AnchorY 0 puts the baseline on y and 1 hangs the text below y.
type TextStyle struct {
	Size    float64
	Color   string
	Alpha   float64
	AnchorX float64
	AnchorY float64
}

// Canvas is a raster surface in pixel coordinates, origin top-left.
// Colors are hex strings ("#RRGGBB"); alpha is 0..1.
type Canvas interface {
	Width() int
	Height() int
	Clear(color string)
	FillRect(x, y, w, h float64, color string, alpha float64)
	FillRoundedRect(x, y, w, h, radius float64, color string, alpha float64)
	StrokeRoundedRect(x, y, w, h, radius, lineWidth float64, color string, alpha float64)
	DrawLine(x1, y1, x2, y2, lineWidth float64, color string, alpha float64)
	DrawText(text string, x, y float64, style TextStyle)
	EncodePNG(w io.Writer) error
}

// CanvasFactory creates blank canvases
type CanvasFactory interface {
	NewCanvas(width, height int) (Canvas, error)
}
