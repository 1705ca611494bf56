package canvas

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"sleepreport/ports"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// GGFactory creates canvases backed by fogleman/gg
type GGFactory struct {
	fonts *fontCache
}

// NewGGFactory parses the embedded Go font once
func NewGGFactory() (*GGFactory, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	return &GGFactory{fonts: &fontCache{font: f, faces: make(map[float64]font.Face)}}, nil
}

// NewCanvas implements ports.CanvasFactory
func (f *GGFactory) NewCanvas(width, height int) (ports.Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	return &ggCanvas{dc: gg.NewContext(width, height), fonts: f.fonts}, nil
}

// fontCache shares faces between canvases; the factory may be used from
// concurrent HTTP handlers
type fontCache struct {
	mu    sync.Mutex
	font  *truetype.Font
	faces map[float64]font.Face
}

func (c *fontCache) face(size float64) font.Face {
	c.mu.Lock()
	defer c.mu.Unlock()
	if face, ok := c.faces[size]; ok {
		return face
	}
	face := truetype.NewFace(c.font, &truetype.Options{Size: size})
	c.faces[size] = face
	return face
}

type ggCanvas struct {
	dc    *gg.Context
	fonts *fontCache
}

func (c *ggCanvas) Width() int  { return c.dc.Width() }
func (c *ggCanvas) Height() int { return c.dc.Height() }

func (c *ggCanvas) Clear(color string) {
	c.setColor(color, 1)
	c.dc.Clear()
}

func (c *ggCanvas) FillRect(x, y, w, h float64, color string, alpha float64) {
	c.setColor(color, alpha)
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Fill()
}

func (c *ggCanvas) FillRoundedRect(x, y, w, h, radius float64, color string, alpha float64) {
	c.setColor(color, alpha)
	c.dc.DrawRoundedRectangle(x, y, w, h, radius)
	c.dc.Fill()
}

func (c *ggCanvas) StrokeRoundedRect(x, y, w, h, radius, lineWidth float64, color string, alpha float64) {
	c.setColor(color, alpha)
	c.dc.SetLineWidth(lineWidth)
	c.dc.DrawRoundedRectangle(x, y, w, h, radius)
	c.dc.Stroke()
}

func (c *ggCanvas) DrawLine(x1, y1, x2, y2, lineWidth float64, color string, alpha float64) {
	c.setColor(color, alpha)
	c.dc.SetLineWidth(lineWidth)
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.Stroke()
}

func (c *ggCanvas) DrawText(text string, x, y float64, style ports.TextStyle) {
	if text == "" {
		return
	}
	alpha := style.Alpha
	if alpha <= 0 {
		alpha = 1
	}
	c.dc.SetFontFace(c.fonts.face(style.Size))
	c.setColor(style.Color, alpha)
	c.dc.DrawStringAnchored(text, x, y, style.AnchorX, style.AnchorY)
}

func (c *ggCanvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

func (c *ggCanvas) setColor(hex string, alpha float64) {
	r, g, b := parseHex(hex)
	c.dc.SetRGBA(r, g, b, clamp01(alpha))
}

// parseHex reads #RGB or #RRGGBB; anything else is white
func parseHex(hex string) (float64, float64, float64) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 1, 1, 1
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 1, 1, 1
	}
	return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
