package render

import (
	"bytes"
	"io"
	"testing"

	"sleepreport/adapters/stats/deviation"
	"sleepreport/domain/core"
	domain "sleepreport/domain/report"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"
	"sleepreport/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCanvas struct {
	mock.Mock
}

func (m *mockCanvas) Width() int  { return m.Called().Int(0) }
func (m *mockCanvas) Height() int { return m.Called().Int(0) }
func (m *mockCanvas) Clear(color string) {
	m.Called(color)
}
func (m *mockCanvas) FillRect(x, y, w, h float64, color string, alpha float64) {
	m.Called(x, y, w, h, color, alpha)
}
func (m *mockCanvas) FillRoundedRect(x, y, w, h, radius float64, color string, alpha float64) {
	m.Called(x, y, w, h, radius, color, alpha)
}
func (m *mockCanvas) StrokeRoundedRect(x, y, w, h, radius, lineWidth float64, color string, alpha float64) {
	m.Called(x, y, w, h, radius, lineWidth, color, alpha)
}
func (m *mockCanvas) DrawLine(x1, y1, x2, y2, lineWidth float64, color string, alpha float64) {
	m.Called(x1, y1, x2, y2, lineWidth, color, alpha)
}
func (m *mockCanvas) DrawText(text string, x, y float64, style ports.TextStyle) {
	m.Called(text, x, y, style)
}
func (m *mockCanvas) EncodePNG(w io.Writer) error {
	args := m.Called(w)
	_, _ = w.Write([]byte("png"))
	return args.Error(0)
}

type mockFactory struct {
	canvas *mockCanvas
}

func (f mockFactory) NewCanvas(width, height int) (ports.Canvas, error) {
	return f.canvas, nil
}

func permissive() *mockCanvas {
	c := &mockCanvas{}
	c.On("Clear", mock.Anything).Return()
	c.On("FillRect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	c.On("FillRoundedRect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	c.On("StrokeRoundedRect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	c.On("DrawLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	c.On("DrawText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	c.On("EncodePNG", mock.Anything).Return(nil)
	return c
}

func request() domain.RenderRequest {
	start := core.MustNormalizeTime("2024-03-05T03:00:00Z")
	end := core.MustNormalizeTime("2024-03-05T05:00:00Z")
	return domain.RenderRequest{
		Title:    "Sleep Report (2024-03-05)",
		Timezone: "UTC",
		Timeline: domain.Timeline{
			Start:      start,
			End:        end,
			SleepLabel: "03:00",
			WakeLabel:  "05:00",
			MaxLevel:   4,
			Segments: []domain.TimelineSegment{
				{Start: start, End: start.Add(3600e9), Stage: sleep.StageDeep, Name: "Deep", Level: 1, Color: "#0B3D91"},
				{Start: start.Add(3600e9), End: end, Stage: sleep.StageAwake, Name: "Awake", Level: 4, Color: "#FF6B6B"},
			},
			Ticks:  []domain.TimeTick{{At: start, Label: "03:00"}, {At: end, Label: "05:00"}},
			Legend: []domain.LegendEntry{{Name: "Deep", Color: "#0B3D91"}},
		},
		Grid: domain.Grid{
			Columns: 1,
			Rows:    1,
			Slots: []domain.CardSlot{{
				Bounds: domain.Rect{X: 0.03, Y: 0.03, W: 0.94, H: 0.94},
				Card: stats.DeviationCard{
					Metric:         sleep.MetricRestingHeartRate,
					Label:          "resting HR",
					Unit:           sleep.UnitBPM,
					CurrentValue:   core.Some(50.0),
					Mean:           30,
					BaselineStatus: stats.BaselineComputed,
					Sigma:          1.41,
					ColorBin:       stats.ColorBin{Ramp: stats.RampUnfavorable, Index: 2},
					Alpha:          0.69,
				},
			}},
		},
	}
}

func TestPainter_DrawsTimelineAndCards(t *testing.T) {
	c := permissive()
	p := NewPainter(mockFactory{canvas: c}, deviation.DefaultPalette(), DefaultPainterConfig())

	_, err := p.Paint(request())
	require.NoError(t, err)

	c.AssertCalled(t, "Clear", "#0B1020")
	// first segment spans the left half of the plot area
	c.AssertCalled(t, "FillRect", 140.0, mock.Anything, 1260.0, mock.Anything, "#0B3D91", 1.0)
	c.AssertCalled(t, "FillRoundedRect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, "#b88c80", 0.69)
	c.AssertCalled(t, "DrawText", "σ = 1.41", mock.Anything, mock.Anything, mock.Anything)
	c.AssertCalled(t, "DrawText", "μ = 30 bpm", mock.Anything, mock.Anything, mock.Anything)
	c.AssertCalled(t, "DrawText", "50 bpm", mock.Anything, mock.Anything, mock.Anything)
	c.AssertCalled(t, "DrawText", "resting HR", mock.Anything, mock.Anything, mock.Anything)
	c.AssertCalled(t, "DrawText", "Sleep= 03:00", mock.Anything, mock.Anything, mock.Anything)
	c.AssertCalled(t, "DrawText", "Wake= 05:00", mock.Anything, mock.Anything, mock.Anything)
	c.AssertCalled(t, "DrawText", "Time (UTC)", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNumberOfCalls(t, "FillRoundedRect", 1)
}

func TestPainter_InsufficientBaselineHidesMean(t *testing.T) {
	c := permissive()
	p := NewPainter(mockFactory{canvas: c}, deviation.DefaultPalette(), DefaultPainterConfig())
	req := request()
	req.Grid.Slots[0].Card.BaselineStatus = stats.BaselineInsufficient

	_, err := p.Paint(req)
	require.NoError(t, err)

	c.AssertCalled(t, "DrawText", "μ = "+MissingValue, mock.Anything, mock.Anything, mock.Anything)
}

func TestPainter_HideMeanAndSigma(t *testing.T) {
	c := permissive()
	cfg := DefaultPainterConfig()
	cfg.HideMean, cfg.HideSigma = true, true
	p := NewPainter(mockFactory{canvas: c}, deviation.DefaultPalette(), cfg)

	_, err := p.Paint(request())
	require.NoError(t, err)

	c.AssertNotCalled(t, "DrawText", "σ = 1.41", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "DrawText", "μ = 30 bpm", mock.Anything, mock.Anything, mock.Anything)
	c.AssertCalled(t, "DrawText", "50 bpm", mock.Anything, mock.Anything, mock.Anything)
}

func TestPainter_Render(t *testing.T) {
	c := permissive()
	p := NewPainter(mockFactory{canvas: c}, deviation.DefaultPalette(), PainterConfig{})

	var buf bytes.Buffer
	require.NoError(t, p.Render(request(), &buf))
	assert.Equal(t, "png", buf.String())
	c.AssertExpectations(t)
}

func TestFormatCardValue(t *testing.T) {
	tests := []struct {
		unit  sleep.ValueUnit
		value core.Optional[float64]
		want  string
	}{
		{sleep.UnitMinutes, core.Some(1830.0), "30min"},
		{sleep.UnitSeconds, core.Some(25500.0), "7h 5m"},
		{sleep.UnitSeconds, core.Some(25200.0), "7h"},
		{sleep.UnitSeconds, core.Some(2700.0), "45min"},
		{sleep.UnitSeconds, core.Some(-10.0), "0min"},
		{sleep.UnitBPM, core.Some(51.6), "52 bpm"},
		{sleep.UnitScore, core.Some(81.2), "81"},
		{sleep.UnitCount, core.Some(3.0), "3"},
		{sleep.UnitPlain, core.Some(23.4), "23"},
		{sleep.UnitPlain, core.Some(4.26), "4.3"},
		{sleep.UnitPlain, core.None[float64](), MissingValue},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCardValue(tt.unit, tt.value), "%s %v", tt.unit, tt.value)
	}
}
