package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sleepreport/adapters/render"
	"sleepreport/adapters/render/canvas"
	"sleepreport/adapters/stats/deviation"
	"sleepreport/app"
	"sleepreport/domain/sleep"
	"sleepreport/internal/api"
	"sleepreport/internal/errors"
	"sleepreport/internal/report"
	"sleepreport/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ds, err := testkit.NewNightGenerator(testkit.DefaultNightConfig()).Generate()
	require.NoError(t, err)
	store := testkit.NewMemoryStoreWith(ds)

	encoder, err := deviation.NewEncoder(deviation.DefaultEncoderConfig())
	require.NoError(t, err)
	cfg := app.DefaultPipelineConfig()
	cfg.DisplayTimezone = "UTC"
	pipeline := app.NewPipeline(store, sleep.DefaultMetricCatalog(), encoder, cfg).
		WithClock(func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) })

	factory, err := canvas.NewGGFactory()
	require.NoError(t, err)
	painter := render.NewPainter(factory, deviation.DefaultPalette(), render.PainterConfig{
		Width: 700, Height: 450, Background: "#0B1020", TextColor: "#FFFFFF", AxisColor: "#B7BCC7", CardBorder: "#FFFFFF",
	})
	reports := app.NewReportService(pipeline, report.NewAssembler(report.DefaultLayoutConfig(), 0), painter, t.TempDir(), nil, nil)
	summaries := app.NewSummaryService(pipeline, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s, err := NewServer(reports, summaries, api.NewRunHub(ctx), Config{GinMode: gin.TestMode})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_Report(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Day   string            `json:"day"`
		Cards []json.RawMessage `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-03-09", body.Day)
	assert.Len(t, body.Cards, 9)

	rec = get(t, s, "/api/report?day=2024-03-05")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"day":"2024-03-05"`)
}

func TestServer_ReportErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/report?day=09-03-2024", http.StatusBadRequest, errors.CodeParseError},
		{"/api/report?day=2023-01-01", http.StatusNotFound, errors.CodeNotFound},
		{"/api/summary?format=voice", http.StatusBadRequest, errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"code":%q`, tt.code))
		})
	}
}

func TestServer_ReportImageETag(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/report/image")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = get(t, s, "/api/report/image", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestServer_SummaryFormats(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Any thoughts on why your sleep was like this?")

	rec = get(t, s, "/api/summary?format=markdown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "## Sleep Summary (2024-03-09)")

	rec = get(t, s, "/api/summary?format=html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<li>")
}

func TestServer_Baselines(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/baselines")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Baselines map[string]struct {
			Count  int    `json:"count"`
			Status string `json:"status"`
		} `json:"baselines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 13, body.Baselines["sleepScore"].Count)
	assert.Equal(t, "computed", body.Baselines["sleepScore"].Status)
}

func TestServer_Export(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/export?day=2024-03-05")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sleep_2024-03-05.xlsx")
	// xlsx is a zip container
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestServer_Index(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sleep Summary (2024-03-09)")
	assert.Contains(t, rec.Body.String(), `<img src="/api/report/image"`)

	rec = get(t, s, "/?day=2023-01-01")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error"`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.ValidationError("bad")))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.NotFound("night")))
	assert.Equal(t, http.StatusBadGateway, statusFor(errors.ExternalServiceError("telegram", fmt.Errorf("down"))))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("boom")))
}
