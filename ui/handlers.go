package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"sleepreport/adapters/excel"
	"sleepreport/app"
	"sleepreport/domain/stats"
	"sleepreport/internal/errors"
	"sleepreport/ui/middleware"

	"github.com/gin-gonic/gin"
)

// cardRow is one preformatted line of the dashboard table
type cardRow struct {
	Label   string
	Current string
	Mean    string
	Z       string
	Verdict stats.Verdict
}

type indexPage struct {
	Day     string
	Query   string
	Rows    []cardRow
	Summary template.HTML
	Error   string
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.hub != nil {
		body["runs"] = s.hub.Last()
	}
	c.JSON(http.StatusOK, body)
}

// handleIndex serves the dashboard for ?day= or the latest night
func (s *Server) handleIndex(c *gin.Context) {
	day := c.GetString(middleware.DayKey)
	page := indexPage{Day: day, Query: day}

	result, err := s.reports.Build(c.Request.Context(), day)
	if err != nil {
		page.Error = err.Error()
		s.renderTemplate(c, statusFor(err), "index.html", page)
		return
	}
	page.Day = result.Day
	page.Rows = rowsOf(result.Cards)

	// the summary is optional on the page
	if summary, err := s.summaries.Build(c.Request.Context(), day); err == nil {
		page.Summary = template.HTML(summary.HTML)
	} else {
		log.Printf("[Dashboard] summary unavailable for %s: %v", result.Day, err)
	}
	s.renderTemplate(c, http.StatusOK, "index.html", page)
}

func (s *Server) handleReport(c *gin.Context) {
	result, err := s.reports.Build(c.Request.Context(), c.GetString(middleware.DayKey))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleReportImage renders the PNG; the fingerprint doubles as the ETag
func (s *Server) handleReportImage(c *gin.Context) {
	result, err := s.reports.Build(c.Request.Context(), c.GetString(middleware.DayKey))
	if err != nil {
		writeError(c, err)
		return
	}

	etag := fmt.Sprintf("%q", result.Fingerprint.Short())
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	png, err := s.reports.RenderPNG(result)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// handleReportSend renders and delivers the report now. A ?day= override
// always sends; latest mode still dedupes.
func (s *Server) handleReportSend(c *gin.Context) {
	result, err := s.reports.RunOnce(c.Request.Context(), app.ReportRequest{
		Day:     c.GetString(middleware.DayKey),
		Deliver: true,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSummary(c *gin.Context) {
	result, err := s.summaries.Build(c.Request.Context(), c.GetString(middleware.DayKey))
	if err != nil {
		writeError(c, err)
		return
	}

	switch format := c.DefaultQuery("format", "text"); format {
	case "text":
		c.String(http.StatusOK, result.Text)
	case "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(result.Markdown))
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(result.HTML))
	case "json":
		c.JSON(http.StatusOK, result)
	default:
		writeError(c, errors.InvalidInput("unknown summary format "+format))
	}
}

func (s *Server) handleBaselines(c *gin.Context) {
	result, err := s.reports.Build(c.Request.Context(), c.GetString(middleware.DayKey))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"day":       result.Day,
		"sleep_key": result.SleepKey,
		"baselines": result.Baselines,
	})
}

// handleExport streams the night, its history and its session as xlsx
func (s *Server) handleExport(c *gin.Context) {
	data, result, err := s.reports.Export(c.Request.Context(), c.GetString(middleware.DayKey))
	if err != nil {
		writeError(c, err)
		return
	}

	exporter, err := excel.NewExporter(data)
	if err != nil {
		writeError(c, errors.Wrap(err, "failed to build workbook"))
		return
	}
	defer exporter.Close()

	var buf bytes.Buffer
	if _, err := exporter.WriteTo(&buf); err != nil {
		writeError(c, errors.Wrap(err, "failed to write workbook"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=sleep_%s.xlsx", result.Day))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// renderTemplate executes into a buffer first so a failed template never
// leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Template error for %s: %v", name, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// writeError maps an AppError code to an HTTP status
func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeParseError, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeNotFound, errors.CodeNoCandidate:
		return http.StatusNotFound
	case errors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func rowsOf(cards []stats.DeviationCard) []cardRow {
	rows := make([]cardRow, 0, len(cards))
	for _, card := range cards {
		row := cardRow{Label: card.Label, Current: "n/a", Mean: "n/a", Verdict: card.Verdict}
		if v, ok := card.CurrentValue.Get(); ok {
			row.Current = fmt.Sprintf("%.1f", v)
		}
		if card.BaselineStatus == stats.BaselineComputed {
			row.Mean = fmt.Sprintf("%.1f", card.Mean)
			row.Z = fmt.Sprintf("%+.2f", card.ZScore)
		}
		rows = append(rows, row)
	}
	return rows
}
