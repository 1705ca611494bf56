package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"sleepreport/app"
	"sleepreport/internal/api"
	"sleepreport/ui/middleware"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP surface over the report and summary services
type Server struct {
	router    *gin.Engine
	reports   *app.ReportService
	summaries *app.SummaryService
	hub       *api.RunHub
	templates *template.Template
}

// Config holds server options
type Config struct {
	GinMode string
}

// NewServer creates the server. hub may be nil, which disables /api/events.
func NewServer(reports *app.ReportService, summaries *app.SummaryService, hub *api.RunHub, config Config) (*Server, error) {
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}

	templates, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		reports:   reports,
		summaries: summaries,
		hub:       hub,
		templates: templates,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	days := s.router.Group("/", middleware.ValidateDay())
	days.GET("/", s.handleIndex)

	apiGroup := days.Group("/api")
	apiGroup.GET("/report", s.handleReport)
	apiGroup.GET("/report/image", s.handleReportImage)
	apiGroup.POST("/report/send", s.handleReportSend)
	apiGroup.GET("/summary", s.handleSummary)
	apiGroup.GET("/baselines", s.handleBaselines)
	apiGroup.GET("/export", s.handleExport)

	if s.hub != nil {
		s.router.GET("/api/events", s.hub.HandleSSE)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router for graceful shutdown
func (s *Server) HTTPServer(addr string) *http.Server {
	log.Printf("Starting sleep report server on http://%s", addr)
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
