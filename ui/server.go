package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"creditdash/internal/filter"
	"creditdash/internal/metrics"
	"creditdash/internal/session"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static about.md
var embeddedFiles embed.FS

// Deps are the collaborators the dashboard needs
type Deps struct {
	Sessions       *session.Store
	Metrics        *metrics.Metrics
	Controls       filter.Controls
	PageSize       int
	MaxUploadBytes int64
	GinMode        string
}

// Server is the credit-risk dashboard web server
type Server struct {
	router    *gin.Engine
	templates map[string]*template.Template
	about     template.HTML

	sessions       *session.Store
	metrics        *metrics.Metrics
	controls       filter.Controls
	pageSize       int
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewServer parses the embedded templates and wires routes
func NewServer(deps Deps) (*Server, error) {
	if deps.GinMode != "" {
		gin.SetMode(deps.GinMode)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Controls == nil {
		deps.Controls = filter.DefaultControls()
	}
	if deps.PageSize <= 0 {
		deps.PageSize = 100
	}

	s := &Server{
		router:         gin.New(),
		sessions:       deps.Sessions,
		metrics:        deps.Metrics,
		controls:       deps.Controls,
		pageSize:       deps.PageSize,
		maxUploadBytes: deps.MaxUploadBytes,
		logger:         slog.Default().With("component", "ui"),
	}

	templates, err := parseTemplates(embeddedFiles)
	if err != nil {
		return nil, err
	}
	s.templates = templates

	about, err := fs.ReadFile(embeddedFiles, "about.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read about panel: %w", err)
	}
	s.about = renderMarkdown(about)

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router for an http.Server or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/raw") })

	// Views
	s.router.GET("/raw", s.handleRaw)
	s.router.GET("/filter", s.handleFilter)
	s.router.GET("/summary", s.handleSummary)
	s.router.GET("/graphs", s.handleGraphs)
	s.router.GET("/charts/distribution/:column", s.handleDistributionPNG)

	// Source selection
	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/upload/clear", s.handleClearUpload)

	api := s.router.Group("/api")
	{
		api.GET("/dataset", s.handleAPIDataset)
		api.GET("/summary", s.handleAPISummary)
		api.GET("/filter", s.handleAPIFilter)
		api.GET("/correlation", s.handleAPICorrelation)
		api.GET("/distribution/:column", s.handleAPIDistribution)
	}

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
}
