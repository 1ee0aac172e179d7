package ui

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecttool/app"
	"ecttool/domain/cohort"
	"ecttool/internal"
)

// Server represents the web server for the survival explorer
type Server struct {
	router  *gin.Engine
	reports *app.ReportService
	cohort  *cohort.Table
	pages   *pageRenderer
	timeout time.Duration
	logger  *internal.Logger
}

// ServerConfig holds web server settings
type ServerConfig struct {
	GinMode        string
	RequestTimeout time.Duration
}

// NewServer creates a new web server instance over a loaded cohort
func NewServer(config ServerConfig, reports *app.ReportService, data *cohort.Table, logger *internal.Logger) (*Server, error) {
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	pages, err := newPageRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:  gin.New(),
		reports: reports,
		cohort:  data,
		pages:   pages,
		timeout: config.RequestTimeout,
		logger:  logger.With("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleHome)
	s.router.GET("/cite-us", s.handleCiteUs)

	api := s.router.Group("/api")
	api.GET("/modes", s.handleModes)
	api.GET("/categories", s.handleCategories)
	api.GET("/population/:category", s.handlePopulation)
	api.POST("/survival", s.handleSurvival)
	api.POST("/overview", s.handleOverview)

	s.router.NoRoute(s.handleNotFound)
}

// Handler exposes the router, used by tests and by Start
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting survival explorer on http://%s", addr)
	return s.router.Run(addr)
}
