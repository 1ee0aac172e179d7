package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecttool/app"
	"ecttool/domain/survival"
	"ecttool/internal/errors"
	"ecttool/ui/middleware"
)

type survivalRequest struct {
	Mode        string `json:"mode" binding:"required"`
	Category    string `json:"category" binding:"required"`
	FacetColumn string `json:"facet_column"`
	FacetRow    string `json:"facet_row"`
}

type overviewRequest struct {
	Mode        string   `json:"mode" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Subcategory string   `json:"subcategory" binding:"required"`
	Targets     []string `json:"targets"`
}

func (s *Server) handleModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modes": s.reports.Catalog().Modes()})
}

func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.reports.Catalog().Attributes()})
}

func (s *Server) handlePopulation(c *gin.Context) {
	series, err := s.reports.Population(s.cohort, c.Param("category"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (s *Server) handleSurvival(c *gin.Context) {
	var req survivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	report, err := s.reports.CategoryReport(c.Request.Context(), s.cohort, app.CategoryReportRequest{
		Mode:        survival.Mode(req.Mode),
		Category:    req.Category,
		FacetColumn: req.FacetColumn,
		FacetRow:    req.FacetRow,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleOverview(c *gin.Context) {
	var req overviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	overview, err := s.reports.Overview(c.Request.Context(), s.cohort, app.OverviewRequest{
		Mode:        survival.Mode(req.Mode),
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Targets:     req.Targets,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) handleNotFound(c *gin.Context) {
	s.respondError(c, errors.NotFound("route "+c.Request.Method+" "+c.Request.URL.Path))
}

// respondError maps pipeline errors onto a status and a {"error","code"} body
func (s *Server) respondError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(appErr.Code)
	id := c.GetString(middleware.RequestIDKey)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s [%s]: %v", c.Request.Method, c.Request.URL.Path, id, err)
	} else {
		s.logger.Warn("%s %s [%s]: %v", c.Request.Method, c.Request.URL.Path, id, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}
