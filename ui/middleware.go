package ui

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"ecttool/internal/errors"
	"ecttool/ui/middleware"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.respondError(c, errors.InternalError(fmt.Sprintf("panic: %v", recovered)))
	}))
	if gin.Mode() != gin.TestMode {
		s.router.Use(gin.Logger())
	}
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Metrics())
	s.router.Use(middleware.Timeout(s.timeout))
}
