package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/studio-relay/internal/server/middleware"
	v1 "github.com/nulzo/studio-relay/internal/server/v1"
	"github.com/nulzo/studio-relay/pkg/api"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	h := v1.NewHandler(s.service, s.results, s.logger)

	s.router.GET("/health", h.HandleHealth)

	group := s.router.Group("/api")
	if s.config.RateLimit.Enabled {
		group.Use(middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger).Middleware())
	}
	{
		group.POST("/generate", h.HandleGenerate)
		group.GET("/balance", h.HandleBalance)
		group.GET("/model-test-results", h.HandleModelTestResults)
		group.GET("/models", h.HandleListModels)
		group.GET("/status", h.HandleStatus)
	}

	s.router.NoRoute(s.serveStatic())
}

// serveStatic serves the front-end bundle for any GET outside /api.
// "/" resolves to index.html.
func (s *Server) serveStatic() gin.HandlerFunc {
	files := http.FileServer(http.Dir(s.config.Static.Dir))

	return func(c *gin.Context) {
		method := c.Request.Method
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || (method != http.MethodGet && method != http.MethodHead) {
			err := api.NotFoundError("Not Found")
			c.JSON(err.Code, err.Response())
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
