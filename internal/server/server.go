package server

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/gateway"
	"github.com/nulzo/studio-relay/internal/server/middleware"
	"github.com/nulzo/studio-relay/internal/server/validator"
	"github.com/nulzo/studio-relay/internal/store/results"
	"go.uber.org/zap"
)

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	service gateway.Service
	results *results.Store
}

func New(cfg *config.Config, logger *zap.Logger, service gateway.Service, store *results.Store) *Server {
	switch cfg.Server.Env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	validator.InitValidator()

	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger))
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	}

	s := &Server{
		router:  engine,
		config:  cfg,
		logger:  logger,
		service: service,
		results: store,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
