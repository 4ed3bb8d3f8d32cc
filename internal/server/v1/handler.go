package v1

import (
	"time"

	"github.com/nulzo/studio-relay/internal/gateway"
	"github.com/nulzo/studio-relay/internal/store/results"
	"go.uber.org/zap"
)

// Handler serves the /api routes consumed by the front-end.
type Handler struct {
	service gateway.Service
	results *results.Store
	logger  *zap.Logger
	started time.Time
}

func NewHandler(service gateway.Service, store *results.Store, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		results: store,
		logger:  logger,
		started: time.Now(),
	}
}
