package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/studio-relay/internal/store/results"
	"github.com/nulzo/studio-relay/pkg/api"
	"go.uber.org/zap"
)

func (h *Handler) HandleListModels(c *gin.Context) {
	c.JSON(http.StatusOK, api.ModelList{
		Object: "list",
		Data:   h.service.Models(),
	})
}

// HandleModelTestResults serves the probe results file. A missing file is the
// normal state before the first probe run and yields the empty document.
func (h *Handler) HandleModelTestResults(c *gin.Context) {
	doc, err := h.results.Load(c.Request.Context())
	if err == nil {
		c.JSON(http.StatusOK, doc)
		return
	}

	empty := api.EmptyModelTestResults()
	if !errors.Is(err, results.ErrNotFound) {
		h.logger.Warn("failed to load model test results",
			zap.String("path", h.results.Path()),
			zap.Error(err),
		)
		empty.Error = "Failed to load test results"
	}

	c.JSON(http.StatusOK, empty)
}
