package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/studio-relay/pkg/api"
)

// HandleBalance always answers 200; upstream failures are masked by the service.
func (h *Handler) HandleBalance(c *gin.Context) {
	c.JSON(http.StatusOK, api.BalanceResponse{Balance: h.service.Balance(c.Request.Context())})
}

func (h *Handler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}
