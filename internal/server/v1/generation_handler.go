package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/server/validator"
	"github.com/nulzo/studio-relay/pkg/api"
)

// HandleGenerate validates the prompt and relays it to the model's provider.
func (h *Handler) HandleGenerate(c *gin.Context) {
	var req api.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	params := llm.DefaultParams()
	if req.Width > 0 {
		params.Width = req.Width
	}
	if req.Height > 0 {
		params.Height = req.Height
	}

	result, err := h.service.Dispatch(c.Request.Context(), req.ModelID, req.Prompt, params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
