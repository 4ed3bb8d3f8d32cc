package api

import "encoding/json"

// GenerateRequest is the body accepted by POST /api/generate.
type GenerateRequest struct {
	Prompt  string `json:"prompt" binding:"required"`
	ModelID string `json:"model_id,omitempty"`
	Width   int    `json:"width,omitempty" binding:"omitempty,min=64,max=2048"`
	Height  int    `json:"height,omitempty" binding:"omitempty,min=64,max=2048"`
}

// GenerationResult is the client-facing envelope for a single generation.
// Exactly one of URL or Payload is set on success.
type GenerationResult struct {
	Success  bool            `json:"success"`
	URL      string          `json:"url,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Error    string          `json:"error,omitempty"`
	Provider string          `json:"provider,omitempty"`
	Model    string          `json:"model,omitempty"`
	Mock     bool            `json:"mock,omitempty"`
}

// BalanceResponse is returned by GET /api/balance.
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// StatusResponse reports which providers have credentials configured.
type StatusResponse struct {
	RunPodConfigured     bool    `json:"runpod_configured"`
	OpenRouterConfigured bool    `json:"openrouter_configured"`
	APIKeyPreview        *string `json:"api_key_preview"`
}
