package handler

import (
	"net/http"

	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/llm/openrouter"
	"github.com/nulzo/studio-relay/internal/platform/logger"
	"github.com/nulzo/studio-relay/internal/relay"
	"go.uber.org/zap"
)

var relayHandler http.Handler

// init runs once per cold start. Credentials come from the platform's environment.
func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Initialize(logger.DefaultConfig())
		logger.Error("relay config", zap.Error(err))
		relayHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"relay is misconfigured"}`))
		})
		return
	}

	logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: "json"})

	adapter := openrouter.New(cfg.OpenRouter, nil)
	relayHandler = relay.New(adapter, cfg.OpenRouterConfigured(), logger.Get())
}

// Handler is the serverless entry point for POST /api/generate.
func Handler(w http.ResponseWriter, r *http.Request) {
	relayHandler.ServeHTTP(w, r)
}
