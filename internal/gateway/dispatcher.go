package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/llm/processing"
	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/pkg/api"
	"go.uber.org/zap"
)

// Dispatcher resolves a model and makes exactly one call to its provider.
// It holds no per-call state.
type Dispatcher struct {
	registry  *registry.Registry
	providers map[registry.ProviderType]llm.Provider
	fallback  llm.Provider
	logger    *zap.Logger
}

// NewDispatcher fails if any provider named by the registry has no implementation.
func NewDispatcher(reg *registry.Registry, providers map[registry.ProviderType]llm.Provider, fallback llm.Provider, logger *zap.Logger) (*Dispatcher, error) {
	if reg == nil {
		return nil, errors.New("nil model registry")
	}
	if fallback == nil {
		return nil, errors.New("nil placeholder provider")
	}
	for _, p := range reg.Providers() {
		if _, ok := providers[p]; !ok {
			return nil, fmt.Errorf("no implementation for provider %q: %w", p, registry.ErrUnknownProvider)
		}
	}

	return &Dispatcher{
		registry:  reg,
		providers: providers,
		fallback:  fallback,
		logger:    logger,
	}, nil
}

// Dispatch runs one generation. The returned result is never nil; when err is
// non-nil it is an *api.Error and the result carries the same message.
func (d *Dispatcher) Dispatch(ctx context.Context, modelID, prompt string, params llm.Params) (*api.GenerationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return failure("", "", "Prompt is required"), api.BadRequestError("Prompt is required")
	}

	entry, err := d.registry.Resolve(modelID)
	if err != nil {
		msg := fmt.Sprintf("unknown model: %s", modelID)
		return failure(modelID, "", msg), api.BadRequestError(msg)
	}

	provider := d.providers[entry.Provider]
	req := &llm.Request{Model: entry, Prompt: prompt, Params: params}

	if !provider.Configured() || entry.EndpointID == "" {
		d.logger.Warn("Provider credentials missing, returning placeholder",
			zap.String("model", entry.ID),
			zap.String("provider", string(entry.Provider)),
		)
		res, err := d.fallback.Generate(ctx, req)
		if err != nil {
			return failure(entry.ID, entry.Provider, err.Error()), api.InternalError(err.Error(), err)
		}
		out := success(entry, res)
		out.Mock = true
		return out, nil
	}

	start := time.Now()
	res, err := provider.Generate(ctx, req)
	if err != nil {
		d.logger.Error("Generation failed",
			zap.String("model", entry.ID),
			zap.String("provider", string(entry.Provider)),
			zap.String("endpoint", entry.EndpointID),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return failure(entry.ID, entry.Provider, err.Error()), api.ProviderError(err.Error(), err)
	}

	if res.URL != "" {
		if res.URL, err = processing.NormalizeImageURL(res.URL); err != nil {
			msg := fmt.Sprintf("invalid image in %s response: %v", entry.Provider, err)
			return failure(entry.ID, entry.Provider, msg), api.ProviderError(msg, err)
		}
	}

	d.logger.Info("Generation completed",
		zap.String("model", entry.ID),
		zap.String("provider", string(entry.Provider)),
		zap.String("upstream_id", res.UpstreamID),
		zap.Duration("latency", time.Since(start)),
	)

	return success(entry, res), nil
}

func success(entry registry.ModelEntry, res *llm.Result) *api.GenerationResult {
	return &api.GenerationResult{
		Success:  true,
		URL:      res.URL,
		Payload:  res.Payload,
		Provider: string(entry.Provider),
		Model:    entry.ID,
	}
}

func failure(modelID string, provider registry.ProviderType, msg string) *api.GenerationResult {
	return &api.GenerationResult{
		Success:  false,
		Error:    msg,
		Provider: string(provider),
		Model:    modelID,
	}
}
