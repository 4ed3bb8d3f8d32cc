package gateway

import (
	"context"
	"fmt"

	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/httpclient"
	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/llm/placeholder"
	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/internal/store/cache"
	"github.com/nulzo/studio-relay/pkg/api"
	"go.uber.org/zap"
)

// Service is everything the HTTP layer needs from the relay core.
type Service interface {
	Dispatch(ctx context.Context, modelID, prompt string, params llm.Params) (*api.GenerationResult, error)
	Balance(ctx context.Context) string
	Models() []api.Model
	Status() api.StatusResponse
}

type service struct {
	dispatcher *Dispatcher
	balance    *BalanceService
	registry   *registry.Registry
	config     *config.Config
}

func NewService(cfg *config.Config, reg *registry.Registry, dispatcher *Dispatcher, balance *BalanceService) Service {
	return &service{
		dispatcher: dispatcher,
		balance:    balance,
		registry:   reg,
		config:     cfg,
	}
}

// Build wires providers, dispatcher and balance service from configuration.
// client may be nil; c may be nil to disable balance caching.
func Build(cfg *config.Config, reg *registry.Registry, client httpclient.HTTPClient, c cache.CacheService, logger *zap.Logger) (Service, error) {
	providers, err := BootstrapProviders(cfg, reg, client, logger)
	if err != nil {
		return nil, err
	}

	dispatcher, err := NewDispatcher(reg, providers, placeholder.New(cfg.Mock.Delay, cfg.Mock.URL), logger)
	if err != nil {
		return nil, err
	}

	var reporter llm.BalanceReporter
	if cfg.RunPodConfigured() {
		p := providers[registry.RunPod]
		if p == nil {
			factory, err := llm.Get(registry.RunPod)
			if err != nil {
				return nil, err
			}
			if p, err = factory(cfg, client); err != nil {
				return nil, err
			}
		}
		if r, ok := p.(llm.BalanceReporter); ok {
			reporter = r
		}
	}

	return NewService(cfg, reg, dispatcher, NewBalanceService(reporter, c, cfg.Cache.BalanceTTL, logger)), nil
}

func (s *service) Dispatch(ctx context.Context, modelID, prompt string, params llm.Params) (*api.GenerationResult, error) {
	return s.dispatcher.Dispatch(ctx, modelID, prompt, params)
}

func (s *service) Balance(ctx context.Context) string {
	return s.balance.Balance(ctx)
}

func (s *service) Models() []api.Model {
	def := s.registry.Default().ID
	entries := s.registry.List()

	out := make([]api.Model, 0, len(entries))
	for _, e := range entries {
		out = append(out, api.Model{
			ID:            e.ID,
			Object:        "model",
			Name:          e.DisplayName,
			Provider:      string(e.Provider),
			EndpointID:    e.EndpointID,
			ContentRating: string(e.ContentRating),
			Default:       e.ID == def,
		})
	}
	return out
}

func (s *service) Status() api.StatusResponse {
	status := api.StatusResponse{
		RunPodConfigured:     s.config.RunPodConfigured(),
		OpenRouterConfigured: s.config.OpenRouterConfigured(),
	}
	if key := s.config.OpenRouter.APIKey; key != "" {
		preview := key
		if len(preview) > 15 {
			preview = preview[:15]
		}
		preview = fmt.Sprintf("%s...", preview)
		status.APIKeyPreview = &preview
	}
	return status
}
