package gateway

import (
	"fmt"

	"github.com/nulzo/studio-relay/internal/cli"
	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/httpclient"
	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/registry"
	"go.uber.org/zap"

	// adapters register themselves in init()
	_ "github.com/nulzo/studio-relay/internal/llm/openrouter"
	_ "github.com/nulzo/studio-relay/internal/llm/runpod"
)

// BootstrapProviders builds one provider per provider type referenced by the registry.
// A type with no registered factory is a configuration error.
func BootstrapProviders(cfg *config.Config, reg *registry.Registry, client httpclient.HTTPClient, log *zap.Logger) (map[registry.ProviderType]llm.Provider, error) {
	providers := make(map[registry.ProviderType]llm.Provider)

	for _, pType := range reg.Providers() {
		factoryFunc, err := llm.Get(pType)
		if err != nil {
			return nil, fmt.Errorf("model registry references provider %q (registered: %v): %w", pType, llm.Registered(), err)
		}

		p, err := factoryFunc(cfg, client)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize provider %s: %w", pType, err)
		}

		if p.Configured() {
			log.Info(fmt.Sprintf("%s %s", cli.CheckMark(), cli.Style(string(pType), cli.Bold)),
				zap.String("provider", string(pType)))
		} else {
			log.Warn(fmt.Sprintf("%s %s %s",
				cli.WarningSign(),
				cli.Style(string(pType), cli.Bold),
				cli.Style("credentials missing, serving placeholder images", cli.Yellow),
			), zap.String("provider", string(pType)))
		}

		providers[pType] = p
	}

	return providers, nil
}
