package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/httpclient"
	"github.com/nulzo/studio-relay/internal/registry"
)

// Factory builds a provider. A nil client means the adapter creates its own.
type Factory func(cfg *config.Config, client httpclient.HTTPClient) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[registry.ProviderType]Factory)
)

// Register makes a provider factory available. Adapters call it from init().
func Register(providerType registry.ProviderType, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", providerType))
	}
	factories[providerType] = f
}

func Get(providerType registry.ProviderType) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[providerType]
	if !ok {
		return nil, fmt.Errorf("provider factory not found for type: %s", providerType)
	}
	return f, nil
}

// Registered lists the provider types with a factory, sorted.
func Registered() []registry.ProviderType {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]registry.ProviderType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
