package llm

import (
	"context"
	"encoding/json"

	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/pkg/api"
)

// Params are the inference parameters sent with every image generation.
type Params struct {
	Steps         int
	GuidanceScale float64
	Width         int
	Height        int
	SafetyChecker bool
}

// DefaultParams are the fixed settings the hosted turbo models are tuned for.
func DefaultParams() Params {
	return Params{
		Steps:         9,
		GuidanceScale: 0.0,
		Width:         1024,
		Height:        1024,
		SafetyChecker: false,
	}
}

type Request struct {
	Model  registry.ModelEntry
	Prompt string
	Params Params
}

// Result is a provider response normalized to either a URL (http or data:) or an opaque payload.
type Result struct {
	URL        string
	Payload    json.RawMessage
	UpstreamID string
}

// Provider is the capability every hosting backend implements.
type Provider interface {
	Type() registry.ProviderType
	// Configured reports whether the provider has credentials to make real calls.
	Configured() bool
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// BalanceReporter is implemented by providers exposing an account balance.
type BalanceReporter interface {
	Balance(ctx context.Context) (float64, error)
}

// HealthChecker is implemented by providers that can report endpoint worker health.
type HealthChecker interface {
	Health(ctx context.Context, endpointID string) (*api.WorkerCounts, error)
}
