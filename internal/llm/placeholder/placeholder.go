// Package placeholder answers generations with a fixed image when no provider
// credentials are configured, so the front-end can be developed offline.
package placeholder

import (
	"context"
	"time"

	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/registry"
)

type Provider struct {
	delay time.Duration
	url   string
}

func New(delay time.Duration, url string) *Provider {
	return &Provider{delay: delay, url: url}
}

// Type reports the placeholder as no real provider.
func (p *Provider) Type() registry.ProviderType { return "" }

func (p *Provider) Configured() bool { return true }

// Generate waits the configured delay and returns the placeholder URL. It never calls out.
func (p *Provider) Generate(ctx context.Context, req *llm.Request) (*llm.Result, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return &llm.Result{URL: p.url}, nil
}
