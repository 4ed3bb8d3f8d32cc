package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/httpclient"
	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/pkg/api"
)

func init() {
	llm.Register(registry.OpenRouter, NewAdapter)
}

// Modalities requested on every call; image first so image models return pictures.
var Modalities = []string{"image", "text"}

type Adapter struct {
	config config.OpenRouterConfig
	client httpclient.HTTPClient
}

// New returns the concrete adapter, for callers that need the raw chat relay.
func New(cfg config.OpenRouterConfig, client httpclient.HTTPClient) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Adapter{config: cfg, client: client}
}

func NewAdapter(cfg *config.Config, client httpclient.HTTPClient) (llm.Provider, error) {
	return New(cfg.OpenRouter, client), nil
}

func (a *Adapter) Type() registry.ProviderType { return registry.OpenRouter }

func (a *Adapter) Configured() bool { return a.config.APIKey != "" }

type chatRequest struct {
	Model      string          `json:"model"`
	Messages   json.RawMessage `json:"messages"`
	Modalities []string        `json:"modalities"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			// Content is a string, an array of parts or null depending on the model.
			Content json.RawMessage `json:"content"`
			Images  []struct {
				Type     string `json:"type"`
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Adapter) url() string {
	return fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.config.BaseURL, "/"))
}

func (a *Adapter) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	}
	if a.config.Referer != "" {
		h["HTTP-Referer"] = a.config.Referer
	}
	if a.config.Title != "" {
		h["X-Title"] = a.config.Title
	}
	return h
}

// PromptMessages wraps a bare prompt as a single user message.
func PromptMessages(prompt string) (json.RawMessage, error) {
	return sonic.Marshal([]api.ChatMessage{{Role: "user", Content: prompt}})
}

// Generate asks the model's chat-completions endpoint for an image and returns the first one.
func (a *Adapter) Generate(ctx context.Context, req *llm.Request) (*llm.Result, error) {
	model := req.Model.EndpointID
	if model == "" {
		model = a.config.Model
	}

	messages, err := PromptMessages(req.Prompt)
	if err != nil {
		return nil, err
	}

	body := chatRequest{
		Model:      model,
		Messages:   messages,
		Modalities: Modalities,
	}

	var resp chatResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, a.url(), a.headers(), body, &resp); err != nil {
		var upstreamErr *httpclient.UpstreamError
		if errors.As(err, &upstreamErr) {
			return nil, fmt.Errorf("openrouter returned status %d: %s", upstreamErr.StatusCode, upstreamErr.Message())
		}
		return nil, err
	}

	if resp.Error != nil && resp.Error.Message != "" {
		return nil, fmt.Errorf("openrouter error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from openrouter")
	}

	images := resp.Choices[0].Message.Images
	if len(images) == 0 {
		return nil, errors.New("no images in response")
	}
	if images[0].ImageURL.URL == "" {
		return nil, errors.New("no image url in response")
	}

	return &llm.Result{URL: images[0].ImageURL.URL, UpstreamID: resp.ID}, nil
}

// Relay forwards chat messages to the configured model and returns the upstream
// status and body untouched. Only transport failures are errors.
func (a *Adapter) Relay(ctx context.Context, messages json.RawMessage) (int, []byte, error) {
	body, err := sonic.Marshal(chatRequest{
		Model:      a.config.Model,
		Messages:   messages,
		Modalities: Modalities,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal relay body: %w", err)
	}

	return httpclient.Forward(ctx, a.client, a.url(), a.headers(), body)
}
