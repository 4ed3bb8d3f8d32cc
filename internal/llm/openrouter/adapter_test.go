package openrouter_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/llm/openrouter"
	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) config.OpenRouterConfig {
	return config.OpenRouterConfig{
		APIKey:  "sk-or-test",
		BaseURL: url + "/api/v1",
		Model:   "black-forest-labs/flux.2-pro",
		Referer: "https://studio.example",
		Title:   "Studio",
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		assert.Equal(t, "https://studio.example", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Studio", r.Header.Get("X-Title"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"model":"vendor/image-model",
			"messages":[{"role":"user","content":"a cat"}],
			"modalities":["image","text"]
		}`, string(body))

		_, _ = w.Write([]byte(`{
			"id":"gen-1",
			"choices":[{"message":{"content":"","images":[{"type":"image_url","image_url":{"url":"data:image/png;base64,QUJD"}}]}}]
		}`))
	}))
	defer server.Close()

	p := openrouter.New(testConfig(server.URL), server.Client())
	res, err := p.Generate(context.Background(), &llm.Request{
		Model:  registry.ModelEntry{ID: "img", Provider: registry.OpenRouter, EndpointID: "vendor/image-model"},
		Prompt: "a cat",
		Params: llm.DefaultParams(),
	})

	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,QUJD", res.URL)
	assert.Equal(t, "gen-1", res.UpstreamID)
}

func TestGenerate_ContentShapes(t *testing.T) {
	contents := map[string]string{
		"string": `"here you go"`,
		"parts":  `[{"type":"text","text":"here you go"}]`,
		"null":   `null`,
	}

	for name, content := range contents {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":"gen-2","choices":[{"message":{"content":` + content +
					`,"images":[{"type":"image_url","image_url":{"url":"https://cdn.example/a.png"}}]}}]}`))
			}))
			defer server.Close()

			p := openrouter.New(testConfig(server.URL), server.Client())
			res, err := p.Generate(context.Background(), &llm.Request{
				Model:  registry.ModelEntry{ID: "img", Provider: registry.OpenRouter},
				Prompt: "p",
			})

			require.NoError(t, err)
			assert.Equal(t, "https://cdn.example/a.png", res.URL)
		})
	}
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"no images", http.StatusOK, `{"choices":[{"message":{"content":"sorry"}}]}`, "no images in response"},
		{"parts without images", http.StatusOK, `{"choices":[{"message":{"content":[{"type":"text","text":"sorry"}]}}]}`, "no images in response"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no response from openrouter"},
		{"error body", http.StatusOK, `{"error":{"message":"model overloaded"}}`, "model overloaded"},
		{"upstream status", http.StatusPaymentRequired, `{"error":{"message":"Insufficient credits"}}`, "Insufficient credits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := openrouter.New(testConfig(server.URL), server.Client())
			_, err := p.Generate(context.Background(), &llm.Request{
				Model:  registry.ModelEntry{ID: "img", Provider: registry.OpenRouter},
				Prompt: "p",
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRelay_PassesThroughStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"model":"black-forest-labs/flux.2-pro",
			"messages":[{"role":"system","content":"s"},{"role":"user","content":"u"}],
			"modalities":["image","text"]
		}`, string(body))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
	}))
	defer server.Close()

	p := openrouter.New(testConfig(server.URL), server.Client())
	status, body, err := p.Relay(context.Background(), []byte(`[{"role":"system","content":"s"},{"role":"user","content":"u"}]`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":{"message":"bad"}}`, string(body))
}

func TestNewAdapter_Registered(t *testing.T) {
	factory, err := llm.Get(registry.OpenRouter)
	require.NoError(t, err)

	p, err := factory(&config.Config{}, nil)
	require.NoError(t, err)
	assert.False(t, p.Configured())
	assert.Equal(t, registry.OpenRouter, p.Type())
}
