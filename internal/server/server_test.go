package server_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/gateway"
	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/internal/server"
	"github.com/nulzo/studio-relay/internal/store/cache"
	"github.com/nulzo/studio-relay/internal/store/results"
	"github.com/nulzo/studio-relay/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const placeholderURL = "https://placeholder.test/cat.png"

// upstream stands in for both RunPod APIs and counts every call it receives.
type upstream struct {
	*httptest.Server
	calls   atomic.Int32
	runsync http.HandlerFunc
	graphql http.HandlerFunc
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/runsync") && u.runsync != nil:
			u.runsync(w, r)
		case r.URL.Path == "/graphql" && u.graphql != nil:
			u.graphql(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(u.Close)
	return u
}

type fixture struct {
	handler  http.Handler
	upstream *upstream
	config   *config.Config
}

func setup(t *testing.T, apiKey string, configure ...func(*config.Config)) *fixture {
	t.Helper()
	u := newUpstream(t)

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>studio</h1>"), 0o644))

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Static.Dir = staticDir
	cfg.Results.Path = filepath.Join(t.TempDir(), "model_test_results.json")
	cfg.Mock.Delay = 20 * time.Millisecond
	cfg.Mock.URL = placeholderURL
	cfg.Cache.BalanceTTL = time.Minute
	cfg.RunPod.APIKey = apiKey
	cfg.RunPod.BaseURL = u.URL + "/v2"
	cfg.RunPod.GraphQLURL = u.URL + "/graphql"
	cfg.OpenRouter.BaseURL = u.URL + "/api/v1"
	cfg.OpenRouter.Model = "vendor/model"
	for _, fn := range configure {
		fn(cfg)
	}

	reg, err := registry.New([]registry.ModelEntry{
		{ID: "z-image-turbo", Provider: registry.RunPod, EndpointID: "ep-1", DisplayName: "Z-Image Turbo"},
		{ID: "pony-v6", Provider: registry.RunPod, EndpointID: "ep-2", ContentRating: registry.RatingHigh},
	}, "z-image-turbo")
	require.NoError(t, err)

	svc, err := gateway.Build(cfg, reg, u.Client(), cache.NewMemoryCache(), zap.NewNop())
	require.NoError(t, err)

	srv := server.New(cfg, zap.NewNop(), svc, results.New(cfg.Results.Path))
	return &fixture{handler: srv.Handler(), upstream: u, config: cfg}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), v))
}

func TestGenerate_MissingPrompt(t *testing.T) {
	f := setup(t, "rp-key")

	for _, body := range []string{``, `{}`, `{"prompt":""}`, `{"prompt":"   "}`, `not json`} {
		t.Run(body, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/generate", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp api.ErrorResponse
			decode(t, w, &resp)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}

	w := f.do(http.MethodPost, "/api/generate", `{}`)
	var resp api.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "Prompt is required", resp.Error)

	assert.Zero(t, f.upstream.calls.Load())
}

func TestGenerate_InvalidDimensions(t *testing.T) {
	f := setup(t, "rp-key")

	w := f.do(http.MethodPost, "/api/generate", `{"prompt":"a cat","width":10}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp api.ErrorResponse
	decode(t, w, &resp)
	assert.Contains(t, resp.Errors, "width")
	assert.Zero(t, f.upstream.calls.Load())
}

func TestGenerate_PlaceholderWithoutCredentials(t *testing.T) {
	f := setup(t, "")

	start := time.Now()
	w := f.do(http.MethodPost, "/api/generate", `{"prompt":"a cat"}`)

	assert.GreaterOrEqual(t, time.Since(start), f.config.Mock.Delay)
	assert.Equal(t, http.StatusOK, w.Code)

	var res api.GenerationResult
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, placeholderURL, res.URL)
	assert.True(t, res.Mock)
	assert.Zero(t, f.upstream.calls.Load())
}

func TestGenerate_Success(t *testing.T) {
	f := setup(t, "rp-key")
	f.upstream.runsync = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/ep-2/runsync", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"job","status":"COMPLETED","output":"https://cdn.test/out.png"}`))
	}

	w := f.do(http.MethodPost, "/api/generate", `{"prompt":"a cat","model_id":"pony-v6"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var res api.GenerationResult
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.False(t, res.Mock)
	assert.Equal(t, "https://cdn.test/out.png", res.URL)
	assert.Equal(t, "pony-v6", res.Model)
	assert.Equal(t, int32(1), f.upstream.calls.Load())
}

func TestGenerate_UnknownModel(t *testing.T) {
	f := setup(t, "rp-key")

	w := f.do(http.MethodPost, "/api/generate", `{"prompt":"a cat","model_id":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.upstream.calls.Load())
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	f := setup(t, "rp-key")
	f.upstream.runsync = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"worker exploded"}`))
	}

	w := f.do(http.MethodPost, "/api/generate", `{"prompt":"a cat"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp api.ErrorResponse
	decode(t, w, &resp)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "worker exploded")
}

func TestGenerate_NetworkFailure(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	f := setup(t, "rp-key", func(cfg *config.Config) {
		cfg.RunPod.BaseURL = deadURL + "/v2"
	})

	w := f.do(http.MethodPost, "/api/generate", `{"prompt":"a cat"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp api.ErrorResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Error)

	// the relay keeps serving after the failure
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code)
}

func TestBalance(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := setup(t, "")
		w := f.do(http.MethodGet, "/api/balance", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"balance":"N/A"}`, w.Body.String())
		assert.Zero(t, f.upstream.calls.Load())
	})

	t.Run("upstream failure is masked", func(t *testing.T) {
		f := setup(t, "rp-key")
		f.upstream.graphql = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}
		w := f.do(http.MethodGet, "/api/balance", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"balance":"ACTIVE"}`, w.Body.String())
	})

	t.Run("formatted and cached", func(t *testing.T) {
		f := setup(t, "rp-key")
		f.upstream.graphql = func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"myself":{"clientBalance":3.5}}}`))
		}
		for i := 0; i < 2; i++ {
			w := f.do(http.MethodGet, "/api/balance", "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"balance":"$3.50"}`, w.Body.String())
		}
		assert.Equal(t, int32(1), f.upstream.calls.Load())
	})
}

func TestModelTestResults(t *testing.T) {
	t.Run("absent file", func(t *testing.T) {
		f := setup(t, "")
		w := f.do(http.MethodGet, "/api/model-test-results", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"tested_at":null,"results":[]}`, w.Body.String())
	})

	t.Run("file contents", func(t *testing.T) {
		f := setup(t, "")
		doc := `{"tested_at":"2025-01-02T03:04:05Z","results":[{"model_id":"pony-v6","status":"working","custom":true}]}`
		require.NoError(t, os.WriteFile(f.config.Results.Path, []byte(doc), 0o644))

		w := f.do(http.MethodGet, "/api/model-test-results", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, doc, w.Body.String())
	})

	for _, body := range []string{`{"tested_at":`, `null`, `[1,2]`} {
		t.Run("unusable file "+body, func(t *testing.T) {
			f := setup(t, "")
			require.NoError(t, os.WriteFile(f.config.Results.Path, []byte(body), 0o644))

			w := f.do(http.MethodGet, "/api/model-test-results", "")
			assert.Equal(t, http.StatusOK, w.Code)

			var res api.ModelTestResults
			decode(t, w, &res)
			assert.Nil(t, res.TestedAt)
			assert.NotNil(t, res.Results)
			assert.Empty(t, res.Results)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestModelsAndStatus(t *testing.T) {
	f := setup(t, "", func(cfg *config.Config) {
		cfg.OpenRouter.APIKey = "sk-or-v1-0123456789abcdef"
	})

	w := f.do(http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list api.ModelList
	decode(t, w, &list)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "z-image-turbo", list.Data[0].ID)
	assert.True(t, list.Data[0].Default)
	assert.Equal(t, "high", list.Data[1].ContentRating)

	w = f.do(http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"runpod_configured":false,
		"openrouter_configured":true,
		"api_key_preview":"sk-or-v1-012345..."
	}`, w.Body.String())
}

func TestStaticAndRouting(t *testing.T) {
	f := setup(t, "")

	w := f.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>studio</h1>")

	w = f.do(http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = f.do(http.MethodOptions, "/api/generate", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = f.do(http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	f := setup(t, "", func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/balance", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodGet, "/api/balance", "").Code)
}

func TestGenerate_AcceptsLenientBase64Images(t *testing.T) {
	const pngRaw = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg"

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"bare unpadded", `{"image":"` + pngRaw + `"}`, "data:image/png;base64," + pngRaw},
		{"url-safe data uri", `"data:image/jpeg;base64,_9j_4AAQ-w"`, "data:image/jpeg;base64,_9j_4AAQ-w"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, "rp-key")
			f.upstream.runsync = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"COMPLETED","output":` + tt.output + `}`))
			}

			w := f.do(http.MethodPost, "/api/generate", `{"prompt":"a cat"}`)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var res api.GenerationResult
			decode(t, w, &res)
			assert.True(t, res.Success)
			assert.Equal(t, tt.want, res.URL)
		})
	}
}
