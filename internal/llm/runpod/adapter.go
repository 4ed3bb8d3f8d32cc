package runpod

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
	llm.Register(registry.RunPod, NewAdapter)
}

const balanceQuery = "query { myself { clientBalance } }"

type Adapter struct {
	config config.RunPodConfig
	client httpclient.HTTPClient
}

func NewAdapter(cfg *config.Config, client httpclient.HTTPClient) (llm.Provider, error) {
	rp := cfg.RunPod
	if rp.BaseURL == "" {
		rp.BaseURL = "https://api.runpod.ai/v2"
	}
	if rp.GraphQLURL == "" {
		rp.GraphQLURL = "https://api.runpod.io/graphql"
	}
	if client == nil {
		// zero Timeout leaves the transport defaults in charge
		client = &http.Client{Timeout: rp.Timeout}
	}
	return &Adapter{config: rp, client: client}, nil
}

func (a *Adapter) Type() registry.ProviderType { return registry.RunPod }

func (a *Adapter) Configured() bool { return a.config.APIKey != "" }

type runSyncRequest struct {
	Input runSyncInput `json:"input"`
}

type runSyncInput struct {
	Prompt            string  `json:"prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	SafetyChecker     bool    `json:"safety_checker"`
}

type runSyncResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"` // COMPLETED, FAILED, IN_QUEUE, IN_PROGRESS, CANCELLED, TIMED_OUT
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error,omitempty"`
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	}
}

// Generate runs one synchronous job on the model's serverless endpoint.
func (a *Adapter) Generate(ctx context.Context, req *llm.Request) (*llm.Result, error) {
	if req.Model.EndpointID == "" {
		return nil, fmt.Errorf("model %s has no runpod endpoint", req.Model.ID)
	}

	body := runSyncRequest{
		Input: runSyncInput{
			Prompt:            req.Prompt,
			NumInferenceSteps: req.Params.Steps,
			GuidanceScale:     req.Params.GuidanceScale,
			Width:             req.Params.Width,
			Height:            req.Params.Height,
			SafetyChecker:     req.Params.SafetyChecker,
		},
	}

	url := fmt.Sprintf("%s/%s/runsync", strings.TrimRight(a.config.BaseURL, "/"), req.Model.EndpointID)

	var resp runSyncResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, url, a.headers(), body, &resp); err != nil {
		return nil, handleUpstreamError(err)
	}

	return normalize(&resp)
}

func handleUpstreamError(err error) error {
	var upstreamErr *httpclient.UpstreamError
	if errors.As(err, &upstreamErr) {
		return fmt.Errorf("runpod returned status %d: %s", upstreamErr.StatusCode, upstreamErr.Message())
	}
	return err
}

// normalize maps a runsync response onto a URL or an opaque payload.
func normalize(resp *runSyncResponse) (*llm.Result, error) {
	switch resp.Status {
	case "FAILED", "CANCELLED", "TIMED_OUT":
		if resp.Error != "" {
			return nil, fmt.Errorf("runpod job %s: %s", strings.ToLower(resp.Status), resp.Error)
		}
		return nil, fmt.Errorf("runpod job %s", strings.ToLower(resp.Status))
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("runpod job error: %s", resp.Error)
	}

	out := resp.Output
	if len(out) == 0 || string(out) == "null" {
		if resp.Status == "IN_QUEUE" || resp.Status == "IN_PROGRESS" {
			return nil, fmt.Errorf("runpod job %s did not finish synchronously (status %s)", resp.ID, resp.Status)
		}
		return nil, errors.New("runpod response has no output")
	}

	result := &llm.Result{UpstreamID: resp.ID}

	var asString string
	if err := sonic.Unmarshal(out, &asString); err == nil {
		if asString == "" {
			return nil, errors.New("runpod response has empty output")
		}
		result.URL = asString
		return result, nil
	}

	var asList []interface{}
	if err := sonic.Unmarshal(out, &asList); err == nil {
		if s := firstString(asList); s != "" {
			result.URL = s
			return result, nil
		}
		result.Payload = out
		return result, nil
	}

	var asObject map[string]interface{}
	if err := sonic.Unmarshal(out, &asObject); err == nil {
		if msg, ok := asObject["error"].(string); ok && msg != "" {
			return nil, fmt.Errorf("runpod worker error: %s", msg)
		}
		for _, key := range []string{"image_url", "url", "image"} {
			if s, ok := asObject[key].(string); ok && s != "" {
				result.URL = s
				return result, nil
			}
		}
		if images, ok := asObject["images"].([]interface{}); ok {
			if s := firstString(images); s != "" {
				result.URL = s
				return result, nil
			}
		}
	}

	result.Payload = out
	return result, nil
}

func firstString(items []interface{}) string {
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type balanceResponse struct {
	Data struct {
		Myself *struct {
			ClientBalance *float64 `json:"clientBalance"`
		} `json:"myself"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Balance queries the account's remaining credit through the GraphQL API.
func (a *Adapter) Balance(ctx context.Context) (float64, error) {
	var resp balanceResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, a.config.GraphQLURL, a.headers(), graphQLRequest{Query: balanceQuery}, &resp); err != nil {
		return 0, handleUpstreamError(err)
	}

	if len(resp.Errors) > 0 {
		return 0, fmt.Errorf("runpod graphql error: %s", resp.Errors[0].Message)
	}
	if resp.Data.Myself == nil || resp.Data.Myself.ClientBalance == nil {
		return 0, errors.New("runpod graphql response has no balance")
	}

	return *resp.Data.Myself.ClientBalance, nil
}

type healthResponse struct {
	Workers api.WorkerCounts `json:"workers"`
}

// Health reports the worker counts of a serverless endpoint.
func (a *Adapter) Health(ctx context.Context, endpointID string) (*api.WorkerCounts, error) {
	if endpointID == "" {
		return nil, errors.New("empty endpoint id")
	}

	url := fmt.Sprintf("%s/%s/health", strings.TrimRight(a.config.BaseURL, "/"), endpointID)

	var resp healthResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodGet, url, a.headers(), nil, &resp); err != nil {
		return nil, handleUpstreamError(err)
	}

	return &resp.Workers, nil
}
