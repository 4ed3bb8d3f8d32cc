package probe

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nulzo/studio-relay/internal/llm"
	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/pkg/api"
	"go.uber.org/zap"
)

const (
	StatusWorking = "working"
	StatusPartial = "partial"
	StatusBroken  = "broken"
	StatusUnknown = "unknown"
)

const maxIssueLen = 100

// Prober checks the health of every registry endpoint it can reach.
type Prober struct {
	registry *registry.Registry
	checker  llm.HealthChecker
	logger   *zap.Logger
	now      func() time.Time
}

func New(reg *registry.Registry, checker llm.HealthChecker, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{registry: reg, checker: checker, logger: logger, now: time.Now}
}

// Run probes each model in table order. ids, when non-empty, restricts the run.
// A failing endpoint is recorded, never returned as an error.
func (p *Prober) Run(ctx context.Context, ids ...string) ([]api.ModelTestResult, error) {
	entries := p.registry.List()
	if len(ids) > 0 {
		entries = entries[:0:0]
		for _, id := range ids {
			e, err := p.registry.Lookup(id)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}

	runID := uuid.NewString()
	out := make([]api.ModelTestResult, 0, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := p.probe(ctx, e)
		res.RunID = runID
		p.logger.Info("probed model",
			zap.String("model", e.ID),
			zap.String("status", res.Status),
			zap.Int64("latency_ms", res.LatencyMS),
		)
		out = append(out, res)
	}

	return out, nil
}

func (p *Prober) probe(ctx context.Context, e registry.ModelEntry) api.ModelTestResult {
	res := api.ModelTestResult{
		ModelID:    e.ID,
		ModelName:  e.DisplayName,
		Provider:   string(e.Provider),
		EndpointID: e.EndpointID,
		Issues:     []string{},
	}

	switch {
	case e.Provider != registry.RunPod:
		res.Status = StatusUnknown
		res.Recommendation = "Health probing is only available for RunPod endpoints."
		return res
	case e.EndpointID == "":
		res.Status = StatusBroken
		res.Issues = append(res.Issues, "no endpoint id configured")
		res.Recommendation = "Set an endpoint id for this model."
		return res
	}

	start := p.now()
	workers, err := p.checker.Health(ctx, e.EndpointID)
	res.LatencyMS = p.now().Sub(start).Milliseconds()

	if err != nil {
		res.Status = StatusBroken
		res.Issues = append(res.Issues, truncate(err.Error(), maxIssueLen))
		res.Recommendation = "Check the endpoint id and that the endpoint is still deployed."
		return res
	}

	res.Workers = workers
	res.Status, res.Recommendation, res.Issues = Classify(workers)
	return res
}

// Classify turns endpoint worker counts into a status, a recommendation and a list of issues.
func Classify(w *api.WorkerCounts) (string, string, []string) {
	issues := []string{}
	if w.Unhealthy > 0 {
		issues = append(issues, fmt.Sprintf("%d unhealthy workers", w.Unhealthy))
	}
	if w.Throttled > 0 {
		issues = append(issues, fmt.Sprintf("%d throttled workers", w.Throttled))
	}

	serving := w.Idle + w.Ready + w.Running

	switch {
	case serving > 0 && len(issues) == 0:
		return StatusWorking, fmt.Sprintf("%d workers available.", serving), issues
	case serving > 0:
		return StatusPartial, "Endpoint is serving but some workers are degraded.", issues
	case w.Initializing > 0 || w.Throttled > 0:
		return StatusPartial, "Workers are starting; expect a cold start on the first request.", issues
	case w.Unhealthy > 0:
		return StatusBroken, "All workers are unhealthy; redeploy the endpoint.", issues
	default:
		return StatusUnknown, "No active workers; the endpoint scales up on the first request.", issues
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
