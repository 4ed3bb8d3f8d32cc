package api

// ModelTestResults is the document stored in model_test_results.json.
// TestedAt is nil when no run has been recorded.
type ModelTestResults struct {
	TestedAt *string           `json:"tested_at"`
	Results  []ModelTestResult `json:"results"`
	Error    string            `json:"error,omitempty"`
}

type ModelTestResult struct {
	RunID          string        `json:"run_id,omitempty"`
	ModelID        string        `json:"model_id"`
	ModelName      string        `json:"model_name"`
	Provider       string        `json:"provider"`
	EndpointID     string        `json:"endpoint_id"`
	Status         string        `json:"status"` // working, partial, broken, unknown
	Workers        *WorkerCounts `json:"workers,omitempty"`
	LatencyMS      int64         `json:"latency_ms"`
	Issues         []string      `json:"issues"`
	Recommendation string        `json:"recommendation"`
}

// WorkerCounts mirrors the worker section of a RunPod endpoint health report.
type WorkerCounts struct {
	Idle         int `json:"idle"`
	Initializing int `json:"initializing"`
	Ready        int `json:"ready"`
	Running      int `json:"running"`
	Throttled    int `json:"throttled"`
	Unhealthy    int `json:"unhealthy"`
}

// EmptyModelTestResults is the shape served when no results file exists.
func EmptyModelTestResults() ModelTestResults {
	return ModelTestResults{TestedAt: nil, Results: []ModelTestResult{}}
}
