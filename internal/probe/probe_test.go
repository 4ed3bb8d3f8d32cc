package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	workers map[string]*api.WorkerCounts
	calls   []string
}

func (s *stubChecker) Health(ctx context.Context, endpointID string) (*api.WorkerCounts, error) {
	s.calls = append(s.calls, endpointID)
	w, ok := s.workers[endpointID]
	if !ok {
		return nil, errors.New("runpod returned status 404: endpoint not found")
	}
	return w, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		workers api.WorkerCounts
		want    string
		issues  int
	}{
		{"ready", api.WorkerCounts{Ready: 2}, StatusWorking, 0},
		{"serving with unhealthy", api.WorkerCounts{Running: 1, Unhealthy: 1}, StatusPartial, 1},
		{"initializing", api.WorkerCounts{Initializing: 1}, StatusPartial, 0},
		{"throttled only", api.WorkerCounts{Throttled: 3}, StatusPartial, 1},
		{"all unhealthy", api.WorkerCounts{Unhealthy: 2}, StatusBroken, 1},
		{"scaled to zero", api.WorkerCounts{}, StatusUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, rec, issues := Classify(&tt.workers)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, rec)
			assert.Len(t, issues, tt.issues)
		})
	}
}

func TestRun(t *testing.T) {
	reg, err := registry.New([]registry.ModelEntry{
		{ID: "ok", Provider: registry.RunPod, EndpointID: "ep-ok"},
		{ID: "gone", Provider: registry.RunPod, EndpointID: "ep-gone"},
		{ID: "blank", Provider: registry.RunPod},
		{ID: "flux", Provider: registry.OpenRouter, EndpointID: "bfl/flux"},
	}, "")
	require.NoError(t, err)

	checker := &stubChecker{workers: map[string]*api.WorkerCounts{"ep-ok": {Idle: 1}}}
	results, err := New(reg, checker, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, StatusWorking, results[0].Status)
	assert.Equal(t, StatusBroken, results[1].Status)
	assert.Contains(t, results[1].Issues[0], "endpoint not found")
	assert.Equal(t, StatusBroken, results[2].Status)
	assert.Equal(t, StatusUnknown, results[3].Status)

	assert.NotEmpty(t, results[0].RunID)
	for _, r := range results {
		assert.Equal(t, results[0].RunID, r.RunID)
	}
	assert.Equal(t, []string{"ep-ok", "ep-gone"}, checker.calls)
}

func TestRun_Filter(t *testing.T) {
	reg, err := registry.New([]registry.ModelEntry{
		{ID: "a", Provider: registry.RunPod, EndpointID: "ep-a"},
		{ID: "b", Provider: registry.RunPod, EndpointID: "ep-b"},
	}, "")
	require.NoError(t, err)

	checker := &stubChecker{workers: map[string]*api.WorkerCounts{"ep-b": {Ready: 1}}}
	p := New(reg, checker, nil)

	results, err := p.Run(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ModelID)

	_, err = p.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, registry.ErrModelNotFound)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))

	// "é" is two bytes; cutting at 2 would split it
	assert.Equal(t, "a", truncate("aé", 2))
	assert.Equal(t, "aé", truncate("aéb", 3))

	long := strings.Repeat("端点", 40)
	got := truncate(long, maxIssueLen)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxIssueLen)
	assert.True(t, strings.HasPrefix(long, got))
}

func TestRun_IssueIsValidUTF8(t *testing.T) {
	reg, err := registry.New([]registry.ModelEntry{
		{ID: "x", Provider: registry.RunPod, EndpointID: "ep-x"},
	}, "")
	require.NoError(t, err)

	msg := strings.Repeat("é", 80)
	checker := errChecker{err: errors.New(msg)}
	results, err := New(reg, checker, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, results[0].Issues, 1)
	assert.True(t, utf8.ValidString(results[0].Issues[0]))
}

type errChecker struct{ err error }

func (e errChecker) Health(ctx context.Context, endpointID string) (*api.WorkerCounts, error) {
	return nil, e.err
}
