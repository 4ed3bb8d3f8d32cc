package results

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nulzo/studio-relay/pkg/api"
)

// ErrNotFound means no results file has been written yet.
var ErrNotFound = errors.New("model test results not found")

// ErrNotObject means the file holds valid JSON that is not an object.
var ErrNotObject = errors.New("model test results are not a JSON object")

// Store reads and writes the model test results document on disk.
type Store struct {
	path string
	now  func() time.Time
}

func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

func (s *Store) Path() string { return s.path }

// Load returns the parsed file contents as a generic JSON object so unknown fields survive.
func (s *Store) Load(ctx context.Context) (map[string]interface{}, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc map[string]interface{}
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, ErrNotObject)
	}
	return doc, nil
}

// Save stamps the results with the current UTC time and replaces the file atomically.
func (s *Store) Save(ctx context.Context, results []api.ModelTestResult) error {
	if results == nil {
		results = []api.ModelTestResult{}
	}
	testedAt := s.now().UTC().Format(time.RFC3339)
	doc := api.ModelTestResults{TestedAt: &testedAt, Results: results}

	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".model_test_results-*.json")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
