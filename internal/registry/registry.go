package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nulzo/studio-relay/internal/config"
)

var (
	ErrModelNotFound   = errors.New("model not found")
	ErrUnknownProvider = errors.New("unknown provider")
)

type ProviderType string

const (
	RunPod     ProviderType = "runpod"
	OpenRouter ProviderType = "openrouter"
)

// ParseProvider maps a configured provider name onto a known ProviderType.
func ParseProvider(s string) (ProviderType, error) {
	switch p := ProviderType(strings.ToLower(strings.TrimSpace(s))); p {
	case RunPod, OpenRouter:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

type ContentRating string

const (
	RatingLow      ContentRating = "low"
	RatingMedium   ContentRating = "medium"
	RatingHigh     ContentRating = "high"
	RatingVeryHigh ContentRating = "very_high"
)

// ParseContentRating accepts the rating names used in the model table. Empty means medium.
func ParseContentRating(s string) (ContentRating, error) {
	switch r := ContentRating(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RatingMedium, nil
	case RatingLow, RatingMedium, RatingHigh, RatingVeryHigh:
		return r, nil
	default:
		return "", fmt.Errorf("unknown content rating %q", s)
	}
}

// ModelEntry routes a public model id to a hosted endpoint.
type ModelEntry struct {
	ID            string
	Provider      ProviderType
	EndpointID    string
	DisplayName   string
	ContentRating ContentRating
}

// Registry is the immutable model table. It is safe for concurrent reads.
type Registry struct {
	entries   map[string]ModelEntry
	order     []string
	defaultID string
}

// New validates entries and builds a Registry. An empty defaultID selects the first entry.
func New(entries []ModelEntry, defaultID string) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("model registry is empty")
	}

	r := &Registry{
		entries: make(map[string]ModelEntry, len(entries)),
		order:   make([]string, 0, len(entries)),
	}

	for _, e := range entries {
		if e.ID == "" {
			return nil, errors.New("model entry with empty id")
		}
		if _, err := ParseProvider(string(e.Provider)); err != nil {
			return nil, fmt.Errorf("model %s: %w", e.ID, err)
		}
		if _, dup := r.entries[e.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %s", e.ID)
		}
		if e.DisplayName == "" {
			e.DisplayName = e.ID
		}
		if e.ContentRating == "" {
			e.ContentRating = RatingMedium
		}
		r.entries[e.ID] = e
		r.order = append(r.order, e.ID)
	}

	if defaultID == "" {
		defaultID = r.order[0]
	}
	if _, ok := r.entries[defaultID]; !ok {
		return nil, fmt.Errorf("default model %s: %w", defaultID, ErrModelNotFound)
	}
	r.defaultID = defaultID

	return r, nil
}

// FromConfig builds the registry from the configured model table, falling back to the built-in one.
func FromConfig(cfg *config.Config) (*Registry, error) {
	if len(cfg.Models) == 0 {
		return New(Builtin(cfg), cfg.DefaultModel)
	}

	entries := make([]ModelEntry, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		provider, err := ParseProvider(m.Provider)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.ID, err)
		}
		rating, err := ParseContentRating(m.ContentRating)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.ID, err)
		}
		entries = append(entries, ModelEntry{
			ID:            m.ID,
			Provider:      provider,
			EndpointID:    m.EndpointID,
			DisplayName:   m.Name,
			ContentRating: rating,
		})
	}

	return New(entries, cfg.DefaultModel)
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id string) (ModelEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return ModelEntry{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	return e, nil
}

// Resolve is Lookup with the empty id meaning the default model.
func (r *Registry) Resolve(id string) (ModelEntry, error) {
	if id == "" {
		return r.Default(), nil
	}
	return r.Lookup(id)
}

func (r *Registry) Default() ModelEntry {
	return r.entries[r.defaultID]
}

// List returns entries in table order.
func (r *Registry) List() []ModelEntry {
	out := make([]ModelEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Providers returns the distinct providers referenced by the table.
func (r *Registry) Providers() []ProviderType {
	seen := make(map[ProviderType]bool)
	var out []ProviderType
	for _, id := range r.order {
		p := r.entries[id].Provider
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}
