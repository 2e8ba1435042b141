package scenario

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

// Scenario is one named sequence of browser steps.
type Scenario struct {
	Name string
	Tags []string
	Run  func(ctx context.Context, s *Scope) error
}

// Feature groups scenarios around a shared case.
type Feature struct {
	Name string
	// Serial features run their scenarios in order in one worker because
	// each scenario builds on the case state the previous one left.
	Serial bool
	// Setup runs once per run before the feature's first scenario. Its error
	// fails every scenario of the feature.
	Setup     func(ctx context.Context, s *Scope) error
	Scenarios []Scenario
}

// Registry holds the known features in registration order.
type Registry struct {
	mu       sync.RWMutex
	features []Feature
}

// NewRegistry returns a registry holding features.
func NewRegistry(features ...Feature) (*Registry, error) {
	r := &Registry{}
	for _, f := range features {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds f. Feature names and scenario names within a feature must be
// unique.
func (r *Registry) Register(f Feature) error {
	if strings.TrimSpace(f.Name) == "" {
		return failure.Validation("feature name is empty")
	}
	seen := make(map[string]bool, len(f.Scenarios))
	for _, sc := range f.Scenarios {
		if strings.TrimSpace(sc.Name) == "" || sc.Run == nil {
			return failure.Validation(fmt.Sprintf("feature %q has an unnamed or empty scenario", f.Name))
		}
		if seen[sc.Name] {
			return failure.Validation(fmt.Sprintf("feature %q has duplicate scenario %q", f.Name, sc.Name))
		}
		seen[sc.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.features {
		if existing.Name == f.Name {
			return failure.Validation(fmt.Sprintf("feature %q already registered", f.Name))
		}
	}
	r.features = append(r.features, f)
	return nil
}

// Features returns the registered features.
func (r *Registry) Features() []Feature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Feature(nil), r.features...)
}

// Filter selects scenarios by feature name and tag. Empty fields match
// everything.
type Filter struct {
	Features []string `json:"features,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func (f Filter) matchFeature(name string) bool {
	return len(f.Features) == 0 || contains(f.Features, name)
}

func (f Filter) matchScenario(sc Scenario) bool {
	if len(f.Tags) == 0 {
		return true
	}
	for _, tag := range sc.Tags {
		if contains(f.Tags, tag) {
			return true
		}
	}
	return false
}

// Select returns the features and scenarios matching f. Features left
// without scenarios are dropped.
func (r *Registry) Select(f Filter) ([]Feature, error) {
	var out []Feature
	known := make(map[string]bool)
	for _, feat := range r.Features() {
		known[feat.Name] = true
		if !f.matchFeature(feat.Name) {
			continue
		}
		selected := feat
		selected.Scenarios = nil
		for _, sc := range feat.Scenarios {
			if f.matchScenario(sc) {
				selected.Scenarios = append(selected.Scenarios, sc)
			}
		}
		if len(selected.Scenarios) > 0 {
			out = append(out, selected)
		}
	}
	for _, name := range f.Features {
		if !known[name] {
			return nil, failure.Validation(fmt.Sprintf("unknown feature %q", name))
		}
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
