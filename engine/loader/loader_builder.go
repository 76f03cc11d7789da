package loader

import (
	"log"

	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithModel is an option builder that pre-populates the model cache with a model.
// Unresolved models are resolved first; a model that fails to resolve is skipped.
//
// Parameters:
//   - key: the cache key for the model
//   - m: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, m *state_machine.ControllerModel) LoaderBuilderOption {
	return func(l *loader) {
		if m == nil {
			return
		}
		if !m.Resolved() {
			if err := m.Resolve(); err != nil {
				log.Printf("[Loader] skipping model %q: %v", key, err)
				return
			}
		}
		l.modelCache[key] = m
	}
}
