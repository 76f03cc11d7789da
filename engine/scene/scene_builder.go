package scene

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/game_object"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is ticked by the engine.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs. Their first tick runs on the scene's first Update.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.add(obj)
		}
	}
}

// WithUpdateWorkers sets the number of worker goroutines used to update objects in parallel.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of update workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithUpdateWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.updateWorkers = n
	}
}

// WithTimeScale sets the initial time scale. Defaults to 1.
//
// Parameters:
//   - scale: the multiplier applied to every Update's delta time
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTimeScale(scale float64) SceneBuilderOption {
	return func(s *scene) {
		s.timeScale = max(scale, 0)
	}
}
