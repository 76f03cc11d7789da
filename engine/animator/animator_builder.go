package animator

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/behaviour"
)

// AnimatorBuilderOption is a functional option for configuring an AnimatorController.
// Use the With* functions to create options.
type AnimatorBuilderOption func(*animatorController)

// WithSpeed sets the initial playback speed multiplier. Defaults to 1.
//
// Parameters:
//   - speed: the speed multiplier
//
// Returns:
//   - AnimatorBuilderOption: option function to apply
func WithSpeed(speed float64) AnimatorBuilderOption {
	return func(a *animatorController) {
		a.speed = speed
	}
}

// WithRootMotion enables root motion extraction from the first tick.
//
// Parameters:
//   - enabled: true to move the target root by the root bone's motion
//
// Returns:
//   - AnimatorBuilderOption: option function to apply
func WithRootMotion(enabled bool) AnimatorBuilderOption {
	return func(a *animatorController) {
		a.rootMotion = enabled
	}
}

// WithRootBone names the bone root motion is extracted from. Defaults to DefaultRootBone.
// An empty name keeps the default.
//
// Parameters:
//   - name: the bone name as used by clip channels
//
// Returns:
//   - AnimatorBuilderOption: option function to apply
func WithRootBone(name string) AnimatorBuilderOption {
	return func(a *animatorController) {
		if name != "" {
			a.rootBone = name
		}
	}
}

// WithBehaviourRegistry sets the registry state behaviours are instantiated from.
// Defaults to behaviour.DefaultRegistry().
//
// Parameters:
//   - r: the registry, shared safely between controllers
//
// Returns:
//   - AnimatorBuilderOption: option function to apply
func WithBehaviourRegistry(r behaviour.Registry) AnimatorBuilderOption {
	return func(a *animatorController) {
		a.registry = r
	}
}
