package clip

// HandleBuilderOption is a functional option for configuring a Handle during construction.
type HandleBuilderOption func(*handle)

// WithLoop sets the loop mode of the Handle.
//
// Parameters:
//   - mode: LoopOnce or LoopRepeat
//   - clampWhenFinished: for LoopOnce, hold the final pose instead of disabling
//
// Returns:
//   - HandleBuilderOption: functional option to set the loop mode
func WithLoop(mode LoopMode, clampWhenFinished bool) HandleBuilderOption {
	return func(h *handle) {
		h.loop = mode
		h.clamp = clampWhenFinished
	}
}

// WithSpeed sets the initial playback speed of the Handle.
//
// Parameters:
//   - speed: the speed multiplier (default 1)
//
// Returns:
//   - HandleBuilderOption: functional option to set the speed
func WithSpeed(speed float64) HandleBuilderOption {
	return func(h *handle) {
		h.speed = speed
	}
}

// WithWeight sets the initial base weight of the Handle.
//
// Parameters:
//   - weight: the base blend weight (default 1)
//
// Returns:
//   - HandleBuilderOption: functional option to set the weight
func WithWeight(weight float64) HandleBuilderOption {
	return func(h *handle) {
		h.weight = weight
	}
}
