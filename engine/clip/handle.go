package clip

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// LoopMode controls what a handle does when its local time reaches either end of the clip.
type LoopMode int

const (
	// LoopOnce stops at the end. With clamping the handle holds the last pose, otherwise it disables itself.
	LoopOnce LoopMode = iota
	// LoopRepeat wraps local time back to the start.
	LoopRepeat
)

// SampleInterceptor can replace a channel sample before it is blended onto the target.
// It is called once per sample with the local time the sample was taken at.
type SampleInterceptor interface {
	InterceptPosition(t float64, sample mgl64.Vec3) mgl64.Vec3
	InterceptRotation(t float64, sample mgl64.Quat) mgl64.Quat
}

type handle struct {
	clip *model.AnimationClip

	time   float64
	speed  float64
	weight float64

	loop      LoopMode
	clamp     bool
	enabled   bool
	paused    bool
	scheduled bool

	fade       *gween.Tween
	fadeValue  float64
	fadeTarget float64

	interceptors map[string]SampleInterceptor
}

// Handle is one playing instance of a clip inside a Mixer.
// Several handles may play the same clip independently.
type Handle interface {
	// Clip returns the clip this handle plays.
	//
	// Returns:
	//   - *model.AnimationClip: the clip
	Clip() *model.AnimationClip

	// Duration returns the clip length in seconds.
	//
	// Returns:
	//   - float64: the duration, 0 for a nil clip
	Duration() float64

	// Play schedules the handle so the mixer advances and samples it.
	Play()

	// Stop unschedules the handle and resets it.
	Stop()

	// Reset rewinds to time 0, clears pause and fade state, and re-enables the handle.
	Reset()

	// Time returns the local playback time in seconds.
	//
	// Returns:
	//   - float64: the local time
	Time() float64

	// SetTime moves the local playback time.
	//
	// Parameters:
	//   - t: the new local time in seconds
	SetTime(t float64)

	// Speed returns the playback speed multiplier.
	//
	// Returns:
	//   - float64: the speed
	Speed() float64

	// SetSpeed sets the playback speed multiplier.
	//
	// Parameters:
	//   - speed: the multiplier applied to the mixer delta
	SetSpeed(speed float64)

	// Weight returns the base blend weight, before fades.
	//
	// Returns:
	//   - float64: the weight
	Weight() float64

	// SetWeight sets the base blend weight and cancels any running fade.
	//
	// Parameters:
	//   - weight: the new weight
	SetWeight(weight float64)

	// EffectiveWeight returns the weight the mixer blends with: base weight times fade,
	// or 0 when the handle is disabled or unscheduled.
	//
	// Returns:
	//   - float64: the effective weight
	EffectiveWeight() float64

	// FadeIn ramps the fade factor from 0 to 1 over duration seconds. A non-positive duration snaps to 1.
	//
	// Parameters:
	//   - duration: the fade length in seconds
	FadeIn(duration float64)

	// FadeOut ramps the fade factor from its current value to 0 over duration seconds,
	// then disables the handle. A non-positive duration disables immediately.
	//
	// Parameters:
	//   - duration: the fade length in seconds
	FadeOut(duration float64)

	// IsFading reports whether a fade ramp is in progress.
	//
	// Returns:
	//   - bool: true while fading
	IsFading() bool

	// SetLoop selects the loop mode and whether a LoopOnce handle holds its last pose.
	//
	// Parameters:
	//   - mode: the loop mode
	//   - clampWhenFinished: hold at the end instead of disabling
	SetLoop(mode LoopMode, clampWhenFinished bool)

	// IsRunning reports whether the handle is scheduled, enabled, not paused, and has a non-zero speed.
	//
	// Returns:
	//   - bool: true if time is advancing
	IsRunning() bool

	// IsScheduled reports whether the handle is registered for playback with its mixer.
	//
	// Returns:
	//   - bool: true if scheduled
	IsScheduled() bool

	// SetInterceptor routes samples of the channel targeting bone through i. A nil i removes the interceptor.
	//
	// Parameters:
	//   - bone: the channel target name
	//   - i: the interceptor, or nil
	SetInterceptor(bone string, i SampleInterceptor)
}

var _ Handle = &handle{}

func newHandle(clip *model.AnimationClip, options ...HandleBuilderOption) *handle {
	h := &handle{
		clip:         clip,
		speed:        1,
		weight:       1,
		enabled:      true,
		fadeValue:    1,
		fadeTarget:   1,
		interceptors: make(map[string]SampleInterceptor),
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

func (h *handle) Clip() *model.AnimationClip { return h.clip }

func (h *handle) Duration() float64 {
	if h.clip == nil {
		return 0
	}
	return h.clip.Duration
}

func (h *handle) Play() { h.scheduled = true }

func (h *handle) Stop() {
	h.scheduled = false
	h.Reset()
}

func (h *handle) Reset() {
	h.time = 0
	h.paused = false
	h.enabled = true
	h.stopFading()
}

func (h *handle) Time() float64 { return h.time }

func (h *handle) SetTime(t float64) { h.time = t }

func (h *handle) Speed() float64 { return h.speed }

func (h *handle) SetSpeed(speed float64) { h.speed = speed }

func (h *handle) Weight() float64 { return h.weight }

func (h *handle) SetWeight(weight float64) {
	h.weight = weight
	h.stopFading()
}

func (h *handle) EffectiveWeight() float64 {
	if !h.scheduled || !h.enabled {
		return 0
	}
	return h.weight * h.fadeValue
}

func (h *handle) FadeIn(duration float64) {
	if duration <= 0 {
		h.stopFading()
		return
	}
	h.fadeValue = 0
	h.fadeTarget = 1
	h.fade = gween.New(0, 1, float32(duration), ease.Linear)
}

func (h *handle) FadeOut(duration float64) {
	from := h.fadeValue
	if duration <= 0 || from <= 0 {
		h.fade = nil
		h.fadeValue = 0
		h.fadeTarget = 0
		h.enabled = false
		return
	}
	h.fadeTarget = 0
	h.fade = gween.New(float32(from), 0, float32(duration), ease.Linear)
}

func (h *handle) IsFading() bool { return h.fade != nil }

func (h *handle) SetLoop(mode LoopMode, clampWhenFinished bool) {
	h.loop = mode
	h.clamp = clampWhenFinished
}

func (h *handle) IsRunning() bool {
	return h.scheduled && h.enabled && !h.paused && h.speed != 0
}

func (h *handle) IsScheduled() bool { return h.scheduled }

func (h *handle) SetInterceptor(bone string, i SampleInterceptor) {
	if i == nil {
		delete(h.interceptors, bone)
		return
	}
	h.interceptors[bone] = i
}

func (h *handle) stopFading() {
	h.fade = nil
	h.fadeValue = 1
	h.fadeTarget = 1
}

// step advances the fade ramp and local time by dt.
func (h *handle) step(dt float64) {
	if h.fade != nil {
		v, done := h.fade.Update(float32(dt))
		h.fadeValue = float64(v)
		if done {
			h.fade = nil
			h.fadeValue = h.fadeTarget
			if h.fadeTarget <= 0 {
				h.enabled = false
				return
			}
		}
	}

	if h.paused {
		return
	}

	h.time += dt * h.speed
	d := h.Duration()
	switch h.loop {
	case LoopRepeat:
		if d <= 0 {
			h.time = 0
			return
		}
		h.time = math.Mod(h.time, d)
		if h.time < 0 {
			h.time += d
		}
	default:
		if h.speed >= 0 && h.time >= d {
			h.time = d
			h.finish()
		} else if h.speed < 0 && h.time <= 0 {
			h.time = 0
			h.finish()
		}
	}
}

func (h *handle) finish() {
	if h.clamp {
		h.paused = true
		return
	}
	h.enabled = false
}
