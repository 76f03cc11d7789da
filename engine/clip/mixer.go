package clip

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// Target resolves bone names to the local transforms a mixer writes.
type Target interface {
	// Bone returns the named bone's local transform, or nil if the target has no such bone.
	Bone(name string) *common.Transform
}

type binding struct {
	bone *common.Transform
	rest common.Transform

	pos    mgl64.Vec3
	posW   float64
	rot    mgl64.Quat
	rotW   float64
	scale  mgl64.Vec3
	scaleW float64
}

type mixer struct {
	target   Target
	handles  []*handle
	bindings map[string]*binding
}

// Mixer advances a set of clip handles and blends their samples onto a Target.
// A Mixer is not safe for concurrent use; each controller owns one.
type Mixer interface {
	// Target returns the target the mixer writes to.
	//
	// Returns:
	//   - Target: the bound target, may be nil
	Target() Target

	// NewHandle creates an unscheduled handle for clip. Every call returns a distinct instance.
	//
	// Parameters:
	//   - clip: the clip to play
	//   - options: functional options for the handle
	//
	// Returns:
	//   - Handle: the new handle
	NewHandle(clip *model.AnimationClip, options ...HandleBuilderOption) Handle

	// Update advances every scheduled handle by deltaTime and writes the blended pose to the target.
	// Bones whose total weight is below 1 are mixed toward the pose they had when first bound.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Update(deltaTime float64)

	// ScheduledCount returns how many handles are currently scheduled.
	//
	// Returns:
	//   - int: the number of scheduled handles
	ScheduledCount() int

	// StopAll stops every handle.
	StopAll()

	// Release stops and forgets every handle. The mixer can still create new handles afterwards.
	Release()
}

var _ Mixer = &mixer{}

// NewMixer creates a Mixer writing to target.
//
// Parameters:
//   - target: the bone source written by Update, may be nil for a sample-only mixer
//
// Returns:
//   - Mixer: the new mixer
func NewMixer(target Target) Mixer {
	return &mixer{
		target:   target,
		bindings: make(map[string]*binding),
	}
}

func (m *mixer) Target() Target { return m.target }

func (m *mixer) NewHandle(clip *model.AnimationClip, options ...HandleBuilderOption) Handle {
	h := newHandle(clip, options...)
	m.handles = append(m.handles, h)
	return h
}

func (m *mixer) ScheduledCount() int {
	n := 0
	for _, h := range m.handles {
		if h.scheduled {
			n++
		}
	}
	return n
}

func (m *mixer) StopAll() {
	for _, h := range m.handles {
		h.Stop()
	}
}

func (m *mixer) Release() {
	m.StopAll()
	m.handles = nil
	m.bindings = make(map[string]*binding)
}

func (m *mixer) Update(deltaTime float64) {
	for _, b := range m.bindings {
		if b != nil {
			b.clear()
		}
	}

	for _, h := range m.handles {
		if !h.scheduled || !h.enabled {
			continue
		}
		h.step(deltaTime)
		if !h.enabled {
			continue
		}
		m.sample(h)
	}

	for _, b := range m.bindings {
		if b != nil {
			b.apply()
		}
	}
}

// sample evaluates every channel of h at its local time, routes the samples through
// the handle's interceptors, and accumulates them onto the bindings.
func (m *mixer) sample(h *handle) {
	if h.clip == nil {
		return
	}
	w := h.EffectiveWeight()
	t := h.time
	for i := range h.clip.Channels {
		ch := &h.clip.Channels[i]
		b := m.bind(ch.Target)
		ic := h.interceptors[ch.Target]

		if ch.HasPosition() {
			v := ch.SamplePosition(t)
			if ic != nil {
				v = ic.InterceptPosition(t, v)
			}
			if b != nil && w > 0 {
				b.pos = b.pos.Add(v.Mul(w))
				b.posW += w
			}
		}
		if ch.HasRotation() {
			q := ch.SampleRotation(t)
			if ic != nil {
				q = ic.InterceptRotation(t, q)
			}
			if b != nil && w > 0 {
				if b.rotW == 0 {
					b.rot = q
				} else {
					b.rot = mgl64.QuatSlerp(b.rot, q, w/(b.rotW+w))
				}
				b.rotW += w
			}
		}
		if ch.HasScale() && b != nil && w > 0 {
			b.scale = b.scale.Add(ch.SampleScale(t).Mul(w))
			b.scaleW += w
		}
	}
}

func (m *mixer) bind(name string) *binding {
	if b, ok := m.bindings[name]; ok {
		return b
	}
	var b *binding
	if m.target != nil {
		if bone := m.target.Bone(name); bone != nil {
			b = &binding{bone: bone, rest: *bone}
		}
	}
	m.bindings[name] = b
	return b
}

func (b *binding) clear() {
	b.pos, b.posW = mgl64.Vec3{}, 0
	b.rot, b.rotW = mgl64.QuatIdent(), 0
	b.scale, b.scaleW = mgl64.Vec3{}, 0
}

func (b *binding) apply() {
	if b.posW > 0 {
		b.bone.Position = blendVec(b.pos, b.posW, b.rest.Position)
	}
	if b.rotW > 0 {
		if b.rotW < 1 {
			b.bone.Rotation = mgl64.QuatSlerp(b.rest.Rotation, b.rot, b.rotW)
		} else {
			b.bone.Rotation = b.rot.Normalize()
		}
	}
	if b.scaleW > 0 {
		b.bone.Scale = blendVec(b.scale, b.scaleW, b.rest.Scale)
	}
}

// blendVec resolves a weighted vector sum: a deficit below 1 is filled from rest, an excess is normalized away.
func blendVec(sum mgl64.Vec3, total float64, rest mgl64.Vec3) mgl64.Vec3 {
	if total < 1 {
		return sum.Add(rest.Mul(1 - total))
	}
	return sum.Mul(1 / total)
}
