package root_motion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// Accumulator combines the deltas of every extractor of one controller and applies them to the root once per tick.
type Accumulator struct {
	extractors []*Extractor
}

// NewAccumulator creates an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add registers an extractor. Adding the same extractor twice has no effect.
func (a *Accumulator) Add(e *Extractor) {
	if e == nil || common.Contains(a.extractors, e) {
		return
	}
	a.extractors = append(a.extractors, e)
}

// Remove unregisters an extractor.
func (a *Accumulator) Remove(e *Extractor) {
	for i, x := range a.extractors {
		if x == e {
			a.extractors = append(a.extractors[:i], a.extractors[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered extractors.
func (a *Accumulator) Len() int { return len(a.extractors) }

// BeginTick discards any pending deltas before the mixer is advanced.
func (a *Accumulator) BeginTick() {
	for _, e := range a.extractors {
		e.Clear()
	}
}

// Apply sums the pending translations, composes the weighted pending rotations,
// writes both onto root, and hands the new root orientation to every extractor.
//
// Parameters:
//   - root: the world transform receiving the motion
//
// Returns:
//   - mgl64.Vec3: the translation applied this tick
//   - mgl64.Quat: the rotation applied this tick
func (a *Accumulator) Apply(root *common.Transform) (mgl64.Vec3, mgl64.Quat) {
	var translation mgl64.Vec3
	rotation := mgl64.QuatIdent()
	for _, e := range a.extractors {
		p, r, w := e.Pending()
		translation = translation.Add(p)
		rotation = common.WeightRotation(r, w).Mul(rotation)
	}
	rotation = rotation.Normalize()

	if root != nil {
		root.Position = root.Position.Add(translation)
		root.Rotation = rotation.Mul(root.Rotation).Normalize()
		for _, e := range a.extractors {
			e.SetSpaceRotation(root.Rotation)
		}
	}
	for _, e := range a.extractors {
		e.Clear()
	}
	return translation, rotation
}

// Reset drops every registered extractor.
func (a *Accumulator) Reset() {
	a.extractors = nil
}
