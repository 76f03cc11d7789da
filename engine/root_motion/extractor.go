package root_motion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// Extractor turns the absolute root samples of one clip instance into incremental deltas
// and hands the identity value back to the mixer so the root bone stays in place.
// Each bound clip instance owns its own Extractor; nothing is shared between instances of the same clip.
type Extractor struct {
	channel *model.AnimationChannel
	weight  func() float64

	// spaceRotation is the root's world orientation that position deltas are expressed in.
	spaceRotation mgl64.Quat
	// clipOffsetRotation cancels the clip's authored initial facing.
	clipOffsetRotation mgl64.Quat

	lastPosition mgl64.Vec3
	lastPosTime  float64
	posPrimed    bool

	lastRotation mgl64.Quat
	lastRotTime  float64
	rotPrimed    bool

	pendingPosition mgl64.Vec3
	pendingRotation mgl64.Quat
	pendingWeight   float64
}

var _ clip.SampleInterceptor = &Extractor{}

// NewExtractor creates an Extractor for the root channel of one clip instance.
//
// Parameters:
//   - channel: the clip channel targeting the root bone
//   - weight: reports the instance's current effective blend weight
//
// Returns:
//   - *Extractor: the new extractor
func NewExtractor(channel *model.AnimationChannel, weight func() float64) *Extractor {
	e := &Extractor{
		channel:            channel,
		weight:             weight,
		spaceRotation:      mgl64.QuatIdent(),
		clipOffsetRotation: mgl64.QuatIdent(),
		lastRotation:       mgl64.QuatIdent(),
	}
	e.Clear()
	return e
}

// Begin prepares the extractor for a (re)start of its clip instance at startTime.
// The previous samples are seeded from the channel so the first tick only contributes motion after startTime.
//
// Parameters:
//   - startTime: the local time the instance starts at
//   - spaceRotation: the root's current world orientation
func (e *Extractor) Begin(startTime float64, spaceRotation mgl64.Quat) {
	e.spaceRotation = spaceRotation
	e.clipOffsetRotation = mgl64.QuatIdent()
	if e.channel != nil {
		if q, ok := e.channel.FirstRotation(); ok {
			e.clipOffsetRotation = q.Inverse()
		}
		e.lastPosition = e.channel.SamplePosition(startTime)
		e.lastRotation = e.channel.SampleRotation(startTime)
	}
	e.lastPosTime, e.lastRotTime = startTime, startTime
	e.posPrimed, e.rotPrimed = true, true
	e.Clear()
}

// SetSpaceRotation updates the orientation later position deltas are rotated into.
func (e *Extractor) SetSpaceRotation(q mgl64.Quat) {
	e.spaceRotation = q
}

// SpaceRotation returns the orientation position deltas are currently rotated into.
func (e *Extractor) SpaceRotation() mgl64.Quat { return e.spaceRotation }

// ClipOffsetRotation returns the inverse of the clip's first rotation key captured by Begin.
func (e *Extractor) ClipOffsetRotation() mgl64.Quat { return e.clipOffsetRotation }

// Pending returns the deltas collected since the last Clear.
//
// Returns:
//   - mgl64.Vec3: the weighted translation delta in world space
//   - mgl64.Quat: the unweighted rotation delta in world space
//   - float64: the instance weight at the latest sample
func (e *Extractor) Pending() (mgl64.Vec3, mgl64.Quat, float64) {
	return e.pendingPosition, e.pendingRotation, e.pendingWeight
}

// Clear discards pending deltas.
func (e *Extractor) Clear() {
	e.pendingPosition = mgl64.Vec3{}
	e.pendingRotation = mgl64.QuatIdent()
	e.pendingWeight = 0
}

func (e *Extractor) InterceptPosition(t float64, sample mgl64.Vec3) mgl64.Vec3 {
	if e.posPrimed && t > e.lastPosTime {
		w := e.currentWeight()
		delta := sample.Sub(e.lastPosition).Mul(w)
		delta = e.spaceRotation.Rotate(e.clipOffsetRotation.Rotate(delta))
		e.pendingPosition = e.pendingPosition.Add(delta)
		e.pendingWeight = w
	}
	e.lastPosition, e.lastPosTime, e.posPrimed = sample, t, true
	return mgl64.Vec3{}
}

func (e *Extractor) InterceptRotation(t float64, sample mgl64.Quat) mgl64.Quat {
	if e.rotPrimed && t > e.lastRotTime {
		delta := sample.Mul(e.lastRotation.Inverse()).Normalize()
		frame := e.spaceRotation.Mul(e.clipOffsetRotation)
		e.pendingRotation = common.ChangeBasis(frame, delta).Mul(e.pendingRotation).Normalize()
		e.pendingWeight = e.currentWeight()
	}
	e.lastRotation, e.lastRotTime, e.rotPrimed = sample, t, true
	return mgl64.QuatIdent()
}

func (e *Extractor) currentWeight() float64 {
	if e.weight == nil {
		return 1
	}
	return e.weight()
}
