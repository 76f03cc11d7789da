package model

import (
	"github.com/go-gl/mathgl/mgl64"
)

// --- Skeleton Types ---

// Bone names a single joint in a skeleton together with its rest pose.
type Bone struct {
	// Name is the bone's identifier, matched against AnimationChannel.Target.
	Name string

	// Parent is the name of the parent bone, empty for root bones.
	Parent string

	// BindPosition, BindRotation and BindScale form the bone's local rest pose.
	BindPosition mgl64.Vec3
	BindRotation mgl64.Quat
	BindScale    mgl64.Vec3
}

// --- Animation Types ---

// Interpolation selects how values between two keyframes are computed.
type Interpolation int

const (
	// InterpolationLinear lerps vectors and slerps quaternions between keys.
	InterpolationLinear Interpolation = iota
	// InterpolationStep holds the previous key's value until the next key.
	InterpolationStep
)

// AnimationClip represents a single animation (walk, run, attack, etc.).
// Clips are immutable once loaded and may be shared by any number of controllers.
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float64

	// Channels contains animation data for each animated bone.
	Channels []AnimationChannel
}

// AnimationChannel contains keyframe data for a single bone.
type AnimationChannel struct {
	// Target is the name of the bone this channel animates.
	Target string

	// Interpolation applies to every track in the channel.
	Interpolation Interpolation

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation (quaternion).
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float64

	// Value is the 3D vector value at this keyframe.
	Value mgl64.Vec3
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float64

	// Value is the unit quaternion at this keyframe.
	Value mgl64.Quat
}
