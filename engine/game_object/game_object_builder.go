package game_object

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithName sets the display name of the GameObject.
//
// Parameters:
//   - name: the display name
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the name
func WithName(name string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.name = name
	}
}

// WithEnabled sets whether the GameObject is ticked by its scene.
//
// Parameters:
//   - enabled: true to tick the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithPosition sets the initial world position of the GameObject.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial position
func WithPosition(x, y, z float64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.transform.Position = mgl64.Vec3{x, y, z}
	}
}

// WithScale sets the initial world scale of the GameObject.
//
// Parameters:
//   - sx: the x scale factor
//   - sy: the y scale factor
//   - sz: the z scale factor
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial scale
func WithScale(sx, sy, sz float64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.transform.Scale = mgl64.Vec3{sx, sy, sz}
	}
}

// WithRotation sets the initial world orientation from Euler angles in degrees, applied in X, Y, Z order.
//
// Parameters:
//   - rx: the x rotation angle
//   - ry: the y rotation angle
//   - rz: the z rotation angle
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial rotation
func WithRotation(rx, ry, rz float64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.transform.Rotation = mgl64.AnglesToQuat(mgl64.DegToRad(rx), mgl64.DegToRad(ry), mgl64.DegToRad(rz), mgl64.XYZ).Normalize()
	}
}

// WithBones adds bones at the identity transform.
//
// Parameters:
//   - names: the bone names
//
// Returns:
//   - GameObjectBuilderOption: functional option to add the bones
func WithBones(names ...string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		for _, n := range names {
			obj.AddBone(n, common.IdentityTransform())
		}
	}
}

// WithBone adds one bone with a rest transform.
//
// Parameters:
//   - name: the bone name
//   - local: the bone's local rest transform
//
// Returns:
//   - GameObjectBuilderOption: functional option to add the bone
func WithBone(name string, local common.Transform) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.AddBone(name, local)
	}
}

// WithAnimator attaches a controller. It is bound to the object once construction finishes.
//
// Parameters:
//   - a: the controller
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the controller
func WithAnimator(a animator.AnimatorController) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.animator = a
	}
}
