// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "github.com/go-gl/mathgl/mgl64"

// Transform is a position/rotation/scale triple. Bones hold local transforms, game objects hold world transforms.
type Transform struct {
	// Position is the translation component.
	Position mgl64.Vec3

	// Rotation is the orientation as a unit quaternion.
	Rotation mgl64.Quat

	// Scale is the per-axis scale factor.
	Scale mgl64.Vec3
}

// IdentityTransform returns a Transform at the origin with no rotation and unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Forward returns the transform's forward (-Z) direction in its parent space.
//
// Returns:
//   - mgl64.Vec3: the unit forward vector
func (t Transform) Forward() mgl64.Vec3 {
	return t.Rotation.Rotate(mgl64.Vec3{0, 0, -1})
}
