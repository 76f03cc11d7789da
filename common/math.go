package common

import (
	"hash/fnv"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// StringToHash converts a name into the 32-bit key used for parameter and state lookups.
// The same name always produces the same hash, so callers may precompute it once.
//
// Parameters:
//   - name: the name to hash
//
// Returns:
//   - int32: the FNV-1a hash of the name
func StringToHash(name string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int32(h.Sum32())
}

// Clamp01 clamps v to the [0, 1] range. NaN clamps to 0.
//
// Parameters:
//   - v: the value to clamp
//
// Returns:
//   - float64: the clamped value
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// QuatFromXYZW builds a normalized quaternion from an [x, y, z, w] array.
// A zero-length input yields the identity rotation.
//
// Parameters:
//   - v: the quaternion components in x, y, z, w order
//
// Returns:
//   - mgl64.Quat: the normalized quaternion
func QuatFromXYZW(v [4]float64) mgl64.Quat {
	return mgl64.Quat{W: v[3], V: mgl64.Vec3{v[0], v[1], v[2]}}.Normalize()
}

// QuatToXYZW flattens a quaternion into [x, y, z, w] order.
//
// Parameters:
//   - q: the quaternion to flatten
//
// Returns:
//   - [4]float64: the quaternion components
func QuatToXYZW(q mgl64.Quat) [4]float64 {
	return [4]float64{q.V[0], q.V[1], q.V[2], q.W}
}

// YawQuat returns a rotation of the given number of degrees around the +Y axis.
//
// Parameters:
//   - degrees: the yaw angle in degrees
//
// Returns:
//   - mgl64.Quat: the rotation
func YawQuat(degrees float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(degrees), mgl64.Vec3{0, 1, 0})
}

// YawDegrees returns the heading of q around +Y in degrees, measured from -Z.
//
// Parameters:
//   - q: the rotation to measure
//
// Returns:
//   - float64: the heading in degrees in (-180, 180]
func YawDegrees(q mgl64.Quat) float64 {
	f := q.Rotate(mgl64.Vec3{0, 0, -1})
	return mgl64.RadToDeg(math.Atan2(-f[0], -f[2]))
}

// WeightRotation scales a rotation by a blend weight by slerping from identity toward q.
//
// Parameters:
//   - q: the full-weight rotation
//   - weight: the blend weight, clamped to [0, 1]
//
// Returns:
//   - mgl64.Quat: the partially applied rotation
func WeightRotation(q mgl64.Quat, weight float64) mgl64.Quat {
	w := Clamp01(weight)
	if w == 1 {
		return q
	}
	return mgl64.QuatSlerp(mgl64.QuatIdent(), q, w)
}

// ChangeBasis re-expresses rotation q in the frame described by basis (basis * q * basis^-1).
//
// Parameters:
//   - basis: the frame rotation
//   - q: the rotation to re-express
//
// Returns:
//   - mgl64.Quat: the rotation expressed in the new frame
func ChangeBasis(basis, q mgl64.Quat) mgl64.Quat {
	return basis.Mul(q).Mul(basis.Inverse()).Normalize()
}
