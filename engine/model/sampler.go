package model

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Channel returns the channel animating the named bone, or nil if the clip does not animate it.
//
// Parameters:
//   - target: the bone name
//
// Returns:
//   - *AnimationChannel: the matching channel or nil
func (c *AnimationClip) Channel(target string) *AnimationChannel {
	if c == nil {
		return nil
	}
	for i := range c.Channels {
		if c.Channels[i].Target == target {
			return &c.Channels[i]
		}
	}
	return nil
}

// KeyframeEnd returns the largest keyframe timestamp across all channels.
//
// Returns:
//   - float64: the time of the last keyframe, or 0 for a clip without keys
func (c *AnimationClip) KeyframeEnd() float64 {
	end := 0.0
	for _, ch := range c.Channels {
		if n := len(ch.PositionKeys); n > 0 && ch.PositionKeys[n-1].Time > end {
			end = ch.PositionKeys[n-1].Time
		}
		if n := len(ch.RotationKeys); n > 0 && ch.RotationKeys[n-1].Time > end {
			end = ch.RotationKeys[n-1].Time
		}
		if n := len(ch.ScaleKeys); n > 0 && ch.ScaleKeys[n-1].Time > end {
			end = ch.ScaleKeys[n-1].Time
		}
	}
	return end
}

// Validate checks that every track's keyframes are in ascending time order.
//
// Returns:
//   - error: a description of the first out-of-order track, or nil
func (c *AnimationClip) Validate() error {
	for i, ch := range c.Channels {
		if !sort.SliceIsSorted(ch.PositionKeys, func(a, b int) bool { return ch.PositionKeys[a].Time < ch.PositionKeys[b].Time }) {
			return fmt.Errorf("clip %q channel %d (%s): position keys out of order", c.Name, i, ch.Target)
		}
		if !sort.SliceIsSorted(ch.RotationKeys, func(a, b int) bool { return ch.RotationKeys[a].Time < ch.RotationKeys[b].Time }) {
			return fmt.Errorf("clip %q channel %d (%s): rotation keys out of order", c.Name, i, ch.Target)
		}
		if !sort.SliceIsSorted(ch.ScaleKeys, func(a, b int) bool { return ch.ScaleKeys[a].Time < ch.ScaleKeys[b].Time }) {
			return fmt.Errorf("clip %q channel %d (%s): scale keys out of order", c.Name, i, ch.Target)
		}
	}
	return nil
}

// HasPosition reports whether the channel carries a translation track.
func (ch *AnimationChannel) HasPosition() bool { return len(ch.PositionKeys) > 0 }

// HasRotation reports whether the channel carries a rotation track.
func (ch *AnimationChannel) HasRotation() bool { return len(ch.RotationKeys) > 0 }

// HasScale reports whether the channel carries a scale track.
func (ch *AnimationChannel) HasScale() bool { return len(ch.ScaleKeys) > 0 }

// SamplePosition evaluates the translation track at time t.
// Times before the first key or after the last key hold the boundary value.
//
// Parameters:
//   - t: the sample time in seconds
//
// Returns:
//   - mgl64.Vec3: the interpolated translation, zero if the track is empty
func (ch *AnimationChannel) SamplePosition(t float64) mgl64.Vec3 {
	keys := ch.PositionKeys
	if len(keys) == 0 {
		return mgl64.Vec3{}
	}
	i, j, frac := locate(len(keys), func(k int) float64 { return keys[k].Time }, t)
	if i == j || ch.Interpolation == InterpolationStep {
		return keys[i].Value
	}
	return keys[i].Value.Add(keys[j].Value.Sub(keys[i].Value).Mul(frac))
}

// SampleRotation evaluates the rotation track at time t.
//
// Parameters:
//   - t: the sample time in seconds
//
// Returns:
//   - mgl64.Quat: the interpolated rotation, identity if the track is empty
func (ch *AnimationChannel) SampleRotation(t float64) mgl64.Quat {
	keys := ch.RotationKeys
	if len(keys) == 0 {
		return mgl64.QuatIdent()
	}
	i, j, frac := locate(len(keys), func(k int) float64 { return keys[k].Time }, t)
	if i == j || ch.Interpolation == InterpolationStep {
		return keys[i].Value
	}
	return mgl64.QuatSlerp(keys[i].Value, keys[j].Value, frac)
}

// SampleScale evaluates the scale track at time t.
//
// Parameters:
//   - t: the sample time in seconds
//
// Returns:
//   - mgl64.Vec3: the interpolated scale, (1, 1, 1) if the track is empty
func (ch *AnimationChannel) SampleScale(t float64) mgl64.Vec3 {
	keys := ch.ScaleKeys
	if len(keys) == 0 {
		return mgl64.Vec3{1, 1, 1}
	}
	i, j, frac := locate(len(keys), func(k int) float64 { return keys[k].Time }, t)
	if i == j || ch.Interpolation == InterpolationStep {
		return keys[i].Value
	}
	return keys[i].Value.Add(keys[j].Value.Sub(keys[i].Value).Mul(frac))
}

// FirstRotation returns the rotation of the first rotation keyframe.
//
// Returns:
//   - mgl64.Quat: the first key's rotation, identity if the track is empty
//   - bool: true if the track has at least one key
func (ch *AnimationChannel) FirstRotation() (mgl64.Quat, bool) {
	if len(ch.RotationKeys) == 0 {
		return mgl64.QuatIdent(), false
	}
	return ch.RotationKeys[0].Value, true
}

// locate finds the pair of keys surrounding t and the fraction between them.
// i == j means t is at or beyond a boundary key.
func locate(n int, at func(int) float64, t float64) (i, j int, frac float64) {
	if n == 1 || t <= at(0) {
		return 0, 0, 0
	}
	if t >= at(n-1) {
		return n - 1, n - 1, 0
	}
	j = sort.Search(n, func(k int) bool { return at(k) > t })
	i = j - 1
	span := at(j) - at(i)
	if span <= 0 {
		return j, j, 0
	}
	return i, j, (t - at(i)) / span
}
