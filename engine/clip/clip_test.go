package clip

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

const eps = 1e-6

type bones map[string]*common.Transform

func (b bones) Bone(name string) *common.Transform { return b[name] }

func newBones(names ...string) bones {
	b := bones{}
	for _, n := range names {
		t := common.IdentityTransform()
		b[n] = &t
	}
	return b
}

func slide(name string, duration float64, to mgl64.Vec3) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: duration,
		Channels: []model.AnimationChannel{{
			Target: "hips",
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: mgl64.Vec3{}},
				{Time: duration, Value: to},
			},
		}},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestHandleAdvancesOnlyWhenScheduled(t *testing.T) {
	m := NewMixer(newBones("hips"))
	h := m.NewHandle(slide("walk", 2, mgl64.Vec3{0, 0, -2}))

	m.Update(0.5)
	if h.Time() != 0 {
		t.Fatalf("unscheduled handle advanced to %v", h.Time())
	}
	if h.EffectiveWeight() != 0 || h.IsRunning() {
		t.Fatal("unscheduled handle should have no weight and not run")
	}

	h.Play()
	m.Update(0.5)
	if !near(h.Time(), 0.5) {
		t.Fatalf("Time = %v, want 0.5", h.Time())
	}
	if !h.IsRunning() || !h.IsScheduled() {
		t.Fatal("played handle should be running and scheduled")
	}
	if m.ScheduledCount() != 1 {
		t.Fatalf("ScheduledCount = %d, want 1", m.ScheduledCount())
	}
}

func TestHandleSpeedScalesTime(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 4, mgl64.Vec3{}), WithSpeed(2))
	h.Play()
	m.Update(0.5)
	if !near(h.Time(), 1) {
		t.Fatalf("Time = %v, want 1", h.Time())
	}
}

func TestLoopOnceClampHoldsAtEnd(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 1, mgl64.Vec3{}), WithLoop(LoopOnce, true))
	h.Play()
	m.Update(0.75)
	m.Update(0.75)

	if h.Time() != 1 {
		t.Fatalf("Time = %v, want clamp at 1", h.Time())
	}
	if h.IsRunning() {
		t.Fatal("clamped handle should stop running")
	}
	if h.EffectiveWeight() != 1 {
		t.Fatalf("clamped handle should keep its weight, got %v", h.EffectiveWeight())
	}
}

func TestLoopOnceWithoutClampDisables(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 1, mgl64.Vec3{}), WithLoop(LoopOnce, false))
	h.Play()
	m.Update(2)
	if h.EffectiveWeight() != 0 || h.IsRunning() {
		t.Fatal("finished handle without clamp should be disabled")
	}
}

func TestLoopRepeatWraps(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 1, mgl64.Vec3{}), WithLoop(LoopRepeat, false))
	h.Play()
	m.Update(2.25)
	if !near(h.Time(), 0.25) {
		t.Fatalf("Time = %v, want 0.25", h.Time())
	}
	if !h.IsRunning() {
		t.Fatal("repeating handle should keep running")
	}
}

func TestFadeInAndOut(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 10, mgl64.Vec3{}))
	h.Play()

	h.FadeIn(1)
	if h.EffectiveWeight() != 0 {
		t.Fatalf("weight at fade start = %v, want 0", h.EffectiveWeight())
	}
	m.Update(0.25)
	if !near(h.EffectiveWeight(), 0.25) {
		t.Fatalf("weight after 0.25s = %v", h.EffectiveWeight())
	}
	m.Update(1)
	if h.EffectiveWeight() != 1 || h.IsFading() {
		t.Fatalf("weight after fade = %v, fading = %v", h.EffectiveWeight(), h.IsFading())
	}

	h.FadeOut(0.5)
	m.Update(0.25)
	if !near(h.EffectiveWeight(), 0.5) {
		t.Fatalf("weight mid fade-out = %v", h.EffectiveWeight())
	}
	m.Update(0.5)
	if h.EffectiveWeight() != 0 || h.IsRunning() {
		t.Fatal("faded-out handle should be disabled")
	}
}

func TestFadeOutStartsFromCurrentValue(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 10, mgl64.Vec3{}))
	h.Play()
	h.FadeIn(1)
	m.Update(0.5)

	h.FadeOut(1)
	m.Update(0.5)
	if !near(h.EffectiveWeight(), 0.25) {
		t.Fatalf("weight = %v, want 0.25", h.EffectiveWeight())
	}
}

func TestZeroDurationFadeOutDisablesImmediately(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 10, mgl64.Vec3{}))
	h.Play()
	h.FadeOut(0)
	if h.EffectiveWeight() != 0 || h.IsRunning() {
		t.Fatal("zero-length fade out should disable at once")
	}
}

func TestResetAndStop(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 1, mgl64.Vec3{}), WithLoop(LoopOnce, true))
	h.Play()
	m.Update(2)
	h.Reset()
	if h.Time() != 0 || !h.IsRunning() {
		t.Fatal("Reset should rewind and resume a clamped handle")
	}
	h.Stop()
	if h.IsScheduled() || h.IsRunning() {
		t.Fatal("Stop should unschedule")
	}
}

func TestSetWeightCancelsFade(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 1, mgl64.Vec3{}))
	h.Play()
	h.FadeIn(1)
	h.SetWeight(1)
	if h.IsFading() || h.EffectiveWeight() != 1 {
		t.Fatal("SetWeight should snap and cancel fading")
	}
}

func TestMixerWritesPose(t *testing.T) {
	target := newBones("hips")
	m := NewMixer(target)
	h := m.NewHandle(slide("walk", 2, mgl64.Vec3{0, 0, -2}))
	h.Play()
	m.Update(1)

	if got := target["hips"].Position; !got.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, eps) {
		t.Fatalf("hips = %v, want (0,0,-1)", got)
	}
}

func TestMixerBlendsWeightedHandles(t *testing.T) {
	target := newBones("hips")
	m := NewMixer(target)
	a := m.NewHandle(slide("left", 1, mgl64.Vec3{-2, 0, 0}), WithWeight(0.5))
	b := m.NewHandle(slide("right", 1, mgl64.Vec3{0, 0, 2}), WithWeight(0.5))
	a.Play()
	b.Play()
	m.Update(1)

	if got := target["hips"].Position; !got.ApproxEqualThreshold(mgl64.Vec3{-1, 0, 1}, eps) {
		t.Fatalf("hips = %v, want (-1,0,1)", got)
	}
}

func TestMixerFillsDeficitFromRestPose(t *testing.T) {
	target := newBones("hips")
	target["hips"].Position = mgl64.Vec3{0, 1, 0}
	m := NewMixer(target)
	h := m.NewHandle(slide("walk", 1, mgl64.Vec3{0, 1, -4}), WithWeight(0.25))
	h.Play()
	m.Update(1)

	if got := target["hips"].Position; !got.ApproxEqualThreshold(mgl64.Vec3{0, 1, -1}, eps) {
		t.Fatalf("hips = %v, want (0,1,-1)", got)
	}
}

func TestMixerBlendsRotations(t *testing.T) {
	target := newBones("hips")
	turn := &model.AnimationClip{
		Name:     "turn",
		Duration: 1,
		Channels: []model.AnimationChannel{{
			Target: "hips",
			RotationKeys: []model.QuaternionKeyframe{
				{Time: 0, Value: common.YawQuat(90)},
			},
		}},
	}
	m := NewMixer(target)
	a := m.NewHandle(turn, WithWeight(0.5))
	b := m.NewHandle(&model.AnimationClip{Name: "still", Duration: 1, Channels: []model.AnimationChannel{{
		Target:       "hips",
		RotationKeys: []model.QuaternionKeyframe{{Time: 0, Value: mgl64.QuatIdent()}},
	}}}, WithWeight(0.5))
	a.Play()
	b.Play()
	m.Update(0.1)

	if got := common.YawDegrees(target["hips"].Rotation); math.Abs(got-45) > 1e-6 {
		t.Fatalf("hips yaw = %v, want 45", got)
	}
}

type zeroing struct {
	times   []float64
	samples []mgl64.Vec3
}

func (z *zeroing) InterceptPosition(t float64, v mgl64.Vec3) mgl64.Vec3 {
	z.times = append(z.times, t)
	z.samples = append(z.samples, v)
	return mgl64.Vec3{}
}

func (z *zeroing) InterceptRotation(_ float64, _ mgl64.Quat) mgl64.Quat {
	return mgl64.QuatIdent()
}

func TestInterceptorOverridesSample(t *testing.T) {
	target := newBones("hips")
	m := NewMixer(target)
	h := m.NewHandle(slide("walk", 2, mgl64.Vec3{0, 0, -2}))
	z := &zeroing{}
	h.SetInterceptor("hips", z)
	h.Play()
	m.Update(1)

	if len(z.samples) != 1 || !near(z.times[0], 1) {
		t.Fatalf("interceptor saw %v at %v", z.samples, z.times)
	}
	if !z.samples[0].ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, eps) {
		t.Fatalf("raw sample = %v", z.samples[0])
	}
	if got := target["hips"].Position; got != (mgl64.Vec3{}) {
		t.Fatalf("hips = %v, want the intercepted zero", got)
	}

	h.SetInterceptor("hips", nil)
	m.Update(0.5)
	if len(z.samples) != 1 {
		t.Fatal("removed interceptor still called")
	}
}

func TestInterceptorCalledWithoutBone(t *testing.T) {
	m := NewMixer(newBones())
	h := m.NewHandle(slide("walk", 2, mgl64.Vec3{0, 0, -2}))
	z := &zeroing{}
	h.SetInterceptor("hips", z)
	h.Play()
	m.Update(1)
	if len(z.samples) != 1 {
		t.Fatal("interceptor should see samples even when the target lacks the bone")
	}
}

func TestReleaseStopsEverything(t *testing.T) {
	m := NewMixer(nil)
	h := m.NewHandle(slide("walk", 2, mgl64.Vec3{}))
	h.Play()
	m.Release()
	if h.IsScheduled() || m.ScheduledCount() != 0 {
		t.Fatal("Release should stop all handles")
	}
}
