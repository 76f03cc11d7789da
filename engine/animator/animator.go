package animator

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/behaviour"
	"github.com/Carmen-Shannon/oxy-anim/engine/clip"
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
	"github.com/Carmen-Shannon/oxy-anim/engine/root_motion"
	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"
)

// DefaultRootBone is the bone root motion is extracted from unless WithRootBone says otherwise.
const DefaultRootBone = "root"

// maxDeferredRequests bounds how many queued Play/Reset requests one flush may run,
// so behaviours that keep re-requesting each other cannot spin forever.
const maxDeferredRequests = 64

// Target is what a controller is bound to: named bones for the mixer plus the world transform root motion moves.
type Target interface {
	clip.Target

	// Root returns the world transform that receives root motion, or nil.
	Root() *common.Transform
}

// stateRuntime holds the live resources of one state for one bound controller.
type stateRuntime struct {
	primary    clip.Handle
	loopback   clip.Handle
	behaviours *behaviour.Set
}

// activeEntry is one clip instance taking part in the blend.
// A self-transition puts the same state in the set twice with different handles.
type activeEntry struct {
	state  *state_machine.State
	handle clip.Handle
}

type animatorController struct {
	model    *state_machine.ControllerModel
	params   *parameter.Store
	registry behaviour.Registry

	speed      float64
	rootMotion bool
	rootBone   string

	target      Target
	mixer       clip.Mixer
	accumulator *root_motion.Accumulator
	runtimes    map[*state_machine.State]*stateRuntime
	extractors  map[clip.Handle]*root_motion.Extractor

	activeState  *state_machine.State
	activeStates []activeEntry

	bound   bool
	started bool

	busy      int
	deferred  []func()
	entered   bool
	restarted bool

	transitions uint64
}

// AnimatorController drives one ControllerModel against one bound Target.
// It evaluates transitions, cross-fades clip instances, runs state behaviours, and applies root motion.
//
// A controller is not safe for concurrent use. Independent controllers may be updated from different goroutines.
type AnimatorController interface {
	behaviour.Animator

	// Bind attaches the controller to target and instantiates state behaviours.
	// Clip instances are created lazily the first time a state is entered.
	// Binding again releases everything created by the previous binding.
	//
	// Parameters:
	//   - target: the bone and root transform source
	Bind(target Target)

	// FirstTick enters the default state of layer 0. It runs once per binding;
	// Update calls it if the host has not.
	FirstTick()

	// Update advances the controller by one tick: evaluate transitions, prune faded instances,
	// advance clips, apply root motion, then run update callbacks.
	//
	// Parameters:
	//   - deltaTime: elapsed host time in seconds, already scaled by the host time scale
	Update(deltaTime float64)

	// Release stops and forgets every clip instance. The controller can be bound again.
	Release()

	// PlayHash is Play addressed by state hash.
	//
	// Parameters:
	//   - hash: the state hash
	//   - layer: the layer index, only 0 drives playback
	//   - normalizedTime: start offset in [0,1]; negative, NaN, or -Inf starts at the beginning
	//   - transitionDuration: cross-fade length in seconds
	PlayHash(hash int32, layer int, normalizedTime, transitionDuration float64)

	// Reset stops all clips and re-enters the default state.
	Reset()

	// SetBoolID sets a bool or trigger parameter by its canonical ID.
	SetBoolID(id parameter.ID, value bool)

	// SetFloatID sets a float parameter by its canonical ID.
	SetFloatID(id parameter.ID, value float64)

	// SetIntegerID sets an int parameter by its canonical ID.
	SetIntegerID(id parameter.ID, value int64)

	// SetTriggerID sets a trigger by its canonical ID.
	SetTriggerID(id parameter.ID)

	// ResetTriggerID clears a trigger by its canonical ID.
	ResetTriggerID(id parameter.ID)

	// GetBoolID returns a bool or trigger parameter, false if unknown.
	GetBoolID(id parameter.ID) bool

	// GetFloatID returns a float parameter, 0 if unknown.
	GetFloatID(id parameter.ID) float64

	// GetIntegerID returns an int parameter, 0 if unknown.
	GetIntegerID(id parameter.ID) int64

	// Parameters returns a copy of every parameter's current value.
	//
	// Returns:
	//   - []parameter.Parameter: the parameters in declaration order
	Parameters() []parameter.Parameter

	// IsInTransition reports whether more than one clip instance is blending.
	//
	// Returns:
	//   - bool: true while a cross-fade is in progress
	IsInTransition() bool

	// Speed returns the playback speed multiplier.
	Speed() float64

	// SetSpeed changes the playback speed of every active clip instance and of future ones.
	// A negative speed plays clips backwards; looping states wrap from the start to the end.
	//
	// Parameters:
	//   - speed: the multiplier, 1 is authored speed
	SetSpeed(speed float64)

	// RootMotion reports whether root motion extraction is enabled.
	RootMotion() bool

	// SetRootMotion toggles root motion. Instances already playing pick up the change on their next sample.
	//
	// Parameters:
	//   - enabled: true to move the target root by the root bone's motion
	SetRootMotion(enabled bool)

	// Clone copies the model and the current parameter values into a new, unbound controller.
	//
	// Returns:
	//   - AnimatorController: the copy, or nil if the model is not resolved
	Clone() AnimatorController

	// Model returns the controller's model.
	Model() *state_machine.ControllerModel

	// ActiveState returns the state that last became active, or nil.
	ActiveState() *state_machine.State

	// ActiveStateInfo describes the active state's playback.
	//
	// Returns:
	//   - behaviour.StateInfo: the description
	//   - bool: false if no state is active
	ActiveStateInfo() (behaviour.StateInfo, bool)

	// ActiveStateCount returns the number of clip instances taking part in the blend.
	ActiveStateCount() int

	// TransitionCount returns how many transitions this controller has executed, initial entry included.
	TransitionCount() uint64
}

var _ AnimatorController = &animatorController{}

// NewAnimatorController creates an unbound controller for m.
// An unresolved model is resolved here; a model that fails to resolve is kept but logged, and cannot be cloned.
//
// Parameters:
//   - m: the controller model, owned by the controller from now on
//   - options: functional options for the controller
//
// Returns:
//   - AnimatorController: the new controller
func NewAnimatorController(m *state_machine.ControllerModel, options ...AnimatorBuilderOption) AnimatorController {
	a := &animatorController{
		model:       m,
		speed:       1,
		rootBone:    DefaultRootBone,
		accumulator: root_motion.NewAccumulator(),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.registry == nil {
		a.registry = behaviour.DefaultRegistry()
	}

	if m == nil {
		log.Printf("[Animator] controller created without a model")
		a.params = parameter.NewStore()
		return a
	}
	if !m.Resolved() {
		if err := m.Resolve(); err != nil {
			log.Printf("[Animator] %s: %v", m.Name, err)
		}
	}
	a.params = parameter.NewStore(m.Parameters...)
	return a
}

func (a *animatorController) name() string {
	if a.model == nil {
		return "<nil>"
	}
	return a.model.Name
}

func (a *animatorController) Bind(target Target) {
	if a.model == nil {
		log.Printf("[Animator] bind ignored: controller has no model")
		return
	}
	if a.bound {
		a.Release()
	}
	a.target = target
	a.mixer = clip.NewMixer(target)
	a.runtimes = make(map[*state_machine.State]*stateRuntime)
	a.extractors = make(map[clip.Handle]*root_motion.Extractor)
	if sm := a.model.BaseStateMachine(); sm != nil {
		for _, s := range sm.States {
			a.runtimes[s] = &stateRuntime{behaviours: behaviour.Instantiate(a.registry, s.Name, s.Behaviours)}
		}
	}
	for i := 1; i < len(a.model.Layers); i++ {
		log.Printf("[Animator] %s: layer %d (%s) is declared but not evaluated", a.name(), i, a.model.Layers[i].Name)
	}
	a.bound = true
	a.started = false
}

func (a *animatorController) FirstTick() {
	if !a.bound {
		log.Printf("[Animator] %s: first tick before bind", a.name())
		return
	}
	if a.started {
		return
	}
	a.started = true
	a.enter()
	a.enterDefault()
	a.leave()
}

func (a *animatorController) Update(deltaTime float64) {
	if !a.bound {
		return
	}
	a.enter()
	a.entered, a.restarted = false, false
	if !a.started {
		a.started = true
		a.enterDefault()
	}

	a.evaluateTransitions()
	a.updateActiveStates()

	if a.rootMotion {
		a.accumulator.BeginTick()
	}
	a.mixer.Update(deltaTime)
	if a.rootMotion {
		a.accumulator.Apply(a.root())
	}

	if a.activeState != nil && !a.entered && !a.restarted {
		if rt := a.runtimes[a.activeState]; rt != nil && rt.primary != nil {
			rt.behaviours.Update(a, a.stateInfo(a.activeState, rt.primary))
		}
	}
	a.leave()
}

func (a *animatorController) Release() {
	if a.mixer != nil {
		a.mixer.Release()
	}
	a.accumulator.Reset()
	a.runtimes = nil
	a.extractors = nil
	a.activeState = nil
	a.activeStates = nil
	a.deferred = nil
	a.bound = false
	a.started = false
}

func (a *animatorController) Play(name string, layer int, normalizedTime, transitionDuration float64) {
	if a.busy > 0 {
		a.deferred = append(a.deferred, func() { a.Play(name, layer, normalizedTime, transitionDuration) })
		return
	}
	sm := a.layerStateMachine(layer)
	if sm == nil {
		return
	}
	s := sm.StateByName(name)
	if s == nil {
		log.Printf("[Animator] %s: play: unknown state %q", a.name(), name)
		return
	}
	a.play(s, normalizedTime, transitionDuration)
}

func (a *animatorController) PlayHash(hash int32, layer int, normalizedTime, transitionDuration float64) {
	if a.busy > 0 {
		a.deferred = append(a.deferred, func() { a.PlayHash(hash, layer, normalizedTime, transitionDuration) })
		return
	}
	sm := a.layerStateMachine(layer)
	if sm == nil {
		return
	}
	s := sm.StateByHash(hash)
	if s == nil {
		log.Printf("[Animator] %s: play: unknown state hash %d", a.name(), hash)
		return
	}
	a.play(s, normalizedTime, transitionDuration)
}

func (a *animatorController) play(s *state_machine.State, normalizedTime, transitionDuration float64) {
	if !a.bound {
		log.Printf("[Animator] %s: play %q before bind", a.name(), s.Name)
		return
	}
	if math.IsNaN(normalizedTime) || normalizedTime < 0 {
		normalizedTime = 0
	}
	a.started = true
	a.transitionTo(s, transitionDuration, normalizedTime)
}

// layerStateMachine returns the state machine Play may drive on layer, logging why not otherwise.
func (a *animatorController) layerStateMachine(layer int) *state_machine.StateMachine {
	if a.model == nil {
		log.Printf("[Animator] play ignored: controller has no model")
		return nil
	}
	if layer < 0 || layer >= len(a.model.Layers) {
		log.Printf("[Animator] %s: play: layer %d out of range", a.name(), layer)
		return nil
	}
	if layer != 0 {
		log.Printf("[Animator] %s: play: layer %d is not evaluated", a.name(), layer)
		return nil
	}
	return a.model.BaseStateMachine()
}

func (a *animatorController) Reset() {
	if a.busy > 0 {
		a.deferred = append(a.deferred, a.Reset)
		return
	}
	if !a.bound {
		return
	}
	a.enter()
	if s := a.activeState; s != nil {
		if rt := a.runtimes[s]; rt != nil && rt.primary != nil && rt.primary.IsScheduled() {
			rt.behaviours.Exit(a, a.stateInfo(s, rt.primary))
		}
	}
	a.mixer.StopAll()
	a.activeState = nil
	a.activeStates = nil
	a.started = true
	a.enterDefault()
	a.leave()
}

// enter marks the controller busy. Play and Reset requests made while busy are queued.
func (a *animatorController) enter() {
	a.busy++
}

// leave undoes enter and runs queued requests once the outermost call unwinds.
func (a *animatorController) leave() {
	a.busy--
	if a.busy > 0 {
		return
	}
	for n := 0; len(a.deferred) > 0; n++ {
		if n == maxDeferredRequests {
			log.Printf("[Animator] %s: dropped %d deferred requests", a.name(), len(a.deferred))
			a.deferred = nil
			return
		}
		next := a.deferred[0]
		a.deferred = a.deferred[1:]
		next()
	}
}

func (a *animatorController) enterDefault() {
	sm := a.model.BaseStateMachine()
	if sm == nil {
		log.Printf("[Animator] %s: no state machine on layer 0", a.name())
		return
	}
	s := sm.DefaultState()
	if s == nil {
		log.Printf("[Animator] %s: layer 0 has no states", a.name())
		return
	}
	a.transitionTo(s, 0, 0)
}

// evaluateTransitions takes the first eligible transition of the active state,
// or restarts a looping clip that reached its end.
func (a *animatorController) evaluateTransitions() {
	s := a.activeState
	if s == nil {
		return
	}
	rt := a.runtimes[s]
	var h clip.Handle
	if rt != nil {
		h = rt.primary
	}

	pb := state_machine.Playback{}
	if h != nil && h.IsScheduled() && s.Motion.Clip != nil {
		pb = state_machine.Playback{HasClip: true, Time: h.Time(), Duration: h.Duration()}
	}
	if tr, ok := state_machine.Evaluate(s, a.params, pb); ok {
		sm := a.model.BaseStateMachine()
		var dest *state_machine.State
		if tr.ToDefault {
			dest = sm.DefaultState()
		} else {
			dest = sm.StateByHash(tr.Destination)
		}
		if dest == nil {
			log.Printf("[Animator] %s: state %q: transition to unknown state %d", a.name(), s.Name, tr.Destination)
			return
		}
		a.transitionTo(dest, tr.Duration, tr.Offset)
		return
	}

	if !s.Motion.Looping || !pb.HasClip || pb.Duration <= 0 {
		return
	}
	// Reversed playback wraps from the start back to the end.
	start := -1.0
	switch {
	case h.Speed() >= 0 && pb.Time >= pb.Duration:
		start = 0
	case h.Speed() < 0 && pb.Time <= 0:
		start = pb.Duration
	}
	if start < 0 {
		return
	}
	h.Reset()
	h.SetTime(start)
	h.Play()
	if x := a.extractors[h]; x != nil {
		x.Begin(start, a.rootRotation())
	}
	a.restarted = true
}

// updateActiveStates drops instances that have faded out completely. The active state's current instance is always kept.
func (a *animatorController) updateActiveStates() {
	kept := a.activeStates[:0]
	for _, e := range a.activeStates {
		if a.isCurrent(e) {
			kept = append(kept, e)
			continue
		}
		if e.state.Motion.Clip == nil || (e.handle.EffectiveWeight() <= 0 && !e.handle.IsRunning()) {
			e.handle.Stop()
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(a.activeStates); i++ {
		a.activeStates[i] = activeEntry{}
	}
	a.activeStates = kept
}

func (a *animatorController) isCurrent(e activeEntry) bool {
	if e.state != a.activeState {
		return false
	}
	rt := a.runtimes[e.state]
	return rt != nil && rt.primary == e.handle
}

// transitionTo is the single path every state change takes: evaluated transitions, Play, Reset, and initial entry.
func (a *animatorController) transitionTo(target *state_machine.State, duration, offset float64) {
	if target == nil {
		log.Printf("[Animator] %s: transition to a nil state ignored", a.name())
		return
	}
	if target.Motion.Clip == nil {
		log.Printf("[Animator] %s: state %q has no motion, staying in the current state", a.name(), target.Name)
		return
	}
	a.enter()
	defer a.leave()

	if math.IsNaN(duration) || duration < 0 {
		duration = 0
	}
	offset = common.Clamp01(offset)

	prev := a.activeState
	var outgoing clip.Handle
	var prevRT *stateRuntime
	if prev != nil {
		prevRT = a.runtimes[prev]
		if prevRT != nil {
			outgoing = prevRT.primary
		}
	}

	rt := a.runtime(target)
	if prev == target {
		if rt.loopback == nil {
			rt.loopback = a.newHandle(target)
		}
		rt.primary, rt.loopback = rt.loopback, rt.primary
	} else if rt.primary == nil {
		rt.primary = a.newHandle(target)
	}

	if outgoing != nil {
		if outgoing.IsScheduled() {
			prevRT.behaviours.Exit(a, a.stateInfo(prev, outgoing))
		}
		outgoing.FadeOut(duration)
	}

	h := rt.primary
	h.Stop()
	h.Reset()
	h.SetTime(offset * h.Duration())
	h.SetSpeed(a.speed)
	h.SetLoop(clip.LoopOnce, true)
	if duration > 0 {
		h.FadeIn(duration)
	} else {
		h.SetWeight(1)
	}
	h.Play()
	if x := a.extractors[h]; x != nil {
		x.Begin(h.Time(), a.rootRotation())
	}

	entry := activeEntry{state: target, handle: h}
	if !common.Contains(a.activeStates, entry) {
		a.activeStates = append(a.activeStates, entry)
	}

	rt.behaviours.Enter(a, a.stateInfo(target, h))
	a.activeState = target
	a.entered = true
	a.transitions++
}

func (a *animatorController) runtime(s *state_machine.State) *stateRuntime {
	rt := a.runtimes[s]
	if rt == nil {
		rt = &stateRuntime{behaviours: behaviour.Instantiate(a.registry, s.Name, s.Behaviours)}
		a.runtimes[s] = rt
	}
	return rt
}

// newHandle creates a clip instance for s and, when the clip animates the root bone, its extractor.
func (a *animatorController) newHandle(s *state_machine.State) clip.Handle {
	h := a.mixer.NewHandle(s.Motion.Clip, clip.WithSpeed(a.speed), clip.WithLoop(clip.LoopOnce, true))
	ch := s.Motion.Clip.Channel(a.rootBone)
	if ch == nil || !(ch.HasPosition() || ch.HasRotation()) {
		return h
	}
	x := root_motion.NewExtractor(ch, h.EffectiveWeight)
	a.extractors[h] = x
	a.accumulator.Add(x)
	if a.rootMotion {
		h.SetInterceptor(a.rootBone, x)
	}
	return h
}

func (a *animatorController) root() *common.Transform {
	if a.target == nil {
		return nil
	}
	return a.target.Root()
}

func (a *animatorController) rootRotation() mgl64.Quat {
	if r := a.root(); r != nil {
		return r.Rotation
	}
	return mgl64.QuatIdent()
}

func (a *animatorController) stateInfo(s *state_machine.State, h clip.Handle) behaviour.StateInfo {
	pb := state_machine.Playback{HasClip: true, Time: h.Time(), Duration: h.Duration()}
	return behaviour.StateInfo{
		Name:           s.Name,
		Hash:           s.Hash,
		Layer:          0,
		NormalizedTime: pb.NormalizedTime(),
		Length:         pb.Duration,
		Speed:          a.speed,
	}
}

func (a *animatorController) SetBool(name string, value bool) {
	a.SetBoolID(parameter.Hash(name), value)
}

func (a *animatorController) SetFloat(name string, value float64) {
	a.SetFloatID(parameter.Hash(name), value)
}

func (a *animatorController) SetInteger(name string, value int64) {
	a.SetIntegerID(parameter.Hash(name), value)
}

func (a *animatorController) SetTrigger(name string) { a.SetTriggerID(parameter.Hash(name)) }

func (a *animatorController) ResetTrigger(name string) { a.ResetTriggerID(parameter.Hash(name)) }

func (a *animatorController) GetBool(name string) bool { return a.params.Bool(parameter.Hash(name)) }

func (a *animatorController) GetFloat(name string) float64 {
	return a.params.Float(parameter.Hash(name))
}

func (a *animatorController) GetInteger(name string) int64 {
	return a.params.Int(parameter.Hash(name))
}

func (a *animatorController) SetBoolID(id parameter.ID, value bool) {
	if !a.params.SetBool(id, value) {
		a.logRejected("bool", id)
	}
}

func (a *animatorController) SetFloatID(id parameter.ID, value float64) {
	if !a.params.SetFloat(id, value) {
		a.logRejected("float", id)
	}
}

func (a *animatorController) SetIntegerID(id parameter.ID, value int64) {
	if !a.params.SetInt(id, value) {
		a.logRejected("int", id)
	}
}

func (a *animatorController) SetTriggerID(id parameter.ID) {
	if !a.params.SetTrigger(id) {
		a.logRejected("trigger", id)
	}
}

func (a *animatorController) ResetTriggerID(id parameter.ID) {
	if !a.params.ResetTrigger(id) {
		a.logRejected("trigger", id)
	}
}

func (a *animatorController) logRejected(kind string, id parameter.ID) {
	if p, ok := a.params.Lookup(id); ok {
		log.Printf("[Animator] %s: parameter %q is %s, not %s", a.name(), p.Name, p.Kind, kind)
		return
	}
	log.Printf("[Animator] %s: unknown %s parameter %d", a.name(), kind, id)
}

func (a *animatorController) GetBoolID(id parameter.ID) bool { return a.params.Bool(id) }

func (a *animatorController) GetFloatID(id parameter.ID) float64 { return a.params.Float(id) }

func (a *animatorController) GetIntegerID(id parameter.ID) int64 { return a.params.Int(id) }

func (a *animatorController) Parameters() []parameter.Parameter { return a.params.Snapshot() }

func (a *animatorController) IsInTransition() bool { return len(a.activeStates) > 1 }

func (a *animatorController) Speed() float64 { return a.speed }

func (a *animatorController) SetSpeed(speed float64) {
	a.speed = speed
	for _, e := range a.activeStates {
		e.handle.SetSpeed(speed)
	}
}

func (a *animatorController) RootMotion() bool { return a.rootMotion }

func (a *animatorController) SetRootMotion(enabled bool) {
	if a.rootMotion == enabled {
		return
	}
	a.rootMotion = enabled
	for h, x := range a.extractors {
		if !enabled {
			h.SetInterceptor(a.rootBone, nil)
			continue
		}
		h.SetInterceptor(a.rootBone, x)
		x.Begin(h.Time(), a.rootRotation())
	}
}

func (a *animatorController) Clone() AnimatorController {
	if !a.model.Resolved() {
		log.Printf("[Animator] %s: cannot clone a controller whose model is not resolved", a.name())
		return nil
	}
	return &animatorController{
		model:       a.model.Clone(),
		params:      a.params.Clone(),
		registry:    a.registry,
		speed:       a.speed,
		rootMotion:  a.rootMotion,
		rootBone:    a.rootBone,
		accumulator: root_motion.NewAccumulator(),
	}
}

func (a *animatorController) Model() *state_machine.ControllerModel { return a.model }

func (a *animatorController) ActiveState() *state_machine.State { return a.activeState }

func (a *animatorController) ActiveStateInfo() (behaviour.StateInfo, bool) {
	if a.activeState == nil {
		return behaviour.StateInfo{}, false
	}
	rt := a.runtimes[a.activeState]
	if rt == nil || rt.primary == nil {
		return behaviour.StateInfo{Name: a.activeState.Name, Hash: a.activeState.Hash, Speed: a.speed}, true
	}
	return a.stateInfo(a.activeState, rt.primary), true
}

func (a *animatorController) ActiveStateCount() int { return len(a.activeStates) }

func (a *animatorController) TransitionCount() uint64 { return a.transitions }
