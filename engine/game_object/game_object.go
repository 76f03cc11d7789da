package game_object

import (
	"sort"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
)

type gameObject struct {
	id      uint64
	name    string
	enabled atomic.Bool

	transform common.Transform
	bones     map[string]*common.Transform

	animator animator.AnimatorController
}

// GameObject defines the interface for a scene entity: a world transform, a set of named
// bone transforms, and optionally an AnimatorController bound to both.
// A GameObject is the animator.Target its controller writes to.
type GameObject interface {
	animator.Target

	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Name returns the object's display name.
	Name() string

	// Enabled returns whether this object is ticked by its scene.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the object is ticked by its scene.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Position returns the world position.
	Position() mgl64.Vec3

	// SetPosition sets the world position.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float64)

	// Rotation returns the world orientation.
	Rotation() mgl64.Quat

	// SetRotation sets the world orientation. The quaternion is normalized.
	//
	// Parameters:
	//   - q: the new orientation
	SetRotation(q mgl64.Quat)

	// Heading returns the yaw of the world orientation in degrees.
	Heading() float64

	// Scale returns the world scale.
	Scale() mgl64.Vec3

	// SetScale sets the world scale.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float64)

	// AddBone adds a bone, or replaces its transform if it exists.
	//
	// Parameters:
	//   - name: the bone name clip channels target
	//   - local: the bone's local transform
	AddBone(name string, local common.Transform)

	// BoneNames returns the bone names in sorted order.
	//
	// Returns:
	//   - []string: the names
	BoneNames() []string

	// Animator returns the attached controller, or nil.
	//
	// Returns:
	//   - animator.AnimatorController: the controller or nil
	Animator() animator.AnimatorController

	// SetAnimator binds a to this object, releasing the previous controller. Pass nil to detach.
	//
	// Parameters:
	//   - a: the controller to attach
	SetAnimator(a animator.AnimatorController)

	// FirstTick enters the attached controller's default state.
	FirstTick()

	// Update ticks the attached controller if the object is enabled.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Update(deltaTime float64)

	// Release releases the attached controller.
	Release()
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new, enabled GameObject configured with the given options.
// A controller supplied through WithAnimator is bound after every other option has been applied.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		transform: common.IdentityTransform(),
		bones:     make(map[string]*common.Transform),
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	if obj.animator != nil {
		obj.animator.Bind(obj)
	}
	return obj
}

func (g *gameObject) Root() *common.Transform {
	return &g.transform
}

func (g *gameObject) Bone(name string) *common.Transform {
	return g.bones[name]
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Position() mgl64.Vec3 {
	return g.transform.Position
}

func (g *gameObject) SetPosition(x, y, z float64) {
	g.transform.Position = mgl64.Vec3{x, y, z}
}

func (g *gameObject) Rotation() mgl64.Quat {
	return g.transform.Rotation
}

func (g *gameObject) SetRotation(q mgl64.Quat) {
	g.transform.Rotation = q.Normalize()
}

func (g *gameObject) Heading() float64 {
	return common.YawDegrees(g.transform.Rotation)
}

func (g *gameObject) Scale() mgl64.Vec3 {
	return g.transform.Scale
}

func (g *gameObject) SetScale(sx, sy, sz float64) {
	g.transform.Scale = mgl64.Vec3{sx, sy, sz}
}

func (g *gameObject) AddBone(name string, local common.Transform) {
	if b, ok := g.bones[name]; ok {
		*b = local
		return
	}
	g.bones[name] = &local
}

func (g *gameObject) BoneNames() []string {
	names := make([]string, 0, len(g.bones))
	for n := range g.bones {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (g *gameObject) Animator() animator.AnimatorController {
	return g.animator
}

func (g *gameObject) SetAnimator(a animator.AnimatorController) {
	if g.animator != nil {
		g.animator.Release()
	}
	g.animator = a
	if a != nil {
		a.Bind(g)
	}
}

func (g *gameObject) FirstTick() {
	if g.animator != nil {
		g.animator.FirstTick()
	}
}

func (g *gameObject) Update(deltaTime float64) {
	if g.animator == nil || !g.enabled.Load() {
		return
	}
	g.animator.Update(deltaTime)
}

func (g *gameObject) Release() {
	if g.animator != nil {
		g.animator.Release()
	}
}
