package behaviour

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"
)

// ErrUnknownBehaviour is returned when a BehaviourRef names a type that was never registered.
var ErrUnknownBehaviour = errors.New("unknown behaviour type")

// Factory constructs a behaviour from its authored properties.
type Factory func(props map[string]any) (StateBehaviour, error)

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Registry maps behaviour type names to constructors.
// A Registry is safe for concurrent use, so one registry can serve every controller in a scene.
type Registry interface {
	// Register adds or replaces the factory for name.
	//
	// Parameters:
	//   - name: the behaviour type name used in BehaviourRef.Type
	//   - f: the constructor
	Register(name string, f Factory)

	// Lookup returns the factory registered for name.
	//
	// Parameters:
	//   - name: the behaviour type name
	//
	// Returns:
	//   - Factory: the constructor, or nil
	//   - bool: true if a factory was found
	Lookup(name string) (Factory, bool)

	// New constructs a behaviour instance for ref.
	//
	// Parameters:
	//   - ref: the authored behaviour reference
	//
	// Returns:
	//   - StateBehaviour: the new instance
	//   - error: ErrUnknownBehaviour, or the factory's error wrapped with the type name
	New(ref state_machine.BehaviourRef) (StateBehaviour, error)

	// Names returns the registered type names in sorted order.
	//
	// Returns:
	//   - []string: the names
	Names() []string
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry.
//
// Returns:
//   - Registry: the new registry
func NewRegistry() Registry {
	return &registry{factories: make(map[string]Factory)}
}

// DefaultRegistry creates a Registry pre-populated with the built-in behaviours: "log", "set_parameter", and "script".
//
// Returns:
//   - Registry: the new registry
func DefaultRegistry() Registry {
	r := NewRegistry()
	r.Register("log", newLogBehaviour)
	r.Register("set_parameter", newSetParameterBehaviour)
	r.Register("script", newScriptBehaviour)
	return r
}

func (r *registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

func (r *registry) New(ref state_machine.BehaviourRef) (StateBehaviour, error) {
	f, ok := r.Lookup(ref.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBehaviour, ref.Type)
	}
	b, err := f(ref.Properties)
	if err != nil {
		return nil, fmt.Errorf("behaviour %q: %w", ref.Type, err)
	}
	return b, nil
}

func (r *registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Instantiate builds the behaviour Set for a state. References that fail to construct are logged and skipped.
//
// Parameters:
//   - r: the registry to construct from
//   - stateName: the owning state's name, used in log lines
//   - refs: the state's behaviour references
//
// Returns:
//   - *Set: the constructed behaviours
func Instantiate(r Registry, stateName string, refs []state_machine.BehaviourRef) *Set {
	set := &Set{}
	if r == nil {
		if len(refs) > 0 {
			log.Printf("[Behaviour] state %q: no registry, %d behaviours skipped", stateName, len(refs))
		}
		return set
	}
	for _, ref := range refs {
		b, err := r.New(ref)
		if err != nil {
			log.Printf("[Behaviour] state %q: %v", stateName, err)
			continue
		}
		set.Add(b)
	}
	return set
}
