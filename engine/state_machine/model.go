package state_machine

import (
	"errors"
	"fmt"
	"log"
	"maps"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
)

// ErrInvalidModel is wrapped by every error returned from Resolve.
var ErrInvalidModel = errors.New("invalid controller model")

// Resolve turns authoring names into hashes and checks that every transition
// refers to a state that exists. A resolved model can be cloned.
// Conditions on undeclared parameters are logged and kept; they read the parameter's zero value.
//
// Returns:
//   - error: an error wrapping ErrInvalidModel describing the first problem found
func (m *ControllerModel) Resolve() error {
	if len(m.Layers) == 0 {
		return fmt.Errorf("%w: controller %q has no layers", ErrInvalidModel, m.Name)
	}

	known := make(map[parameter.ID]parameter.Kind, len(m.Parameters))
	for i := range m.Parameters {
		p := &m.Parameters[i]
		if p.ID == 0 {
			p.ID = parameter.Hash(p.Name)
		}
		known[p.ID] = p.Kind
	}

	for li, layer := range m.Layers {
		if layer.StateMachine == nil {
			return fmt.Errorf("%w: layer %d has no state machine", ErrInvalidModel, li)
		}
		sm := layer.StateMachine
		sm.Reindex()
		for _, s := range sm.States {
			for ti := range s.Transitions {
				tr := &s.Transitions[ti]
				if !tr.ToDefault {
					if tr.DestinationName != "" {
						tr.Destination = common.StringToHash(tr.DestinationName)
					}
					if sm.StateByHash(tr.Destination) == nil {
						return fmt.Errorf("%w: state %q transition %d: unknown destination %q", ErrInvalidModel, s.Name, ti, tr.DestinationName)
					}
				}
				for ci := range tr.Conditions {
					c := &tr.Conditions[ci]
					if c.ParameterName != "" {
						c.Parameter = parameter.Hash(c.ParameterName)
					}
					if _, ok := known[c.Parameter]; !ok {
						log.Printf("[StateMachine] %s: state %q transition %d: unknown parameter %q", m.Name, s.Name, ti, c.ParameterName)
					}
				}
			}
		}
	}

	m.resolved = true
	return nil
}

// Resolved reports whether Resolve has succeeded on this model.
func (m *ControllerModel) Resolved() bool {
	return m != nil && m.resolved
}

// BaseStateMachine returns layer 0's state machine, or nil.
func (m *ControllerModel) BaseStateMachine() *StateMachine {
	if m == nil || len(m.Layers) == 0 {
		return nil
	}
	return m.Layers[0].StateMachine
}

// Clone deep-copies the parameter and state graph. Clips are immutable and shared.
//
// Returns:
//   - *ControllerModel: the copy, carrying the same resolved flag
func (m *ControllerModel) Clone() *ControllerModel {
	if m == nil {
		return nil
	}
	out := &ControllerModel{
		Name:       m.Name,
		Parameters: append([]parameter.Parameter(nil), m.Parameters...),
		Layers:     make([]*Layer, len(m.Layers)),
		resolved:   m.resolved,
	}
	for i, layer := range m.Layers {
		out.Layers[i] = &Layer{
			Name:         layer.Name,
			Weight:       layer.Weight,
			StateMachine: layer.StateMachine.clone(),
		}
	}
	return out
}

func (sm *StateMachine) clone() *StateMachine {
	if sm == nil {
		return nil
	}
	states := make([]*State, len(sm.States))
	for i, s := range sm.States {
		states[i] = s.clone()
	}
	out := &StateMachine{States: states, DefaultStateIndex: sm.DefaultStateIndex}
	out.Reindex()
	return out
}

func (s *State) clone() *State {
	out := &State{
		Name:        s.Name,
		Hash:        s.Hash,
		Motion:      s.Motion,
		Transitions: make([]Transition, len(s.Transitions)),
		Behaviours:  make([]BehaviourRef, len(s.Behaviours)),
	}
	for i, tr := range s.Transitions {
		tr.Conditions = append([]Condition(nil), tr.Conditions...)
		out.Transitions[i] = tr
	}
	for i, b := range s.Behaviours {
		out.Behaviours[i] = BehaviourRef{Type: b.Type, Properties: maps.Clone(b.Properties)}
	}
	return out
}
