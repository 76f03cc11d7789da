package state_machine

import (
	"log"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// StateMachine is an ordered set of states with an optional default.
type StateMachine struct {
	States []*State

	// DefaultStateIndex is the entry state, or -1 when unset.
	DefaultStateIndex int

	byHash map[int32]int
	byName map[string]int
}

// NewStateMachine creates a StateMachine from states with no default state set.
// State hashes are derived from names where missing.
//
// Parameters:
//   - states: the states in declaration order
//
// Returns:
//   - *StateMachine: the new state machine
func NewStateMachine(states ...*State) *StateMachine {
	sm := &StateMachine{States: states, DefaultStateIndex: -1}
	sm.Reindex()
	return sm
}

// Reindex rebuilds the hash and name lookup tables. Call after mutating States directly.
func (sm *StateMachine) Reindex() {
	sm.byHash = make(map[int32]int, len(sm.States))
	sm.byName = make(map[string]int, len(sm.States))
	for i, s := range sm.States {
		if s.Hash == 0 {
			s.Hash = common.StringToHash(s.Name)
		}
		if _, dup := sm.byHash[s.Hash]; dup {
			log.Printf("[StateMachine] duplicate state %q, keeping the first", s.Name)
			continue
		}
		sm.byHash[s.Hash] = i
		sm.byName[s.Name] = i
	}
}

// StateByHash returns the state with the given hash, or nil.
func (sm *StateMachine) StateByHash(hash int32) *State {
	if i, ok := sm.byHash[hash]; ok {
		return sm.States[i]
	}
	return nil
}

// StateByName returns the state with the given name, or nil.
func (sm *StateMachine) StateByName(name string) *State {
	if i, ok := sm.byName[name]; ok {
		return sm.States[i]
	}
	return nil
}

// StateAt returns the state at index i, or nil when i is out of range.
func (sm *StateMachine) StateAt(i int) *State {
	if i < 0 || i >= len(sm.States) {
		return nil
	}
	return sm.States[i]
}

// IndexOf returns the declaration index of s, or -1.
func (sm *StateMachine) IndexOf(s *State) int {
	if s == nil {
		return -1
	}
	if i, ok := sm.byHash[s.Hash]; ok && sm.States[i] == s {
		return i
	}
	return -1
}

// DefaultState returns the entry state. An unset or out-of-range default is replaced by index 0.
//
// Returns:
//   - *State: the default state, or nil if the machine has no states
func (sm *StateMachine) DefaultState() *State {
	if len(sm.States) == 0 {
		log.Printf("[StateMachine] no states, cannot resolve a default state")
		return nil
	}
	if sm.DefaultStateIndex < 0 || sm.DefaultStateIndex >= len(sm.States) {
		log.Printf("[StateMachine] default state unset, using %q", sm.States[0].Name)
		sm.DefaultStateIndex = 0
	}
	return sm.States[sm.DefaultStateIndex]
}
