package state_machine

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
)

// ConditionMode selects how a Condition compares its parameter against the threshold.
type ConditionMode int

const (
	ModeIf ConditionMode = iota
	ModeIfNot
	ModeGreater
	ModeLess
	ModeEquals
	ModeNotEqual
)

func (m ConditionMode) String() string {
	switch m {
	case ModeIf:
		return "if"
	case ModeIfNot:
		return "if_not"
	case ModeGreater:
		return "greater"
	case ModeLess:
		return "less"
	case ModeEquals:
		return "equals"
	case ModeNotEqual:
		return "not_equal"
	default:
		return fmt.Sprintf("ConditionMode(%d)", int(m))
	}
}

// ParseConditionMode converts an authoring string into a ConditionMode.
//
// Parameters:
//   - s: the mode name, case insensitive ("if", "if_not", "greater", "less", "equals", "not_equal")
//
// Returns:
//   - ConditionMode: the parsed mode
//   - error: error if the name is not recognised
func ParseConditionMode(s string) (ConditionMode, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "if", "true":
		return ModeIf, nil
	case "if_not", "ifnot", "false":
		return ModeIfNot, nil
	case "greater", ">":
		return ModeGreater, nil
	case "less", "<":
		return ModeLess, nil
	case "equals", "==":
		return ModeEquals, nil
	case "not_equal", "notequal", "!=":
		return ModeNotEqual, nil
	default:
		return 0, fmt.Errorf("unknown condition mode %q", s)
	}
}

// Condition guards a Transition on a single parameter.
type Condition struct {
	// Parameter is the canonical key of the tested parameter.
	Parameter parameter.ID

	// ParameterName is the authoring name; Resolve derives Parameter from it when set.
	ParameterName string

	Mode      ConditionMode
	Threshold float64
}

// Transition describes an edge out of a State.
type Transition struct {
	// Destination is the hash of the target state within the same state machine.
	Destination int32

	// DestinationName is the authoring name; Resolve derives Destination from it when set.
	DestinationName string

	// ToDefault sends the transition to the layer's default state; Destination is ignored.
	ToDefault bool

	// HasExitTime gates the transition on the active clip's normalized time reaching ExitTime.
	HasExitTime bool
	ExitTime    float64

	// Duration is the cross-fade length in seconds.
	Duration float64

	// Offset is the normalized start time of the destination clip.
	Offset float64

	Conditions []Condition
}

// Inert reports whether the transition can never be taken (no exit time and no conditions).
func (t *Transition) Inert() bool {
	return !t.HasExitTime && len(t.Conditions) == 0
}

// Motion binds a state to a clip. A Motion without a clip is a valid empty motion.
type Motion struct {
	Clip    *model.AnimationClip
	Looping bool
}

// Duration returns the clip length, or 0 for an empty motion.
func (m Motion) Duration() float64 {
	if m.Clip == nil {
		return 0
	}
	return m.Clip.Duration
}

// BehaviourRef names a state behaviour type and its construction properties.
type BehaviourRef struct {
	Type       string
	Properties map[string]any
}

// State is a node of a StateMachine.
type State struct {
	Name string

	// Hash identifies the state and is derived from Name when left zero.
	Hash int32

	Motion      Motion
	Transitions []Transition
	Behaviours  []BehaviourRef
}

// Layer holds one state machine. Only layer 0 drives playback.
type Layer struct {
	Name         string
	Weight       float64
	StateMachine *StateMachine
}

// ControllerModel is the complete parameter and state graph owned by one controller.
type ControllerModel struct {
	Name       string
	Parameters []parameter.Parameter
	Layers     []*Layer

	resolved bool
}
