package state_machine

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
)

// Parameters is the view of a parameter store the evaluator needs.
// *parameter.Store satisfies it.
type Parameters interface {
	Lookup(id parameter.ID) (parameter.Parameter, bool)
	ResetTrigger(id parameter.ID) bool
}

// Playback describes the active state's clip at evaluation time.
type Playback struct {
	// HasClip is false when the state's motion has no playing clip instance.
	HasClip  bool
	Time     float64
	Duration float64
}

// NormalizedTime returns Time / Duration, or 1 when the duration is not positive.
func (p Playback) NormalizedTime() float64 {
	if p.Duration <= 0 {
		return 1
	}
	return p.Time / p.Duration
}

// Met evaluates the condition. Unknown parameters read as false/0.
//
// Parameters:
//   - params: the parameter source
//
// Returns:
//   - bool: true if the condition holds
func (c Condition) Met(params Parameters) bool {
	p, _ := params.Lookup(c.Parameter)
	switch c.Mode {
	case ModeIf:
		return p.Truthy()
	case ModeIfNot:
		return !p.Truthy()
	case ModeGreater:
		return p.Numeric() > c.Threshold
	case ModeLess:
		return p.Numeric() < c.Threshold
	case ModeEquals:
		return p.Numeric() == c.Threshold
	case ModeNotEqual:
		return p.Numeric() != c.Threshold
	default:
		return false
	}
}

// ConditionsMet reports whether every condition holds. An empty list holds.
func ConditionsMet(conds []Condition, params Parameters) bool {
	for _, c := range conds {
		if !c.Met(params) {
			return false
		}
	}
	return true
}

// Evaluate walks the state's transitions in declaration order and returns the first one that can be taken now.
// Every transition whose conditions match has its trigger parameters reset, including one then held back by its exit time.
//
// Parameters:
//   - s: the active state
//   - params: the parameter source; triggers are consumed through it
//   - playback: the active clip's timing
//
// Returns:
//   - *Transition: the transition to take, or nil
//   - bool: true if a transition was selected
func Evaluate(s *State, params Parameters, playback Playback) (*Transition, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Transitions {
		tr := &s.Transitions[i]
		if tr.Inert() {
			continue
		}
		if !ConditionsMet(tr.Conditions, params) {
			continue
		}
		consumeTriggers(tr.Conditions, params)

		if !playback.HasClip {
			return tr, true
		}
		if !tr.HasExitTime || playback.NormalizedTime() >= tr.ExitTime {
			return tr, true
		}
	}
	return nil, false
}

func consumeTriggers(conds []Condition, params Parameters) {
	for _, c := range conds {
		if p, ok := params.Lookup(c.Parameter); ok && p.Kind == parameter.KindTrigger {
			params.ResetTrigger(c.Parameter)
		}
	}
}
