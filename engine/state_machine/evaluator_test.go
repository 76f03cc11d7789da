package state_machine

import (
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
)

func newParams() *parameter.Store {
	return parameter.NewStore(
		parameter.New("grounded", parameter.KindBool),
		parameter.New("speed", parameter.KindFloat),
		parameter.New("combo", parameter.KindInt),
		parameter.New("jump", parameter.KindTrigger),
	)
}

func cond(name string, mode ConditionMode, threshold float64) Condition {
	return Condition{Parameter: parameter.Hash(name), ParameterName: name, Mode: mode, Threshold: threshold}
}

func to(name string) Transition {
	return Transition{Destination: common.StringToHash(name), DestinationName: name}
}

func playing(time, duration float64) Playback {
	return Playback{HasClip: true, Time: time, Duration: duration}
}

func TestConditionModes(t *testing.T) {
	params := newParams()
	params.SetBool(parameter.Hash("grounded"), true)
	params.SetFloat(parameter.Hash("speed"), 2.5)
	params.SetInt(parameter.Hash("combo"), 3)

	tests := []struct {
		name string
		c    Condition
		want bool
	}{
		{"if true", cond("grounded", ModeIf, 0), true},
		{"if not true", cond("grounded", ModeIfNot, 0), false},
		{"greater strict pass", cond("speed", ModeGreater, 2), true},
		{"greater strict equal", cond("speed", ModeGreater, 2.5), false},
		{"less strict pass", cond("speed", ModeLess, 3), true},
		{"less strict equal", cond("speed", ModeLess, 2.5), false},
		{"int equals", cond("combo", ModeEquals, 3), true},
		{"int not equal", cond("combo", ModeNotEqual, 3), false},
		{"int not equal other", cond("combo", ModeNotEqual, 1), true},
		{"unknown reads false", cond("missing", ModeIf, 0), false},
		{"unknown reads zero", cond("missing", ModeEquals, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Met(params); got != tt.want {
				t.Errorf("Met() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInertTransitionsNeverTaken(t *testing.T) {
	params := newParams()
	s := &State{Name: "idle", Transitions: []Transition{to("walk"), to("run")}}
	rng := rand.New(rand.NewSource(7))

	for tick := 0; tick < 500; tick++ {
		params.SetBool(parameter.Hash("grounded"), rng.Intn(2) == 0)
		params.SetFloat(parameter.Hash("speed"), rng.Float64()*10)
		if rng.Intn(3) == 0 {
			params.SetTrigger(parameter.Hash("jump"))
		}
		pb := Playback{HasClip: rng.Intn(2) == 0, Time: rng.Float64() * 4, Duration: 2}
		if tr, ok := Evaluate(s, params, pb); ok {
			t.Fatalf("tick %d: inert transition to %q taken", tick, tr.DestinationName)
		}
	}
}

func TestFirstMatchWins(t *testing.T) {
	params := newParams()
	params.SetFloat(parameter.Hash("speed"), 5)

	t1 := to("walk")
	t1.Conditions = []Condition{cond("speed", ModeGreater, 1)}
	t2 := to("run")
	t2.Conditions = []Condition{cond("speed", ModeGreater, 4)}
	s := &State{Name: "idle", Transitions: []Transition{t1, t2}}

	tr, ok := Evaluate(s, params, playing(0.5, 2))
	if !ok {
		t.Fatal("expected a transition")
	}
	if tr.DestinationName != "walk" {
		t.Fatalf("took %q, want walk", tr.DestinationName)
	}
}

func TestInertTransitionSkippedBeforeMatch(t *testing.T) {
	params := newParams()
	params.SetBool(parameter.Hash("grounded"), true)

	t2 := to("land")
	t2.Conditions = []Condition{cond("grounded", ModeIf, 0)}
	s := &State{Name: "fall", Transitions: []Transition{to("never"), t2}}

	tr, ok := Evaluate(s, params, playing(0, 1))
	if !ok || tr.DestinationName != "land" {
		t.Fatalf("Evaluate = %v, %v; want land", tr, ok)
	}
}

func TestExitTimeGating(t *testing.T) {
	params := newParams()
	params.SetBool(parameter.Hash("grounded"), true)

	tr := to("next")
	tr.HasExitTime = true
	tr.ExitTime = 0.5
	tr.Conditions = []Condition{cond("grounded", ModeIf, 0)}
	s := &State{Name: "long", Transitions: []Transition{tr}}

	for _, at := range []float64{0, 1, 2.5, 4.9, 4.999} {
		if _, ok := Evaluate(s, params, playing(at, 10)); ok {
			t.Fatalf("taken at %vs of a 10s clip", at)
		}
	}
	for _, at := range []float64{5, 5.1, 9.9, 10} {
		if _, ok := Evaluate(s, params, playing(at, 10)); !ok {
			t.Fatalf("not taken at %vs of a 10s clip", at)
		}
	}
}

func TestExitTimeOnlyTransition(t *testing.T) {
	tr := to("next")
	tr.HasExitTime = true
	tr.ExitTime = 1
	s := &State{Name: "once", Transitions: []Transition{tr}}

	if _, ok := Evaluate(s, newParams(), playing(1.5, 2)); ok {
		t.Fatal("taken before the clip finished")
	}
	if _, ok := Evaluate(s, newParams(), playing(2, 2)); !ok {
		t.Fatal("not taken at the end of the clip")
	}
}

func TestNoClipBypassesExitTime(t *testing.T) {
	tr := to("next")
	tr.HasExitTime = true
	tr.ExitTime = 0.9
	s := &State{Name: "empty", Transitions: []Transition{tr}}

	if _, ok := Evaluate(s, newParams(), Playback{}); !ok {
		t.Fatal("a state without a clip should take its transition immediately")
	}
}

func TestNonPositiveDurationIsNormalizedOne(t *testing.T) {
	if got := (Playback{HasClip: true, Time: 0, Duration: 0}).NormalizedTime(); got != 1 {
		t.Fatalf("NormalizedTime = %v, want 1", got)
	}
	if got := (Playback{HasClip: true, Time: 3, Duration: -2}).NormalizedTime(); got != 1 {
		t.Fatalf("NormalizedTime = %v, want 1", got)
	}
}

func TestTriggerConsumedEvenWhenExitTimeBlocks(t *testing.T) {
	params := newParams()
	jump := parameter.Hash("jump")
	params.SetTrigger(jump)

	tr := to("jump")
	tr.HasExitTime = true
	tr.ExitTime = 0.8
	tr.Conditions = []Condition{cond("jump", ModeIf, 0)}
	s := &State{Name: "run", Transitions: []Transition{tr}}

	if _, ok := Evaluate(s, params, playing(0.2, 1)); ok {
		t.Fatal("transition should be held back by exit time")
	}
	if params.Bool(jump) {
		t.Fatal("trigger should be consumed by the matched transition")
	}
}

func TestTriggerConsumedWhenTaken(t *testing.T) {
	params := newParams()
	jump := parameter.Hash("jump")
	params.SetTrigger(jump)

	tr := to("jump")
	tr.Conditions = []Condition{cond("jump", ModeIf, 0)}
	s := &State{Name: "run", Transitions: []Transition{tr}}

	if _, ok := Evaluate(s, params, playing(0.2, 1)); !ok {
		t.Fatal("expected the trigger transition to be taken")
	}
	if params.Bool(jump) {
		t.Fatal("trigger still set after being consumed")
	}
	if _, ok := Evaluate(s, params, playing(0.3, 1)); ok {
		t.Fatal("a consumed trigger must not fire twice")
	}
}

func TestUnmatchedTransitionKeepsTrigger(t *testing.T) {
	params := newParams()
	jump := parameter.Hash("jump")
	params.SetTrigger(jump)

	tr := to("jump")
	tr.Conditions = []Condition{cond("jump", ModeIf, 0), cond("grounded", ModeIf, 0)}
	s := &State{Name: "fall", Transitions: []Transition{tr}}

	if _, ok := Evaluate(s, params, playing(0, 1)); ok {
		t.Fatal("transition should not match while not grounded")
	}
	if !params.Bool(jump) {
		t.Fatal("trigger consumed by a transition whose conditions failed")
	}
}
