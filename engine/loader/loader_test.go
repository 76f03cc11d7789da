package loader

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/behaviour"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"
)

const locomotionYAML = `
name: locomotion
parameters:
  - { name: speed, type: float, default: 0.5 }
  - { name: grounded, type: bool, default: true }
  - { name: jump, type: trigger }
  - { name: combo, type: int, default: 3 }
clips:
  - name: idle
    channels:
      - target: hips
        interpolation: step
        position:
          - { time: 0, value: [0, 1, 0] }
          - { time: 1, value: [0, 1.1, 0] }
  - name: walk
    duration: 2
    channels:
      - target: root
        position:
          - { time: 0, value: [0, 0, 0] }
          - { time: 2, value: [0, 0, -2] }
        rotation:
          - { time: 0, value: [0, 90, 0] }
          - { time: 2, value: [0, 0, 0, 1] }
layers:
  - name: base
    default_state: walk
    states:
      - name: idle
        clip: idle
        loop: true
        transitions:
          - to: walk
            duration: 0.25
            conditions:
              - { parameter: speed, mode: greater, threshold: 0.1 }
      - name: walk
        clip: walk
        loop: true
        behaviours:
          - type: script
            properties: { path: scripts/walk.tengo }
          - type: log
            properties: { prefix: walk }
        transitions:
          - to: idle
            exit_time: 0.9
            duration: 0.2
            offset: 0.1
            conditions:
              - { parameter: speed, mode: less, threshold: 0.1 }
      - name: jump
        transitions:
          - to: idle
            conditions:
              - { parameter: jump, mode: if }
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func findParam(m *state_machine.ControllerModel, name string) (parameter.Parameter, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return parameter.Parameter{}, false
}

func TestLoadDefinition(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "locomotion.yaml", locomotionYAML)

	m, err := NewLoader(BackendTypeYAML).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "locomotion" || !m.Resolved() {
		t.Fatalf("model %q resolved=%v", m.Name, m.Resolved())
	}

	t.Run("parameters", func(t *testing.T) {
		if len(m.Parameters) != 4 {
			t.Fatalf("len(Parameters) = %d, want 4", len(m.Parameters))
		}
		if p, _ := findParam(m, "speed"); p.Kind != parameter.KindFloat || p.Float != 0.5 {
			t.Errorf("speed = %+v", p)
		}
		if p, _ := findParam(m, "grounded"); p.Kind != parameter.KindBool || !p.Bool {
			t.Errorf("grounded = %+v", p)
		}
		if p, _ := findParam(m, "jump"); p.Kind != parameter.KindTrigger || p.Bool {
			t.Errorf("jump = %+v", p)
		}
		if p, _ := findParam(m, "combo"); p.Kind != parameter.KindInt || p.Int != 3 {
			t.Errorf("combo = %+v", p)
		}
		if p, _ := findParam(m, "speed"); p.ID != parameter.Hash("speed") {
			t.Errorf("speed ID = %d, want %d", p.ID, parameter.Hash("speed"))
		}
	})

	sm := m.BaseStateMachine()

	t.Run("states", func(t *testing.T) {
		if len(m.Layers) != 1 || m.Layers[0].Name != "base" || m.Layers[0].Weight != 1 {
			t.Fatalf("layers = %+v", m.Layers)
		}
		if got := sm.DefaultState(); got == nil || got.Name != "walk" {
			t.Fatalf("DefaultState = %v, want walk", got)
		}
		if jump := sm.StateByName("jump"); jump == nil || jump.Motion.Clip != nil {
			t.Fatalf("jump should be an empty motion, got %+v", jump)
		}
	})

	t.Run("clips", func(t *testing.T) {
		idle := sm.StateByName("idle").Motion
		if !idle.Looping || idle.Clip.Duration != 1 {
			t.Fatalf("idle motion = %+v, want looping with keyframe duration 1", idle)
		}
		if idle.Clip.Channel("hips").Interpolation != model.InterpolationStep {
			t.Error("hips channel should use step interpolation")
		}
		walk := sm.StateByName("walk").Motion.Clip
		if walk.Duration != 2 {
			t.Fatalf("walk duration = %v, want 2", walk.Duration)
		}
		q := walk.Channel("root").RotationKeys[0].Value
		half := math.Sqrt(0.5)
		if math.Abs(q.W-half) > 1e-9 || math.Abs(q.V[1]-half) > 1e-9 {
			t.Errorf("euler key = %v, want 90 degrees about Y", q)
		}
	})

	t.Run("transitions", func(t *testing.T) {
		tr := sm.StateByName("walk").Transitions[0]
		if !tr.HasExitTime || tr.ExitTime != 0.9 || tr.Duration != 0.2 || tr.Offset != 0.1 {
			t.Fatalf("walk->idle = %+v", tr)
		}
		if tr.Destination != sm.StateByName("idle").Hash {
			t.Error("destination not resolved to idle")
		}
		if c := tr.Conditions[0]; c.Parameter != parameter.Hash("speed") || c.Mode != state_machine.ModeLess {
			t.Errorf("condition = %+v", c)
		}
		if sm.StateByName("idle").Transitions[0].HasExitTime {
			t.Error("transition without exit_time should not gate on exit time")
		}
	})

	t.Run("behaviours", func(t *testing.T) {
		refs := sm.StateByName("walk").Behaviours
		if len(refs) != 2 || refs[0].Type != "script" || refs[1].Type != "log" {
			t.Fatalf("behaviours = %+v", refs)
		}
		if got, want := refs[0].Properties["path"], filepath.Join(dir, "scripts", "walk.tengo"); got != want {
			t.Errorf("script path = %v, want %v", got, want)
		}
		if refs[1].Properties["prefix"] != "walk" {
			t.Errorf("log prefix = %v", refs[1].Properties["prefix"])
		}
	})
}

func TestLoadCachesAndClones(t *testing.T) {
	path := writeFile(t, t.TempDir(), "locomotion.yml", locomotionYAML)
	l := NewLoader(BackendTypeYAML)

	a, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a.Parameters[0].Float = 42
	a.BaseStateMachine().StateByName("idle").Transitions[0].Duration = 9

	// the cached template is served on the second load, even after the file is gone
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	b, err := l.Load(path)
	if err != nil {
		t.Fatalf("cached Load: %v", err)
	}
	if a == b {
		t.Fatal("Load should hand out independent models")
	}
	if b.Parameters[0].Float != 0.5 || b.BaseStateMachine().StateByName("idle").Transitions[0].Duration != 0.25 {
		t.Fatal("mutating one loaded model leaked into the cache")
	}

	if keys := l.Keys(); len(keys) != 1 || keys[0] != path {
		t.Fatalf("Keys = %v", keys)
	}
	if l.Get(path) == nil || len(l.Models()) != 1 {
		t.Fatal("Get/Models should expose the cached model")
	}
	l.Invalidate(path)
	if l.Get(path) != nil {
		t.Fatal("Invalidate should drop the entry")
	}
	if _, err := l.Load(path); err == nil {
		t.Fatal("Load after Invalidate should read the (missing) file again")
	}
}

func TestLoadReaderShorthand(t *testing.T) {
	src := `
default_state: b
states:
  - name: a
  - name: b
    transitions:
      - to: a
        exit_time: 1
`
	l := NewLoader(BackendTypeYAML)
	m, err := l.LoadReader("inline", strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if m.Name != "inline" {
		t.Errorf("Name = %q, want the cache key as fallback", m.Name)
	}
	if len(m.Layers) != 1 || m.Layers[0].Name != baseLayerName {
		t.Fatalf("layers = %+v", m.Layers)
	}
	if got := m.BaseStateMachine().DefaultState().Name; got != "b" {
		t.Errorf("DefaultState = %q, want b", got)
	}
	if l.Get("inline") == nil {
		t.Error("LoadReader should cache by name")
	}
}

func TestLoadDefaultDestination(t *testing.T) {
	src := `
states:
  - name: idle
    transitions:
      - to: wave
        exit_time: 1
  - name: wave
    transitions:
      - to: -1
        exit_time: 1
`
	m, err := NewLoader(BackendTypeYAML).LoadReader("exit", strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	sm := m.BaseStateMachine()
	if tr := sm.StateByName("wave").Transitions[0]; !tr.ToDefault || tr.DestinationName != "" {
		t.Fatalf("wave transition = %+v, want a default-state destination", tr)
	}
	if sm.StateByName("idle").Transitions[0].ToDefault {
		t.Fatal("named destination marked as default")
	}
}

func TestInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ``},
		{"unknown field", "states: [{name: a}]\nbogus: 1\n"},
		{"no layers", "name: x\n"},
		{"bad kind", "parameters: [{name: p, type: string}]\nstates: [{name: a}]\n"},
		{"bad bool default", "parameters: [{name: p, type: bool, default: 1}]\nstates: [{name: a}]\n"},
		{"fractional int default", "parameters: [{name: p, type: int, default: 1.5}]\nstates: [{name: a}]\n"},
		{"unnamed parameter", "parameters: [{type: bool}]\nstates: [{name: a}]\n"},
		{"unknown clip", "states: [{name: a, clip: nope}]\n"},
		{"duplicate clip", "clips: [{name: c}, {name: c}]\nstates: [{name: a}]\n"},
		{"duplicate state", "states: [{name: a}, {name: a}]\n"},
		{"unknown default state", "default_state: z\nstates: [{name: a}]\n"},
		{"states and layers", "states: [{name: a}]\nlayers: [{name: l, states: [{name: b}]}]\n"},
		{"empty layer", "layers: [{name: l}]\n"},
		{"unknown destination", "states: [{name: a, transitions: [{to: z, exit_time: 1}]}]\n"},
		{"missing destination", "states: [{name: a, transitions: [{exit_time: 1}]}]\n"},
		{"unknown parameter", "states: [{name: a, transitions: [{to: a, conditions: [{parameter: p, mode: if}]}]}]\n"},
		{"unknown mode", "parameters: [{name: p, type: bool}]\nstates: [{name: a, transitions: [{to: a, conditions: [{parameter: p, mode: maybe}]}]}]\n"},
		{"behaviour without type", "states: [{name: a, behaviours: [{properties: {x: 1}}]}]\n"},
		{"bad interpolation", "clips: [{name: c, channels: [{target: b, interpolation: cubic}]}]\nstates: [{name: a}]\n"},
		{"short position", "clips: [{name: c, channels: [{target: b, position: [{time: 0, value: [1, 2]}]}]}]\nstates: [{name: a}]\n"},
		{"zero quaternion", "clips: [{name: c, channels: [{target: b, rotation: [{time: 0, value: [0, 0, 0, 0]}]}]}]\nstates: [{name: a}]\n"},
		{"keys out of order", "clips: [{name: c, channels: [{target: b, position: [{time: 1, value: [0, 0, 0]}, {time: 0, value: [0, 0, 0]}]}]}]\nstates: [{name: a}]\n"},
		{"negative duration", "clips: [{name: c, duration: -1}]\nstates: [{name: a}]\n"},
		{"channel without target", "clips: [{name: c, channels: [{position: [{time: 0, value: [0, 0, 0]}]}]}]\nstates: [{name: a}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(BackendTypeYAML).LoadReader(tt.name, strings.NewReader(tt.src))
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("err = %v, want ErrInvalidDefinition", err)
			}
		})
	}
}

func TestResolveErrorsKeepModelSentinel(t *testing.T) {
	_, err := NewLoader(BackendTypeYAML).LoadReader("x", strings.NewReader("states: [{name: a, transitions: [{to: z, exit_time: 1}]}]\n"))
	if !errors.Is(err, state_machine.ErrInvalidModel) {
		t.Fatalf("err = %v, want it to wrap ErrInvalidModel too", err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "controller.json", "{}")
	if _, err := NewLoader(BackendTypeYAML).Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReloadKeepsLastGoodModel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.yaml", "name: first\nstates: [{name: a}]\n")
	l := NewLoader(BackendTypeYAML)
	if _, err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	writeFile(t, dir, "c.yaml", "states: [{name: a, clip: missing}]\n")
	if _, err := l.Reload(path); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("Reload of broken file: err = %v", err)
	}
	if got := l.Get(path).Name; got != "first" {
		t.Fatalf("cache = %q after failed reload, want first", got)
	}

	writeFile(t, dir, "c.yaml", "name: second\nstates: [{name: a}, {name: b}]\n")
	m, err := l.Reload(path)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if m.Name != "second" || l.Get(path).Name != "second" {
		t.Fatalf("reloaded model = %q, cache = %q", m.Name, l.Get(path).Name)
	}
}

func TestWithModel(t *testing.T) {
	unresolved := &state_machine.ControllerModel{
		Name:   "prebuilt",
		Layers: []*state_machine.Layer{{Name: "base", Weight: 1, StateMachine: state_machine.NewStateMachine(&state_machine.State{Name: "a"})}},
	}
	broken := &state_machine.ControllerModel{Name: "broken"}

	l := NewLoader(BackendTypeYAML, WithModel("ok", unresolved), WithModel("bad", broken), WithModel("nil", nil))
	if got := l.Keys(); len(got) != 1 || got[0] != "ok" {
		t.Fatalf("Keys = %v, want [ok]", got)
	}
	if !l.Get("ok").Resolved() {
		t.Fatal("WithModel should resolve the model")
	}
}

func TestShippedDefinitionLoads(t *testing.T) {
	m, err := NewLoader(BackendTypeYAML).Load(filepath.Join("..", "..", "examples", "assets", "locomotion.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sm := m.BaseStateMachine()
	if got := sm.DefaultState().Name; got != "idle" {
		t.Fatalf("DefaultState = %q, want idle", got)
	}
	for _, name := range []string{"idle", "walk", "run", "jump", "wave"} {
		s := sm.StateByName(name)
		if s == nil || s.Motion.Clip == nil {
			t.Fatalf("state %q missing or without a clip", name)
		}
		if set := behaviour.Instantiate(behaviour.DefaultRegistry(), name, s.Behaviours); set.Len() != len(s.Behaviours) {
			t.Errorf("state %q: %d of %d behaviours instantiated", name, set.Len(), len(s.Behaviours))
		}
	}
}
