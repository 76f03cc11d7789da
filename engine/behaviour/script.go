package behaviour

import (
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

var scriptHookPattern = regexp.MustCompile(`(?m)^\s*(onEnter|onUpdate|onExit)\s*:?=`)

// scriptBehaviour runs a tengo script that may declare onEnter, onUpdate, and onExit.
// Each hook is called as hook(animator, info, state); state is a map kept for the behaviour's lifetime.
type scriptBehaviour struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	hooks    map[string]bool
}

func newScriptBehaviour(props map[string]any) (StateBehaviour, error) {
	source := propString(props, "source", "")
	name := propString(props, "name", "inline")
	if path := propString(props, "path", ""); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read script: %w", err)
		}
		source = string(b)
		name = path
	}
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("script behaviour needs a \"source\" or \"path\" property")
	}
	return NewScriptBehaviour(name, source)
}

// NewScriptBehaviour compiles a tengo source into a behaviour.
// Only the hooks the source declares are dispatched.
//
// Parameters:
//   - name: identifies the script in log lines
//   - source: the tengo source
//
// Returns:
//   - StateBehaviour: the compiled behaviour
//   - error: the compile error, if any
func NewScriptBehaviour(name, source string) (StateBehaviour, error) {
	hooks := map[string]bool{}
	for _, m := range scriptHookPattern.FindAllStringSubmatch(source, -1) {
		hooks[m[1]] = true
	}

	var dispatch strings.Builder
	dispatch.WriteString("\n")
	for _, phase := range []struct{ phase, hook string }{{"enter", "onEnter"}, {"update", "onUpdate"}, {"exit", "onExit"}} {
		if hooks[phase.hook] {
			fmt.Fprintf(&dispatch, "if __phase == %q { %s(__animator, __info, __state) }\n", phase.phase, phase.hook)
		}
	}

	script := tengo.NewScript([]byte(source + dispatch.String()))
	_ = script.Add("__phase", "")
	_ = script.Add("__animator", map[string]any{})
	_ = script.Add("__info", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile script %s: %w", name, err)
	}
	return &scriptBehaviour{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		hooks:    hooks,
	}, nil
}

func (b *scriptBehaviour) OnStateEnter(a Animator, info StateInfo) {
	if b.hooks["onEnter"] {
		b.run("enter", a, info)
	}
}

func (b *scriptBehaviour) OnStateUpdate(a Animator, info StateInfo) {
	if b.hooks["onUpdate"] {
		b.run("update", a, info)
	}
}

func (b *scriptBehaviour) OnStateExit(a Animator, info StateInfo) {
	if b.hooks["onExit"] {
		b.run("exit", a, info)
	}
}

func (b *scriptBehaviour) run(phase string, a Animator, info StateInfo) {
	if err := b.runPhase(phase, a, info); err != nil {
		log.Printf("[Behaviour] script %s %s: %v", b.name, phase, err)
	}
}

func (b *scriptBehaviour) runPhase(phase string, a Animator, info StateInfo) error {
	if err := b.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := b.compiled.Set("__animator", buildScriptAnimator(a)); err != nil {
		return err
	}
	if err := b.compiled.Set("__info", buildScriptInfo(info)); err != nil {
		return err
	}
	if err := b.compiled.Set("__state", b.state); err != nil {
		return err
	}
	return b.compiled.Run()
}

func buildScriptInfo(info StateInfo) *tengo.ImmutableMap {
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"name":            &tengo.String{Value: info.Name},
		"layer":           &tengo.Int{Value: int64(info.Layer)},
		"normalized_time": &tengo.Float{Value: info.NormalizedTime},
		"length":          &tengo.Float{Value: info.Length},
		"speed":           &tengo.Float{Value: info.Speed},
	}}
}

func buildScriptAnimator(a Animator) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	setter := func(name string, set func(param string, v tengo.Object) bool) {
		values[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 2 {
				return nil, tengo.ErrWrongNumArguments
			}
			param, ok := tengo.ToString(args[0])
			if !ok {
				return tengo.FalseValue, nil
			}
			if !set(param, args[1]) {
				return tengo.FalseValue, nil
			}
			return tengo.TrueValue, nil
		}}
	}
	setter("set_bool", func(param string, v tengo.Object) bool {
		a.SetBool(param, !v.IsFalsy())
		return true
	})
	setter("set_float", func(param string, v tengo.Object) bool {
		f, ok := tengo.ToFloat64(v)
		if ok {
			a.SetFloat(param, f)
		}
		return ok
	})
	setter("set_integer", func(param string, v tengo.Object) bool {
		n, ok := tengo.ToInt64(v)
		if ok {
			a.SetInteger(param, n)
		}
		return ok
	})

	named := func(name string, fn func(param string) tengo.Object) {
		values[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			param, ok := tengo.ToString(args[0])
			if !ok {
				return tengo.UndefinedValue, nil
			}
			return fn(param), nil
		}}
	}
	named("set_trigger", func(param string) tengo.Object {
		a.SetTrigger(param)
		return tengo.TrueValue
	})
	named("reset_trigger", func(param string) tengo.Object {
		a.ResetTrigger(param)
		return tengo.TrueValue
	})
	named("get_bool", func(param string) tengo.Object {
		if a.GetBool(param) {
			return tengo.TrueValue
		}
		return tengo.FalseValue
	})
	named("get_float", func(param string) tengo.Object {
		return &tengo.Float{Value: a.GetFloat(param)}
	})
	named("get_integer", func(param string) tengo.Object {
		return &tengo.Int{Value: a.GetInteger(param)}
	})

	values["play"] = &tengo.UserFunction{Name: "play", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		state, ok := tengo.ToString(args[0])
		if !ok {
			return tengo.FalseValue, nil
		}
		duration := 0.0
		if len(args) == 2 {
			duration, _ = tengo.ToFloat64(args[1])
		}
		a.Play(state, 0, 0, duration)
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
