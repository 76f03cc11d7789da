package behaviour

import (
	"errors"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
)

type logBehaviour struct {
	prefix string
	update bool
}

func newLogBehaviour(props map[string]any) (StateBehaviour, error) {
	update, err := propBool(props, "update", false)
	if err != nil {
		return nil, err
	}
	return &logBehaviour{prefix: propString(props, "prefix", "state"), update: update}, nil
}

func (b *logBehaviour) OnStateEnter(_ Animator, info StateInfo) {
	log.Printf("[Behaviour] %s: enter %q (t=%.3f, len=%.3fs, speed=%.2f)", b.prefix, info.Name, info.NormalizedTime, info.Length, info.Speed)
}

func (b *logBehaviour) OnStateUpdate(_ Animator, info StateInfo) {
	if b.update {
		log.Printf("[Behaviour] %s: update %q (t=%.3f)", b.prefix, info.Name, info.NormalizedTime)
	}
}

func (b *logBehaviour) OnStateExit(_ Animator, info StateInfo) {
	log.Printf("[Behaviour] %s: exit %q (t=%.3f)", b.prefix, info.Name, info.NormalizedTime)
}

// setParameterBehaviour writes one parameter when its state is entered and/or exited.
type setParameterBehaviour struct {
	name    string
	kind    parameter.Kind
	value   float64
	onEnter bool
	onExit  bool
}

func newSetParameterBehaviour(props map[string]any) (StateBehaviour, error) {
	name := propString(props, "parameter", "")
	if name == "" {
		return nil, errors.New("missing property \"parameter\"")
	}
	kind, err := parameter.ParseKind(propString(props, "kind", "trigger"))
	if err != nil {
		return nil, err
	}
	value, err := propFloat(props, "value", 1)
	if err != nil {
		return nil, err
	}
	b := &setParameterBehaviour{name: name, kind: kind, value: value}
	switch on := propString(props, "on", "enter"); on {
	case "enter":
		b.onEnter = true
	case "exit":
		b.onExit = true
	case "both":
		b.onEnter, b.onExit = true, true
	default:
		return nil, fmt.Errorf("property \"on\": unknown phase %q", on)
	}
	return b, nil
}

func (b *setParameterBehaviour) OnStateEnter(a Animator, _ StateInfo) {
	if b.onEnter {
		b.apply(a)
	}
}

func (b *setParameterBehaviour) OnStateExit(a Animator, _ StateInfo) {
	if b.onExit {
		b.apply(a)
	}
}

func (b *setParameterBehaviour) apply(a Animator) {
	switch b.kind {
	case parameter.KindBool:
		a.SetBool(b.name, b.value != 0)
	case parameter.KindFloat:
		a.SetFloat(b.name, b.value)
	case parameter.KindInt:
		a.SetInteger(b.name, int64(b.value))
	case parameter.KindTrigger:
		if b.value != 0 {
			a.SetTrigger(b.name)
		} else {
			a.ResetTrigger(b.name)
		}
	}
}
