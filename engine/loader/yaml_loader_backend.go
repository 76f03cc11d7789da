package loader

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// baseLayerName names the layer built from the top-level states shorthand.
const baseLayerName = "Base Layer"

// defaultDestination as a transition's `to` targets the layer's default state.
const defaultDestination = "-1"

// yamlLoaderBackend is the implementation of loaderBackend for YAML definitions.
type yamlLoaderBackend struct{}

var _ loaderBackend = &yamlLoaderBackend{}

func newYAMLLoaderBackend() loaderBackend {
	return &yamlLoaderBackend{}
}

func (b *yamlLoaderBackend) Load(path string) (*state_machine.ControllerModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return b.LoadReader(f, name, filepath.Dir(path))
}

func (b *yamlLoaderBackend) LoadReader(r io.Reader, name, baseDir string) (*state_machine.ControllerModel, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty definition", ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return buildModel(&def, name, baseDir)
}

// buildModel converts a decoded Definition into a resolved ControllerModel.
//
// Parameters:
//   - def: the decoded definition
//   - name: the fallback controller name
//   - baseDir: the directory relative script paths are resolved against
//
// Returns:
//   - *state_machine.ControllerModel: the resolved model
//   - error: an error wrapping ErrInvalidDefinition describing the first problem found
func buildModel(def *Definition, name, baseDir string) (*state_machine.ControllerModel, error) {
	m := &state_machine.ControllerModel{Name: common.Coalesce(def.Name, name)}

	for i, pd := range def.Parameters {
		p, err := buildParameter(pd)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %d: %w", ErrInvalidDefinition, i, err)
		}
		m.Parameters = append(m.Parameters, p)
	}

	clips := make(map[string]*model.AnimationClip, len(def.Clips))
	for i, cd := range def.Clips {
		if cd.Name == "" {
			return nil, fmt.Errorf("%w: clip %d has no name", ErrInvalidDefinition, i)
		}
		if _, dup := clips[cd.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate clip %q", ErrInvalidDefinition, cd.Name)
		}
		c, err := buildClip(cd)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
		}
		clips[cd.Name] = c
	}

	layers := def.Layers
	if len(def.States) > 0 {
		if len(layers) > 0 {
			return nil, fmt.Errorf("%w: top-level states cannot be combined with layers", ErrInvalidDefinition)
		}
		layers = []LayerDefinition{{Name: baseLayerName, DefaultState: def.DefaultState, States: def.States}}
	}

	for li, ld := range layers {
		layer, err := buildLayer(ld, clips, baseDir)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrInvalidDefinition, li, err)
		}
		m.Layers = append(m.Layers, layer)
	}

	if err := checkConditionParameters(m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if err := m.Resolve(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return m, nil
}

// checkConditionParameters rejects conditions on parameters the definition does not declare.
// Resolve tolerates them at runtime; a definition file is held to the stricter rule.
func checkConditionParameters(m *state_machine.ControllerModel) error {
	declared := make(map[string]bool, len(m.Parameters))
	for _, p := range m.Parameters {
		declared[p.Name] = true
	}
	for _, layer := range m.Layers {
		for _, s := range layer.StateMachine.States {
			for ti, tr := range s.Transitions {
				for _, c := range tr.Conditions {
					if !declared[c.ParameterName] {
						return fmt.Errorf("state %q transition %d: unknown parameter %q", s.Name, ti, c.ParameterName)
					}
				}
			}
		}
	}
	return nil
}

func buildParameter(pd ParameterDefinition) (parameter.Parameter, error) {
	if pd.Name == "" {
		return parameter.Parameter{}, errors.New("missing name")
	}
	kind, err := parameter.ParseKind(pd.Type)
	if err != nil {
		return parameter.Parameter{}, fmt.Errorf("%q: %w", pd.Name, err)
	}
	p := parameter.New(pd.Name, kind)
	if pd.Default == nil {
		return p, nil
	}

	switch kind {
	case parameter.KindBool, parameter.KindTrigger:
		v, ok := pd.Default.(bool)
		if !ok {
			return p, fmt.Errorf("%q: default %v is not a bool", pd.Name, pd.Default)
		}
		p.Bool = v
	case parameter.KindFloat:
		v, ok := toFloat(pd.Default)
		if !ok {
			return p, fmt.Errorf("%q: default %v is not a number", pd.Name, pd.Default)
		}
		p.Float = v
	case parameter.KindInt:
		v, ok := toFloat(pd.Default)
		if !ok || v != math.Trunc(v) {
			return p, fmt.Errorf("%q: default %v is not an integer", pd.Name, pd.Default)
		}
		p.Int = int64(v)
	}
	return p, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func buildClip(cd ClipDefinition) (*model.AnimationClip, error) {
	if cd.Duration < 0 {
		return nil, fmt.Errorf("clip %q: negative duration", cd.Name)
	}
	c := &model.AnimationClip{Name: cd.Name, Channels: make([]model.AnimationChannel, 0, len(cd.Channels))}

	for ci, chd := range cd.Channels {
		if chd.Target == "" {
			return nil, fmt.Errorf("clip %q channel %d: missing target", cd.Name, ci)
		}
		interp, err := parseInterpolation(chd.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("clip %q channel %d: %w", cd.Name, ci, err)
		}
		ch := model.AnimationChannel{Target: chd.Target, Interpolation: interp}

		for _, k := range chd.Position {
			v, err := vec3(k.Value)
			if err != nil {
				return nil, fmt.Errorf("clip %q channel %q position at %g: %w", cd.Name, chd.Target, k.Time, err)
			}
			ch.PositionKeys = append(ch.PositionKeys, model.VectorKeyframe{Time: k.Time, Value: v})
		}
		for _, k := range chd.Rotation {
			q, err := quat(k.Value)
			if err != nil {
				return nil, fmt.Errorf("clip %q channel %q rotation at %g: %w", cd.Name, chd.Target, k.Time, err)
			}
			ch.RotationKeys = append(ch.RotationKeys, model.QuaternionKeyframe{Time: k.Time, Value: q})
		}
		for _, k := range chd.Scale {
			v, err := vec3(k.Value)
			if err != nil {
				return nil, fmt.Errorf("clip %q channel %q scale at %g: %w", cd.Name, chd.Target, k.Time, err)
			}
			ch.ScaleKeys = append(ch.ScaleKeys, model.VectorKeyframe{Time: k.Time, Value: v})
		}
		c.Channels = append(c.Channels, ch)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Duration = cd.Duration
	if c.Duration == 0 {
		c.Duration = c.KeyframeEnd()
	}
	return c, nil
}

func parseInterpolation(s string) (model.Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return model.InterpolationLinear, nil
	case "step", "constant":
		return model.InterpolationStep, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q", s)
	}
}

func vec3(v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

func quat(v []float64) (mgl64.Quat, error) {
	switch len(v) {
	case 3:
		return mgl64.AnglesToQuat(mgl64.DegToRad(v[0]), mgl64.DegToRad(v[1]), mgl64.DegToRad(v[2]), mgl64.XYZ), nil
	case 4:
		if v[0] == 0 && v[1] == 0 && v[2] == 0 && v[3] == 0 {
			return mgl64.Quat{}, errors.New("zero quaternion")
		}
		return common.QuatFromXYZW([4]float64{v[0], v[1], v[2], v[3]}), nil
	default:
		return mgl64.Quat{}, fmt.Errorf("expected 3 (euler) or 4 (quaternion) components, got %d", len(v))
	}
}

func buildLayer(ld LayerDefinition, clips map[string]*model.AnimationClip, baseDir string) (*state_machine.Layer, error) {
	if len(ld.States) == 0 {
		return nil, fmt.Errorf("layer %q has no states", ld.Name)
	}

	states := make([]*state_machine.State, 0, len(ld.States))
	seen := make(map[string]bool, len(ld.States))
	defaultIndex := -1
	for si, sd := range ld.States {
		if sd.Name == "" {
			return nil, fmt.Errorf("state %d has no name", si)
		}
		if seen[sd.Name] {
			return nil, fmt.Errorf("duplicate state %q", sd.Name)
		}
		seen[sd.Name] = true
		s, err := buildState(sd, clips, baseDir)
		if err != nil {
			return nil, err
		}
		if sd.Name == ld.DefaultState {
			defaultIndex = si
		}
		states = append(states, s)
	}
	if ld.DefaultState != "" && defaultIndex < 0 {
		return nil, fmt.Errorf("unknown default state %q", ld.DefaultState)
	}

	sm := state_machine.NewStateMachine(states...)
	sm.DefaultStateIndex = defaultIndex

	weight := 1.0
	if ld.Weight != nil {
		weight = *ld.Weight
	}
	return &state_machine.Layer{Name: ld.Name, Weight: weight, StateMachine: sm}, nil
}

func buildState(sd StateDefinition, clips map[string]*model.AnimationClip, baseDir string) (*state_machine.State, error) {
	s := &state_machine.State{Name: sd.Name}

	if sd.Clip != "" {
		c, ok := clips[sd.Clip]
		if !ok {
			return nil, fmt.Errorf("state %q: unknown clip %q", sd.Name, sd.Clip)
		}
		s.Motion = state_machine.Motion{Clip: c, Looping: sd.Loop}
	}

	for ti, td := range sd.Transitions {
		if td.To == "" {
			return nil, fmt.Errorf("state %q transition %d: missing destination", sd.Name, ti)
		}
		tr := state_machine.Transition{
			Duration: td.Duration,
			Offset:   td.Offset,
		}
		if td.To == defaultDestination {
			tr.ToDefault = true
		} else {
			tr.DestinationName = td.To
		}
		if td.ExitTime != nil {
			tr.HasExitTime = true
			tr.ExitTime = *td.ExitTime
		}
		for ci, cd := range td.Conditions {
			mode, err := state_machine.ParseConditionMode(cd.Mode)
			if err != nil {
				return nil, fmt.Errorf("state %q transition %d condition %d: %w", sd.Name, ti, ci, err)
			}
			tr.Conditions = append(tr.Conditions, state_machine.Condition{
				ParameterName: cd.Parameter,
				Mode:          mode,
				Threshold:     cd.Threshold,
			})
		}
		s.Transitions = append(s.Transitions, tr)
	}

	for bi, bd := range sd.Behaviours {
		if bd.Type == "" {
			return nil, fmt.Errorf("state %q behaviour %d: missing type", sd.Name, bi)
		}
		props := maps.Clone(bd.Properties)
		if p, ok := props["path"].(string); ok && p != "" && !filepath.IsAbs(p) && baseDir != "" {
			props["path"] = filepath.Join(baseDir, p)
		}
		s.Behaviours = append(s.Behaviours, state_machine.BehaviourRef{Type: bd.Type, Properties: props})
	}
	return s, nil
}
