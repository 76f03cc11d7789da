package loader

// --- Definition Types ---
//
// These types mirror the YAML controller definition layout. They are decoded
// by the yaml backend and converted into a state_machine.ControllerModel.

// Definition is the root of a controller definition file.
type Definition struct {
	// Name identifies the controller. Falls back to the file name when empty.
	Name string `yaml:"name"`

	Parameters []ParameterDefinition `yaml:"parameters"`
	Clips      []ClipDefinition      `yaml:"clips"`
	Layers     []LayerDefinition     `yaml:"layers"`

	// DefaultState and States are shorthand for a single base layer.
	DefaultState string            `yaml:"default_state"`
	States       []StateDefinition `yaml:"states"`
}

// ParameterDefinition declares a parameter and its initial value.
type ParameterDefinition struct {
	Name string `yaml:"name"`

	// Type is one of bool, float, int or trigger.
	Type string `yaml:"type"`

	// Default is decoded loosely and converted according to Type.
	Default any `yaml:"default"`
}

// ClipDefinition is an inline animation clip.
type ClipDefinition struct {
	Name string `yaml:"name"`

	// Duration defaults to the last keyframe time when zero.
	Duration float64 `yaml:"duration"`

	Channels []ChannelDefinition `yaml:"channels"`
}

// ChannelDefinition holds the tracks animating one bone.
type ChannelDefinition struct {
	Target string `yaml:"target"`

	// Interpolation is linear (default) or step.
	Interpolation string `yaml:"interpolation"`

	Position []KeyDefinition `yaml:"position"`

	// Rotation values are [x, y, z, w] quaternions, or [x, y, z] Euler angles in degrees.
	Rotation []KeyDefinition `yaml:"rotation"`

	Scale []KeyDefinition `yaml:"scale"`
}

// KeyDefinition is a single keyframe.
type KeyDefinition struct {
	Time  float64   `yaml:"time"`
	Value []float64 `yaml:"value"`
}

// LayerDefinition describes one layer and its state machine.
type LayerDefinition struct {
	Name         string            `yaml:"name"`
	Weight       *float64          `yaml:"weight"`
	DefaultState string            `yaml:"default_state"`
	States       []StateDefinition `yaml:"states"`
}

// StateDefinition describes a state, its motion and its outgoing transitions.
type StateDefinition struct {
	Name string `yaml:"name"`

	// Clip names an entry of the definition's clips. Empty means an empty motion.
	Clip string `yaml:"clip"`
	Loop bool   `yaml:"loop"`

	Transitions []TransitionDefinition `yaml:"transitions"`
	Behaviours  []BehaviourDefinition  `yaml:"behaviours"`
}

// TransitionDefinition describes an edge to another state in the same layer.
type TransitionDefinition struct {
	// To names the destination state; -1 returns to the layer's default state.
	To string `yaml:"to"`

	// ExitTime enables exit-time gating when present.
	ExitTime *float64 `yaml:"exit_time"`

	Duration   float64               `yaml:"duration"`
	Offset     float64               `yaml:"offset"`
	Conditions []ConditionDefinition `yaml:"conditions"`
}

// ConditionDefinition tests a single parameter.
type ConditionDefinition struct {
	Parameter string  `yaml:"parameter"`
	Mode      string  `yaml:"mode"`
	Threshold float64 `yaml:"threshold"`
}

// BehaviourDefinition attaches a registered behaviour type to a state.
type BehaviourDefinition struct {
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties"`
}
