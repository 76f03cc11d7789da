package parameter

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// ID is the canonical key for a parameter. Name-based and hash-based lookups both resolve to an ID.
type ID int32

// Hash computes the ID for a parameter name.
//
// Parameters:
//   - name: the parameter name
//
// Returns:
//   - ID: the canonical key
func Hash(name string) ID {
	return ID(common.StringToHash(name))
}

// Kind is the value type of a parameter.
type Kind int

const (
	KindBool Kind = iota
	KindFloat
	KindInt
	// KindTrigger behaves like KindBool but is reset once a transition consumes it.
	KindTrigger
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindTrigger:
		return "trigger"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts an authoring string ("bool", "float", "int", "trigger") into a Kind.
//
// Parameters:
//   - s: the kind name, case insensitive
//
// Returns:
//   - Kind: the parsed kind
//   - error: error if the name is not recognised
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return KindBool, nil
	case "float", "number":
		return KindFloat, nil
	case "int", "integer":
		return KindInt, nil
	case "trigger":
		return KindTrigger, nil
	default:
		return 0, fmt.Errorf("unknown parameter kind %q", s)
	}
}

// Parameter is a single named, typed value. Only the field matching Kind is meaningful.
type Parameter struct {
	Name  string
	ID    ID
	Kind  Kind
	Bool  bool
	Float float64
	Int   int64
}

// New creates a zero-valued Parameter with its ID precomputed from the name.
//
// Parameters:
//   - name: the parameter name
//   - kind: the value type
//
// Returns:
//   - Parameter: the new parameter
func New(name string, kind Kind) Parameter {
	return Parameter{Name: name, ID: Hash(name), Kind: kind}
}

// Numeric returns the parameter value as a float64 for threshold comparisons.
// Bools and triggers map to 1 and 0.
//
// Returns:
//   - float64: the numeric view of the value
func (p Parameter) Numeric() float64 {
	switch p.Kind {
	case KindBool, KindTrigger:
		if p.Bool {
			return 1
		}
		return 0
	case KindInt:
		return float64(p.Int)
	default:
		return p.Float
	}
}

// Truthy reports whether the value counts as true for If/IfNot conditions.
//
// Returns:
//   - bool: true for a set bool/trigger or a non-zero number
func (p Parameter) Truthy() bool {
	switch p.Kind {
	case KindBool, KindTrigger:
		return p.Bool
	default:
		return p.Numeric() != 0
	}
}
