package parameter

import "log"

// Store holds the live parameter values of one controller.
// Lookups go through ID; a name is hashed once by the caller.
// Unknown ids read as false/0 and writes to them are rejected.
type Store struct {
	params []Parameter
	index  map[ID]int
}

// NewStore creates a Store from parameter definitions. Definitions keep their initial values.
// A second definition with an ID already present is dropped.
//
// Parameters:
//   - params: the parameter definitions
//
// Returns:
//   - *Store: the new store
func NewStore(params ...Parameter) *Store {
	s := &Store{
		params: make([]Parameter, 0, len(params)),
		index:  make(map[ID]int, len(params)),
	}
	for _, p := range params {
		if p.ID == 0 && p.Name != "" {
			p.ID = Hash(p.Name)
		}
		if _, exists := s.index[p.ID]; exists {
			log.Printf("[Parameter] duplicate parameter %q ignored", p.Name)
			continue
		}
		s.index[p.ID] = len(s.params)
		s.params = append(s.params, p)
	}
	return s
}

// Len returns the number of parameters in the store.
func (s *Store) Len() int { return len(s.params) }

// Lookup returns the parameter stored under id.
//
// Parameters:
//   - id: the parameter key
//
// Returns:
//   - Parameter: a copy of the parameter
//   - bool: false if no parameter has that id
func (s *Store) Lookup(id ID) (Parameter, bool) {
	i, ok := s.index[id]
	if !ok {
		return Parameter{}, false
	}
	return s.params[i], true
}

// Bool returns the value of a bool or trigger parameter, or false if unknown.
func (s *Store) Bool(id ID) bool {
	p, _ := s.Lookup(id)
	return p.Truthy()
}

// Float returns the numeric value of a parameter, or 0 if unknown.
func (s *Store) Float(id ID) float64 {
	p, _ := s.Lookup(id)
	return p.Numeric()
}

// Int returns the value of an int parameter, or 0 if unknown. Floats are truncated.
func (s *Store) Int(id ID) int64 {
	p, ok := s.Lookup(id)
	if !ok {
		return 0
	}
	if p.Kind == KindInt {
		return p.Int
	}
	return int64(p.Numeric())
}

// SetBool writes a bool or trigger parameter.
//
// Parameters:
//   - id: the parameter key
//   - value: the new value
//
// Returns:
//   - bool: false if the id is unknown or the parameter is not a bool/trigger
func (s *Store) SetBool(id ID, value bool) bool {
	p := s.slot(id)
	if p == nil || (p.Kind != KindBool && p.Kind != KindTrigger) {
		return false
	}
	p.Bool = value
	return true
}

// SetFloat writes a float parameter.
//
// Parameters:
//   - id: the parameter key
//   - value: the new value
//
// Returns:
//   - bool: false if the id is unknown or the parameter is not a float
func (s *Store) SetFloat(id ID, value float64) bool {
	p := s.slot(id)
	if p == nil || p.Kind != KindFloat {
		return false
	}
	p.Float = value
	return true
}

// SetInt writes an int parameter.
//
// Parameters:
//   - id: the parameter key
//   - value: the new value
//
// Returns:
//   - bool: false if the id is unknown or the parameter is not an int
func (s *Store) SetInt(id ID, value int64) bool {
	p := s.slot(id)
	if p == nil || p.Kind != KindInt {
		return false
	}
	p.Int = value
	return true
}

// SetTrigger sets a trigger (or bool) parameter to true.
func (s *Store) SetTrigger(id ID) bool {
	return s.SetBool(id, true)
}

// ResetTrigger sets a trigger (or bool) parameter to false.
func (s *Store) ResetTrigger(id ID) bool {
	return s.SetBool(id, false)
}

// Snapshot returns a copy of every parameter with its current value, in definition order.
//
// Returns:
//   - []Parameter: the copied parameters
func (s *Store) Snapshot() []Parameter {
	out := make([]Parameter, len(s.params))
	copy(out, s.params)
	return out
}

// Clone returns an independent Store with the same definitions and current values.
//
// Returns:
//   - *Store: the copy
func (s *Store) Clone() *Store {
	return NewStore(s.Snapshot()...)
}

func (s *Store) slot(id ID) *Parameter {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return &s.params[i]
}
