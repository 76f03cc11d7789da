package behaviour

// StateInfo describes the state a callback fires for.
type StateInfo struct {
	Name  string
	Hash  int32
	Layer int

	// NormalizedTime is the clip's local time divided by its length.
	NormalizedTime float64
	// Length is the clip duration in seconds, 0 for an empty motion.
	Length float64
	// Speed is the controller playback speed.
	Speed float64
}

// Animator is the part of a controller a behaviour may drive from inside a callback.
// Play requests made during a callback are deferred until the controller finishes its current step.
type Animator interface {
	SetBool(name string, value bool)
	SetFloat(name string, value float64)
	SetInteger(name string, value int64)
	SetTrigger(name string)
	ResetTrigger(name string)
	GetBool(name string) bool
	GetFloat(name string) float64
	GetInteger(name string) int64
	Play(name string, layer int, normalizedTime, transitionDuration float64)
}

// StateBehaviour is any value attached to a state. It takes part in the callbacks whose handler interfaces it implements.
type StateBehaviour any

// EnterHandler is called after a state's clip has started.
type EnterHandler interface {
	OnStateEnter(a Animator, info StateInfo)
}

// UpdateHandler is called once per tick while a state stays active.
type UpdateHandler interface {
	OnStateUpdate(a Animator, info StateInfo)
}

// ExitHandler is called when a state with a running clip is left.
type ExitHandler interface {
	OnStateExit(a Animator, info StateInfo)
}

// Set is the resolved list of behaviours of one state, split by capability.
type Set struct {
	enter  []EnterHandler
	update []UpdateHandler
	exit   []ExitHandler
	count  int
}

// Add appends b to every callback list it has a handler for.
// A behaviour with no handlers is still counted.
func (s *Set) Add(b StateBehaviour) {
	if b == nil {
		return
	}
	s.count++
	if h, ok := b.(EnterHandler); ok {
		s.enter = append(s.enter, h)
	}
	if h, ok := b.(UpdateHandler); ok {
		s.update = append(s.update, h)
	}
	if h, ok := b.(ExitHandler); ok {
		s.exit = append(s.exit, h)
	}
}

// Len returns the number of behaviours added.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

func (s *Set) Enter(a Animator, info StateInfo) {
	if s == nil {
		return
	}
	for _, h := range s.enter {
		h.OnStateEnter(a, info)
	}
}

func (s *Set) Update(a Animator, info StateInfo) {
	if s == nil {
		return
	}
	for _, h := range s.update {
		h.OnStateUpdate(a, info)
	}
}

func (s *Set) Exit(a Animator, info StateInfo) {
	if s == nil {
		return
	}
	for _, h := range s.exit {
		h.OnStateExit(a, info)
	}
}
