package scene

import (
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-anim/engine/game_object"
)

// Stats summarizes the controllers of a scene after its latest Update.
type Stats struct {
	Objects      int
	Controllers  int
	InTransition int
	Transitions  uint64
	Ticks        uint64
}

// Scene holds a registry of GameObjects and ticks their controllers.
// Newly added objects get their FirstTick serially, in the order they were added, at the start of the next Update;
// the per-object updates then run in parallel on a worker pool, since controllers share no mutable state.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is ticked by the engine.
	Active() bool

	// SetActive sets whether this scene is ticked by the engine.
	SetActive(active bool)

	// Count returns the number of GameObjects in the scene.
	//
	// Returns:
	//   - int: count of GameObjects in the registry
	Count() int

	// Add adds a GameObject to the scene, assigning an ID if it has none.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the assigned object ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a GameObject by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes a GameObject by ID and releases its controller.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Objects returns the scene's objects ordered by ID.
	//
	// Returns:
	//   - []game_object.GameObject: the objects
	Objects() []game_object.GameObject

	// Clear removes all objects from the scene, releasing their controllers.
	Clear()

	// TimeScale returns the multiplier applied to every Update's delta time.
	TimeScale() float64

	// SetTimeScale sets the multiplier applied to every Update's delta time. Negative values are treated as 0.
	//
	// Parameters:
	//   - scale: the multiplier
	SetTimeScale(scale float64)

	// Update runs pending first ticks, then advances every enabled object by deltaTime scaled by the time scale.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last update in seconds
	Update(deltaTime float64)

	// Stats returns counters gathered at the end of the latest Update.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats

	// Release clears the scene and stops its worker pool. The scene must not be updated afterwards.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]game_object.GameObject
	order    []game_object.GameObject
	pending  []game_object.GameObject
	nextID   uint64

	timeScale float64
	stats     Stats

	// updatePool runs per-object updates. Workers persist across ticks.
	updatePool    worker.DynamicWorkerPool
	updateWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new, active Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:            &sync.RWMutex{},
		name:          name,
		active:        true,
		registry:      make(map[uint64]game_object.GameObject),
		nextID:        1,
		timeScale:     1,
		updateWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the pool after options so WithUpdateWorkers can override the default.
	s.updatePool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

func (s *scene) add(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(atomic.AddUint64(&s.nextID, 1) - 1)
	} else if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	if old, ok := s.registry[obj.ID()]; ok && old != obj {
		s.drop(old)
	}
	s.registry[obj.ID()] = obj
	s.order = append(s.order, obj)
	s.pending = append(s.pending, obj)
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.registry[id]; ok {
		s.drop(obj)
	}
}

// drop unregisters obj and releases its controller. Callers hold the write lock.
func (s *scene) drop(obj game_object.GameObject) {
	delete(s.registry, obj.ID())
	s.order = slices.DeleteFunc(s.order, func(o game_object.GameObject) bool { return o == obj })
	s.pending = slices.DeleteFunc(s.pending, func(o game_object.GameObject) bool { return o == obj })
	obj.Release()
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.order)
	slices.SortFunc(out, func(a, b game_object.GameObject) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return out
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range s.order {
		obj.Release()
	}
	s.registry = make(map[uint64]game_object.GameObject)
	s.order = nil
	s.pending = nil
	s.stats = Stats{}
}

func (s *scene) TimeScale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeScale
}

func (s *scene) SetTimeScale(scale float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeScale = max(scale, 0)
}

func (s *scene) Update(deltaTime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First ticks run serially so default-state entry order never depends on scheduling.
	for _, obj := range s.pending {
		obj.FirstTick()
	}
	s.pending = s.pending[:0]

	dt := deltaTime * s.timeScale
	objects := s.order
	if len(objects) > 0 {
		// Split the objects into one contiguous batch per worker; a WaitGroup is the per-tick barrier.
		batch := (len(objects) + s.updateWorkers - 1) / s.updateWorkers
		var wg sync.WaitGroup
		taskID := 0
		for start := 0; start < len(objects); start += batch {
			chunk := objects[start:min(start+batch, len(objects))]
			wg.Add(1)
			s.updatePool.SubmitTask(worker.Task{
				ID: taskID,
				Do: func() (any, error) {
					defer wg.Done()
					for _, obj := range chunk {
						obj.Update(dt)
					}
					return nil, nil
				},
			})
			taskID++
		}
		wg.Wait()
	}

	s.collectStats()
}

// collectStats recomputes the counters after the barrier. Callers hold the write lock.
func (s *scene) collectStats() {
	st := Stats{Objects: len(s.order), Ticks: s.stats.Ticks + 1}
	for _, obj := range s.order {
		a := obj.Animator()
		if a == nil {
			continue
		}
		st.Controllers++
		st.Transitions += a.TransitionCount()
		if a.IsInTransition() {
			st.InTransition++
		}
	}
	s.stats = st
}

func (s *scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *scene) Release() {
	s.Clear()
	s.updatePool.Stop()
}
