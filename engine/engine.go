package engine

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// engine implements the Engine interface.
// Drives registered scenes from a fixed-rate tick loop.
type engine struct {
	mu sync.RWMutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float64)

	scenes map[int]scene.Scene
}

// Engine is the main entry point for the engine.
// It owns the tick loop and steps every active scene once per tick.
type Engine interface {
	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The scenes and tick callback are stepped at this rate.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// TickRate returns the current tick interval.
	//
	// Returns:
	//   - time.Duration: the time between ticks
	TickRate() time.Duration

	// SetTickCallback registers the function called each engine tick before the scenes update.
	// Use this for input processing and parameter writes.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float64))

	// AddScene registers a scene at the given key.
	// Scenes are updated in ascending key order each tick.
	//
	// Parameters:
	//   - key: the ordering key (lower updates first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given key.
	//
	// Parameters:
	//   - key: the key of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by ordering key.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Step advances the engine by exactly one tick of deltaTime seconds.
	// Deterministic hosts and tests call Step directly instead of Run.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Step(deltaTime float64)

	// Stats sums the latest stats of every registered scene.
	//
	// Returns:
	//   - scene.Stats: the combined counters
	Stats() scene.Stats

	// Profiler returns the engine's profiler.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler fed each tick while profiling is enabled
	Profiler() *profiler.Profiler

	// Run starts the tick loop and blocks until Quit is called.
	Run()

	// Done returns a channel closed once Quit has been called.
	//
	// Returns:
	//   - <-chan struct{}: the quit signal
	Done() <-chan struct{}

	// Quit signals the tick loop to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Initializes the tick rate channel and profiler with sensible defaults.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *engine) Run() {
	e.running.Store(true)
	e.wg.Add(1)
	go e.handleEngine()
	e.wg.Wait()
	e.running.Store(false)
}

func (e *engine) Done() <-chan struct{} {
	return e.quitChannel
}

// Quit signals the tick loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal the tick loop to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Steps the engine at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] tick goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.TickRate())
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(lastTick).Seconds()
			lastTick = now
			e.Step(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

func (e *engine) Step(deltaTime float64) {
	e.mu.RLock()
	callback := e.tickCallback
	active := e.orderedScenes()
	e.mu.RUnlock()

	if callback != nil {
		callback(deltaTime)
	}

	for _, s := range active {
		s.Update(deltaTime)
	}

	if e.profilingEnabled.Load() && e.profiler != nil {
		st := e.Stats()
		e.profiler.Tick(profiler.Sample{
			Controllers:  st.Controllers,
			InTransition: st.InTransition,
			Transitions:  st.Transitions,
		})
	}
}

// orderedScenes returns the active scenes in ascending key order. Callers hold the read lock.
func (e *engine) orderedScenes() []scene.Scene {
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

func (e *engine) Stats() scene.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var total scene.Stats
	for _, s := range e.scenes {
		st := s.Stats()
		total.Objects += st.Objects
		total.Controllers += st.Controllers
		total.InTransition += st.InTransition
		total.Transitions += st.Transitions
		total.Ticks = max(total.Ticks, st.Ticks)
	}
	return total
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	}
}

func (e *engine) TickRate() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engineTickRate
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float64)) {
	e.mu.Lock()
	e.tickCallback = callback
	e.mu.Unlock()
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	e.scenes[key] = s
	e.mu.Unlock()
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	delete(e.scenes, key)
	e.mu.Unlock()
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		out[k] = v
	}
	return out
}

// tickInterval converts a ticks-per-second rate into the interval between ticks.
// Values <= 0 fall back to 60Hz.
func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}
