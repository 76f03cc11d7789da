package profiler

import (
	"log"
	"runtime"
	"time"
)

// Sample is the controller state observed on one tick.
type Sample struct {
	// Controllers is the number of bound controllers ticked.
	Controllers int

	// InTransition is how many of them are cross-fading.
	InTransition int

	// Transitions is the cumulative number of transitions taken across all controllers.
	Transitions uint64
}

// Report is the summary logged at the end of each interval.
type Report struct {
	TPS            float64
	Controllers    int
	InTransition   int
	TransitionRate float64
	HeapMB         float64
	AllocRateMB    float64
	GCCount        uint32
	LastPauseUs    uint64
	MaxPauseUs     uint64
	SysMB          float64
}

// Profiler tracks tick rate, controller activity and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	tickCount       int
	lastTime        time.Time
	updateInterval  time.Duration
	memStats        runtime.MemStats
	lastGCCount     uint32
	lastTotalAlloc  uint64
	lastTransitions uint64
	last            Report
	now             func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		now:            time.Now,
	}
}

// SetInterval changes how often stats are logged. Non-positive values keep the current interval.
func (p *Profiler) SetInterval(d time.Duration) {
	if d > 0 {
		p.updateInterval = d
	}
}

// Last returns the most recent report, zero until the first interval elapses.
func (p *Profiler) Last() Report {
	return p.last
}

// Tick should be called once per engine tick with the controller state of that tick.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: TPS, controller count, transitions per second, heap usage, allocation rate, GC count/pause times, total memory.
//
// Parameters:
//   - s: the controller state after the tick
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(s Sample) bool {
	p.tickCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	r := Report{
		TPS:          float64(p.tickCount) / elapsed.Seconds(),
		Controllers:  s.Controllers,
		InTransition: s.InTransition,
	}

	// Removing objects can shrink the cumulative count; count from zero when it does.
	transitions := s.Transitions
	if transitions >= p.lastTransitions {
		transitions -= p.lastTransitions
	}
	r.TransitionRate = float64(transitions) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	r.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	r.GCCount = p.memStats.NumGC
	if r.GCCount > 0 {
		r.LastPauseUs = p.memStats.PauseNs[(r.GCCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if r.GCCount-startIdx > 256 {
			startIdx = r.GCCount - 256
		}
		for i := startIdx; i < r.GCCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > r.MaxPauseUs {
				r.MaxPauseUs = pause
			}
		}
	}

	log.Printf("[Profiler] TPS: %.2f | Controllers: %d (%d blending) | Transitions: %.2f/s | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		r.TPS, r.Controllers, r.InTransition, r.TransitionRate, r.HeapMB, r.AllocRateMB, r.GCCount, r.LastPauseUs, r.MaxPauseUs, r.SysMB)

	p.tickCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastTransitions = s.Transitions
	p.last = r
	return true
}
