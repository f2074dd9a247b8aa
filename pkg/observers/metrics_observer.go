package observers

import (
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/anggasct/trafficlight"
)

// MetricsObserver collects metrics about traffic light cycling
type MetricsObserver struct {
	toggleCounts map[trafficlight.Phase]int
	timeSpent    map[trafficlight.Phase]time.Duration
	minCycle     time.Duration
	maxCycle     time.Duration
	lastCycle    time.Duration
	toggles      int
	starts       int
	stops        int
	errorCount   int
	mutex        sync.RWMutex
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		toggleCounts: make(map[trafficlight.Phase]int),
		timeSpent:    make(map[trafficlight.Phase]time.Duration),
	}
}

// OnPhaseChange records toggle metrics. The elapsed time is charged to the phase that
// was left.
func (o *MetricsObserver) OnPhaseChange(event trafficlight.PhaseEvent) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.toggleCounts[event.Current]++
	o.timeSpent[event.Previous] += event.Elapsed

	if o.toggles == 0 || event.Elapsed < o.minCycle {
		o.minCycle = event.Elapsed
	}
	if event.Elapsed > o.maxCycle {
		o.maxCycle = event.Elapsed
	}
	o.lastCycle = event.Elapsed
	o.toggles++
}

// OnStarted counts starts
func (o *MetricsObserver) OnStarted(lightID string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.starts++
}

// OnStopped counts stops
func (o *MetricsObserver) OnStopped(lightID string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.stops++
}

// OnError records error metrics
func (o *MetricsObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.errorCount++
}

// GetToggleCounts returns how many times the light switched to each phase
func (o *MetricsObserver) GetToggleCounts() map[trafficlight.Phase]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return maps.Clone(o.toggleCounts)
}

// GetTimeSpent returns the completed time spent in each phase
func (o *MetricsObserver) GetTimeSpent() map[trafficlight.Phase]time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return maps.Clone(o.timeSpent)
}

// GetToggleCount returns the total number of toggles
func (o *MetricsObserver) GetToggleCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.toggles
}

// GetCycleStats returns the shortest, longest and most recent measured cycle
func (o *MetricsObserver) GetCycleStats() (shortest, longest, last time.Duration) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.minCycle, o.maxCycle, o.lastCycle
}

// GetLifecycleCounts returns how many starts and stops were observed
func (o *MetricsObserver) GetLifecycleCounts() (starts, stops int) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.starts, o.stops
}

// GetErrorCount returns the number of errors
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	maps.Clear(o.toggleCounts)
	maps.Clear(o.timeSpent)
	o.minCycle = 0
	o.maxCycle = 0
	o.lastCycle = 0
	o.toggles = 0
	o.starts = 0
	o.stops = 0
	o.errorCount = 0
}
