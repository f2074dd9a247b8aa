package observers

import (
	"fmt"
	"sync"
	"time"

	"github.com/anggasct/trafficlight"
)

// ValidationObserver checks that a light alternates strictly and keeps its cycle bound
type ValidationObserver struct {
	min       time.Duration
	max       time.Duration
	tolerance time.Duration

	last       *trafficlight.PhaseEvent
	violations []string
	mutex      sync.RWMutex
}

// NewValidationObserver creates a validation observer for lights running with cfg.
// Cycles up to tolerance longer than the configured maximum are accepted to absorb
// poll and scheduling delay.
func NewValidationObserver(cfg trafficlight.Config, tolerance time.Duration) *ValidationObserver {
	return &ValidationObserver{
		min:        cfg.MinDuration(),
		max:        cfg.MaxDuration(),
		tolerance:  tolerance,
		violations: make([]string, 0),
	}
}

// OnPhaseChange validates the toggle against the previous one
func (o *ValidationObserver) OnPhaseChange(event trafficlight.PhaseEvent) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if event.Previous == event.Current {
		o.violations = append(o.violations, fmt.Sprintf(
			"cycle %d did not change phase: %s -> %s", event.Cycle, event.Previous, event.Current))
	}
	if o.last != nil {
		if o.last.Current != event.Previous {
			o.violations = append(o.violations, fmt.Sprintf(
				"cycle %d started from %s but cycle %d ended at %s",
				event.Cycle, event.Previous, o.last.Cycle, o.last.Current))
		}
		if event.Cycle != o.last.Cycle+1 {
			o.violations = append(o.violations, fmt.Sprintf(
				"cycle %d followed cycle %d", event.Cycle, o.last.Cycle))
		}
	}
	if event.Elapsed < o.min || event.Elapsed > o.max+o.tolerance {
		o.violations = append(o.violations, fmt.Sprintf(
			"cycle %d lasted %s, outside [%s, %s]", event.Cycle, event.Elapsed, o.min, o.max+o.tolerance))
	}

	o.last = &event
}

// OnStarted forgets the previous run
func (o *ValidationObserver) OnStarted(lightID string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.last = nil
}

// OnStopped implements ExtendedObserver
func (o *ValidationObserver) OnStopped(lightID string) {}

// OnError records the error as a violation
func (o *ValidationObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violations = append(o.violations, fmt.Sprintf("error occurred: %v", err))
}

// GetViolations returns all validation violations
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset resets the validation state
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.last = nil
	o.violations = make([]string, 0)
}
