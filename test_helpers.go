package trafficlight

import (
	"sync"
	"testing"
	"time"
)

// TestObserver is a mock observer for testing that captures all observer events
type TestObserver struct {
	mutex   sync.RWMutex
	Events  []PhaseEvent
	Started []string
	Stopped []string
	Errors  []error

	greens chan PhaseEvent
}

// NewTestObserver creates a new test observer
func NewTestObserver() *TestObserver {
	return &TestObserver{
		Events:  make([]PhaseEvent, 0),
		Started: make([]string, 0),
		Stopped: make([]string, 0),
		Errors:  make([]error, 0),
		greens:  make(chan PhaseEvent, 64),
	}
}

// Observer interface implementations
func (o *TestObserver) OnPhaseChange(event PhaseEvent) {
	o.mutex.Lock()
	o.Events = append(o.Events, event)
	o.mutex.Unlock()

	if event.IsGreen() {
		select {
		case o.greens <- event:
		default:
		}
	}
}

// ExtendedObserver interface implementations
func (o *TestObserver) OnStarted(lightID string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Started = append(o.Started, lightID)
}

func (o *TestObserver) OnStopped(lightID string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Stopped = append(o.Stopped, lightID)
}

func (o *TestObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Errors = append(o.Errors, err)
}

// Helper methods for test assertions
func (o *TestObserver) EventCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.Events)
}

func (o *TestObserver) EventsSnapshot() []PhaseEvent {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	result := make([]PhaseEvent, len(o.Events))
	copy(result, o.Events)
	return result
}

func (o *TestObserver) LastEvent() *PhaseEvent {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	if len(o.Events) == 0 {
		return nil
	}
	event := o.Events[len(o.Events)-1]
	return &event
}

func (o *TestObserver) StoppedCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.Stopped)
}

func (o *TestObserver) StartedCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.Started)
}

// WaitForEvents blocks until at least n events were recorded or timeout passes
func (o *TestObserver) WaitForEvents(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if o.EventCount() >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return o.EventCount() >= n
}

// Greens delivers recorded green toggles; events are dropped when nobody reads
func (o *TestObserver) Greens() <-chan PhaseEvent {
	return o.greens
}

// Test configurations

// FastConfig returns the default 4-6 cycle scaled down to the given unit
func FastConfig(unit time.Duration) Config {
	cfg := DefaultConfig()
	cfg.CycleUnit = unit
	return cfg
}

// CreateTestLight creates a light with FastConfig and a recording observer
func CreateTestLight(t *testing.T, unit time.Duration) (*TrafficLight, *TestObserver) {
	t.Helper()
	observer := NewTestObserver()
	light, err := NewTrafficLight(WithConfig(FastConfig(unit)), WithObserver(observer))
	if err != nil {
		t.Fatalf("Failed to create traffic light: %v", err)
	}
	return light, observer
}

// StopOnCleanup stops a started light when the test ends
func StopOnCleanup(t *testing.T, light *TrafficLight) {
	t.Helper()
	t.Cleanup(func() {
		if light.State() == LightRunning {
			_ = light.Stop()
		}
	})
}

// Test assertions and utilities

// AssertPhase checks if the light shows the expected phase
func AssertPhase(t *testing.T, light *TrafficLight, expected Phase) {
	t.Helper()
	if current := light.CurrentPhase(); current != expected {
		t.Errorf("Expected phase %s, got %s", expected, current)
	}
}

// AssertAlternating checks that consecutive events never repeat a phase
func AssertAlternating(t *testing.T, events []PhaseEvent) {
	t.Helper()
	for i, event := range events {
		if event.Previous == event.Current {
			t.Errorf("Event %d did not change phase: %s -> %s", i, event.Previous, event.Current)
		}
		if i > 0 && events[i-1].Current == event.Current {
			t.Errorf("Events %d and %d both switched to %s", i-1, i, event.Current)
		}
		if i > 0 && events[i-1].Current != event.Previous {
			t.Errorf("Event %d started from %s, previous event ended at %s", i, event.Previous, events[i-1].Current)
		}
	}
}

// AssertCycleBounds checks that every measured cycle lies within the configured range
func AssertCycleBounds(t *testing.T, events []PhaseEvent, cfg Config, tolerance time.Duration) {
	t.Helper()
	for i, event := range events {
		if event.Elapsed < cfg.MinDuration() || event.Elapsed > cfg.MaxDuration()+tolerance {
			t.Errorf("Event %d elapsed %s outside [%s, %s+%s]", i, event.Elapsed, cfg.MinDuration(), cfg.MaxDuration(), tolerance)
		}
	}
}

// AssertErrorCode checks the error code of err
func AssertErrorCode(t *testing.T, err error, expected ErrorCode) {
	t.Helper()
	if err == nil {
		t.Errorf("Expected error with code %s, got nil", expected)
		return
	}
	if code := GetErrorCode(err); code != expected {
		t.Errorf("Expected error code %s, got %s (%v)", expected, code, err)
	}
}
