package trafficlight

import (
	"fmt"
	"sync"
)

// Observer represents an entity that observes phase changes of a traffic light.
// Observers run on the light's cycle goroutine and should return quickly.
type Observer interface {
	// OnPhaseChange is called after every toggle
	OnPhaseChange(event PhaseEvent)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnStarted is called once the cycle goroutine is running
	OnStarted(lightID string)

	// OnStopped is called after the cycle goroutine has exited
	OnStopped(lightID string)

	// OnError is called when an observer panics
	OnError(err error)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnPhaseChange implements the required Observer method
func (o *BaseObserver) OnPhaseChange(event PhaseEvent) {}

// OnStarted implements the optional ExtendedObserver method
func (o *BaseObserver) OnStarted(lightID string) {}

// OnStopped implements the optional ExtendedObserver method
func (o *BaseObserver) OnStopped(lightID string) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver) OnError(err error) {}

// ObserverManager manages a collection of observers
type ObserverManager struct {
	mutex     sync.RWMutex
	observers []Observer
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	if observer == nil {
		return
	}
	om.mutex.Lock()
	defer om.mutex.Unlock()
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	om.mutex.Lock()
	defer om.mutex.Unlock()
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered observers
func (om *ObserverManager) Count() int {
	om.mutex.RLock()
	defer om.mutex.RUnlock()
	return len(om.observers)
}

func (om *ObserverManager) snapshot() []Observer {
	om.mutex.RLock()
	defer om.mutex.RUnlock()
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)
	return observers
}

// NotifyPhaseChange notifies all observers of a toggle
func (om *ObserverManager) NotifyPhaseChange(event PhaseEvent) {
	for _, observer := range om.snapshot() {
		om.guard(observer, "OnPhaseChange", func() {
			observer.OnPhaseChange(event)
		})
	}
}

// NotifyStarted notifies all observers that the light started cycling
func (om *ObserverManager) NotifyStarted(lightID string) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			om.guard(observer, "OnStarted", func() {
				extObs.OnStarted(lightID)
			})
		}
	}
}

// NotifyStopped notifies all observers that the light stopped cycling
func (om *ObserverManager) NotifyStopped(lightID string) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			om.guard(observer, "OnStopped", func() {
				extObs.OnStopped(lightID)
			})
		}
	}
}

// guard runs call and turns a panic into an OnError notification for the same observer
func (om *ObserverManager) guard(observer Observer, method string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			if extObs, ok := observer.(ExtendedObserver); ok {
				func() {
					defer func() { recover() }()
					extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r))
				}()
			}
		}
	}()
	call()
}
