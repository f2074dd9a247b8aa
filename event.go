package trafficlight

import (
	"time"

	"github.com/google/uuid"
)

// PhaseEvent describes one toggle of a traffic light
type PhaseEvent struct {
	ID       string
	LightID  string
	Previous Phase
	Current  Phase
	// Cycle counts toggles since the light started, starting at 1
	Cycle uint64
	// Elapsed is the measured time since the previous toggle
	Elapsed time.Duration
	// CycleDuration is the drawn duration that Elapsed had to reach
	CycleDuration time.Duration
	Timestamp     time.Time
}

// NewPhaseEvent creates a new phase event with a fresh ID
func NewPhaseEvent(lightID string, previous, current Phase, cycle uint64, elapsed, cycleDuration time.Duration) PhaseEvent {
	return PhaseEvent{
		ID:            uuid.New().String(),
		LightID:       lightID,
		Previous:      previous,
		Current:       current,
		Cycle:         cycle,
		Elapsed:       elapsed,
		CycleDuration: cycleDuration,
		Timestamp:     time.Now(),
	}
}

// IsGreen reports whether the light turned green with this event
func (e PhaseEvent) IsGreen() bool {
	return e.Current == Green
}
