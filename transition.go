package trafficlight

// EventCycleElapsed is the event name the timer fires when a cycle duration has passed
const EventCycleElapsed = "cycle_elapsed"

// Transition represents a phase transition
type Transition struct {
	From      Phase
	To        Phase
	EventName string
}

// NewTransition creates a new transition
func NewTransition(from, to Phase, eventName string) Transition {
	return Transition{
		From:      from,
		To:        to,
		EventName: eventName,
	}
}

// phaseTransitions is the whole phase machine: two states, each toggling to the other
var phaseTransitions = []Transition{
	NewTransition(Red, Green, EventCycleElapsed),
	NewTransition(Green, Red, EventCycleElapsed),
}

// Transitions returns a copy of the phase transition table
func Transitions() []Transition {
	result := make([]Transition, len(phaseTransitions))
	copy(result, phaseTransitions)
	return result
}

// findTransition returns the transition leaving from on eventName
func findTransition(from Phase, eventName string) (Transition, bool) {
	for _, t := range phaseTransitions {
		if t.From == from && t.EventName == eventName {
			return t, true
		}
	}
	return Transition{}, false
}
