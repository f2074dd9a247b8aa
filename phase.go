package trafficlight

import (
	"fmt"
	"strings"
)

// Phase is the signal currently shown by a traffic light
type Phase int32

const (
	// Red stops traffic. It is the phase every light starts in.
	Red Phase = iota
	// Green lets traffic through
	Green
)

// String returns the lower-case phase name
func (p Phase) String() string {
	switch p {
	case Red:
		return "red"
	case Green:
		return "green"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// IsValid reports whether p is one of the defined phases
func (p Phase) IsValid() bool {
	return p == Red || p == Green
}

// Next returns the phase that follows p when its cycle elapses.
// Invalid phases fall back to Red.
func (p Phase) Next() Phase {
	if t, ok := findTransition(p, EventCycleElapsed); ok {
		return t.To
	}
	return Red
}

// ParsePhase converts a phase name into a Phase
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return Red, nil
	case "green":
		return Green, nil
	default:
		return Red, fmt.Errorf("unknown phase %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid phase %d", int32(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
