package ladder

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Phase classifies an item's stage relative to the ladder ceiling.
type Phase int

const (
	Learning Phase = iota + 1 // Below the ceiling, still climbing.
	Mastered                  // At or above the ceiling, periodic review.
)

var (
	phaseNames  = [...]string{Learning: "Learning", Mastered: "Mastered"}
	phaseByName = map[string]Phase{
		"Learning": Learning,
		"Mastered": Mastered,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Phase(0)
	_ json.Marshaler           = Phase(0)
	_ json.Unmarshaler         = (*Phase)(nil)
	_ encoding.TextMarshaler   = Phase(0)
	_ encoding.TextUnmarshaler = (*Phase)(nil)
)

// PhaseOf returns the phase of an item at the given stage on a ladder with
// the given ceiling. Any stage at or above maxStage counts as Mastered.
func PhaseOf(stage, maxStage int) Phase {
	if stage >= maxStage {
		return Mastered
	}
	return Learning
}

func (p Phase) isValid() bool {
	return p >= Learning && p <= Mastered
}

// String returns the name of the phase ("Learning", "Mastered").
// For invalid values it returns "Phase(n)".
func (p Phase) String() string {
	if p.isValid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.isValid() {
		return nil, fmt.Errorf("ladder: invalid phase: %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v, ok := phaseByName[string(text)]
	if !ok {
		return fmt.Errorf("ladder: invalid phase: %q", text)
	}
	*p = v
	return nil
}

// MarshalJSON implements json.Marshaler. Phase serializes as a JSON string.
func (p Phase) MarshalJSON() ([]byte, error) {
	text, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("ladder: invalid phase: %s", data)
	}
	return p.UnmarshalText([]byte(s))
}
