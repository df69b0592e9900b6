package crossword

import (
	"encoding/json"
	"fmt"
)

// Direction is the axis a word runs along.
type Direction uint8

const (
	Across Direction = iota
	Down
)

// Perpendicular returns the other direction.
func (d Direction) Perpendicular() Direction {
	if d == Across {
		return Down
	}
	return Across
}

// step returns the row and column delta between consecutive letters.
func (d Direction) step() (dr, dc int) {
	if d == Across {
		return 0, 1
	}
	return 1, 0
}

func (d Direction) String() string {
	switch d {
	case Across:
		return "across"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "across":
		*d = Across
	case "down":
		*d = Down
	default:
		return fmt.Errorf("unknown direction %q", s)
	}
	return nil
}
