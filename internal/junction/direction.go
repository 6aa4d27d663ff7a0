package junction

import "fmt"

// Direction is the heading category of a vehicle relative to the
// intersection.
type Direction int

const (
	Stopped Direction = iota
	Forward
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "stopped"
	}
}

// MarshalText encodes the direction by name for JSON reports.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name written by MarshalText.
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "stopped":
		*d = Stopped
	case "forward":
		*d = Forward
	case "left":
		*d = Left
	case "right":
		*d = Right
	default:
		return fmt.Errorf("unknown direction %q", b)
	}
	return nil
}

// DirectionSet is the set of directions a lane permits. A nil set means
// no lane has been assigned yet.
type DirectionSet []Direction

// Contains reports whether d is a member of the set.
func (s DirectionSet) Contains(d Direction) bool {
	for _, v := range s {
		if v == d {
			return true
		}
	}
	return false
}
