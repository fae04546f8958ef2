// Package sensed defines the per-pixel classes produced by the external
// sensor simulation and the classified frame that carries one tick of them.
//
// Object colours are addressed by an explicit integer index in
// [0, NumPuckColours). Code that needs per-colour state uses fixed-size
// arrays keyed by that index rather than relying on declaration order.
package sensed

import "fmt"

// NumPuckColours is the number of distinguishable object colours.
const NumPuckColours = 8

// Type is the class sensed at one pixel or stored in one occupancy cell.
type Type uint8

const (
	// Nothing is free ground.
	Nothing Type = iota
	// Wall is a static obstacle.
	Wall
	// Robot is another agent.
	Robot
	// Hidden marks pixels occluded by the robot's own body. Never mapped.
	Hidden

	puckBase
)

var puckNames = [NumPuckColours]string{"red", "green", "magenta", "cyan", "orange", "gray", "yellow", "pink"}

// Puck returns the Type for object colour k. It panics if k is out of range,
// which is a programming error rather than a runtime condition.
func Puck(k int) Type {
	if k < 0 || k >= NumPuckColours {
		panic(fmt.Sprintf("sensed: puck colour index %d out of range", k))
	}
	return puckBase + Type(k)
}

// PuckIndex returns the colour index of t and true if t is an object colour.
func (t Type) PuckIndex() (int, bool) {
	if t >= puckBase && t < puckBase+NumPuckColours {
		return int(t - puckBase), true
	}
	return -1, false
}

// IsPuck reports whether t is any object colour.
func (t Type) IsPuck() bool {
	_, ok := t.PuckIndex()
	return ok
}

// IsObstacle reports whether t is something the robot must steer around
// regardless of task: walls and other robots.
func (t Type) IsObstacle() bool {
	return t == Wall || t == Robot
}

func (t Type) String() string {
	switch t {
	case Nothing:
		return "nothing"
	case Wall:
		return "wall"
	case Robot:
		return "robot"
	case Hidden:
		return "hidden"
	}
	if k, ok := t.PuckIndex(); ok {
		return puckNames[k] + "_puck"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ColourName returns the human-readable name of colour index k.
func ColourName(k int) string {
	if k < 0 || k >= NumPuckColours {
		return fmt.Sprintf("colour(%d)", k)
	}
	return puckNames[k]
}

// Priority ranks classes for cells that receive more than one pixel in the
// same tick. Higher wins: Wall > Robot > Puck(0) > ... > Puck(7) > Nothing.
// Hidden is never written and ranks lowest.
func (t Type) Priority() int {
	switch t {
	case Wall:
		return 2 + NumPuckColours
	case Robot:
		return 1 + NumPuckColours
	case Nothing:
		return 0
	}
	if k, ok := t.PuckIndex(); ok {
		return NumPuckColours - k
	}
	return -1
}
