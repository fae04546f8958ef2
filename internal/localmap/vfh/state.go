package vfh

// State is the per-agent memory of the navigator. It must not be shared
// between agents or used from more than one goroutine at a time.
type State struct {
	// Binary is the hysteresis histogram; true means blocked.
	Binary [NumSectors]bool
	// LastSector is the sector chosen by the last successful call.
	LastSector int
}

// NewState returns a reset State.
func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset clears the binary histogram and points the last direction straight
// ahead. Call it after any large motion the navigator did not see, such as
// a teleport or a behaviour switch.
func (s *State) Reset() {
	s.Binary = [NumSectors]bool{}
	s.LastSector = ZeroSector
}

// LastAngle returns the angle of LastSector.
func (s *State) LastAngle() float64 {
	return SectorAngle(s.LastSector)
}
