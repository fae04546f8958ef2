package sim

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// Pose is an agent's position and heading in world coordinates.
type Pose struct {
	X, Y    float64
	Heading float64 // radians, anticlockwise from +X
}

// Position returns the pose's location as an orb point.
func (p Pose) Position() orb.Point { return orb.Point{p.X, p.Y} }

// ToWorld maps a point in the agent's frame (+X forward, +Y left) to world
// coordinates.
func (p Pose) ToWorld(q geom.Point) orb.Point {
	s, c := math.Sincos(p.Heading)
	return orb.Point{p.X + c*q.X - s*q.Y, p.Y + s*q.X + c*q.Y}
}

// ToLocal maps a world point into the agent's frame.
func (p Pose) ToLocal(w orb.Point) geom.Point {
	s, c := math.Sincos(p.Heading)
	dx, dy := w.X()-p.X, w.Y()-p.Y
	return geom.Point{X: c*dx + s*dy, Y: -s*dx + c*dy}
}

// Puck is one object in the scene.
type Puck struct {
	Colour  int
	Pos     orb.Point
	Carrier int // agent index, or -1 when on the floor
}

// World is the shared scene. It is read concurrently while agents perceive
// and mutated only between ticks.
type World struct {
	Arena       orb.Bound
	Obstacles   orb.MultiPolygon
	Robots      []Pose
	RobotRadius float64
	Pucks       []Puck
	PuckRadius  float64
}

// NewWorld builds the initial scene for s.
func NewWorld(s *Scenario) *World {
	w := &World{
		Arena:       rectBound(s.Arena),
		RobotRadius: s.RobotRadius,
		PuckRadius:  s.PuckRadius,
	}
	for _, o := range s.Obstacles {
		w.Obstacles = append(w.Obstacles, rectBound(o).ToPolygon())
	}
	for _, a := range s.Agents {
		w.Robots = append(w.Robots, Pose{X: a.X, Y: a.Y, Heading: geom.ConstrainAngle(geom.Deg(a.Heading))})
	}
	for _, p := range s.Pucks {
		w.Pucks = append(w.Pucks, Puck{Colour: p.Colour, Pos: orb.Point{p.X, p.Y}, Carrier: -1})
	}
	return w
}

func rectBound(r Rect) orb.Bound {
	return orb.Bound{Min: orb.Point{r.X0, r.Y0}, Max: orb.Point{r.X1, r.Y1}}
}

// Classify returns what agent self would see on the ground at p. Walls win
// over robots, robots over objects. The agent's own body is not rendered.
func (w *World) Classify(p orb.Point, self int) sensed.Type {
	if !w.Arena.Contains(p) || planar.MultiPolygonContains(w.Obstacles, p) {
		return sensed.Wall
	}
	rr := w.RobotRadius * w.RobotRadius
	for i, r := range w.Robots {
		if i != self && planar.DistanceSquared(r.Position(), p) <= rr {
			return sensed.Robot
		}
	}
	pr := w.PuckRadius * w.PuckRadius
	for _, pk := range w.Pucks {
		if planar.DistanceSquared(pk.Pos, p) <= pr {
			return sensed.Puck(pk.Colour)
		}
	}
	return sensed.Nothing
}

// Carrying returns the index of the puck agent i carries, or -1.
func (w *World) Carrying(i int) int {
	for k, pk := range w.Pucks {
		if pk.Carrier == i {
			return k
		}
	}
	return -1
}
