package sim

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap"
	"github.com/banshee-data/localnav/internal/localmap/cluster"
)

// Decision is what a behaviour asks the navigator for this tick.
type Decision struct {
	Target       float64 // desired heading in the agent frame
	IgnorePucks  bool
	GoalDirected bool // false selects wander-mode VFH
}

// Behaviour stands in for the task layer that decides where to go.
type Behaviour interface {
	Decide(m *localmap.LocalMap) Decision
}

// Wander draws a Gaussian heading about straight ahead every tick.
type Wander struct {
	heading distuv.Normal
}

// NewWander returns a Wander with the given standard deviation in radians.
// src must not be shared with another goroutine.
func NewWander(stdDev float64, src rand.Source) *Wander {
	return &Wander{heading: distuv.Normal{Mu: 0, Sigma: stdDev, Src: src}}
}

// Decide implements Behaviour.
func (w *Wander) Decide(*localmap.LocalMap) Decision {
	t := math.Max(-math.Pi/2, math.Min(math.Pi/2, w.heading.Rand()))
	return Decision{Target: t, GoalDirected: true}
}

// Explore has no target; the navigator keeps to its previous direction.
type Explore struct{}

// Decide implements Behaviour.
func (Explore) Decide(*localmap.LocalMap) Decision {
	return Decision{}
}

// Seek heads for the nearest member of the nearest cluster of one colour,
// and wanders while carrying or when none is in view.
type Seek struct {
	Colour int
	Wander *Wander
}

// Decide implements Behaviour.
func (s *Seek) Decide(m *localmap.LocalMap) Decision {
	if !m.Held().Carrying {
		c, ok := cluster.ClosestMember(m.ClustersOfColour(s.Colour), geom.Point{}, math.Inf(1))
		if ok {
			return Decision{Target: c.Centroid.Bearing(), IgnorePucks: true, GoalDirected: true}
		}
	}
	return s.Wander.Decide(m)
}
