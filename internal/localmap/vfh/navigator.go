package vfh

import (
	"math"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/occupancy"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// Candidate is a direction proposed by stage 4 and its stage 5 cost.
type Candidate struct {
	Sector int
	Cost   float64
}

// Angle returns the candidate's direction.
func (c Candidate) Angle() float64 { return SectorAngle(c.Sector) }

// Evaluation exposes every intermediate stage of one call.
type Evaluation struct {
	Primary    [NumSectors]float64
	Binary     [NumSectors]bool // true = blocked
	Masked     [NumSectors]bool // true = blocked
	LeftLimit  float64
	RightLimit float64
	Candidates []Candidate
}

// Best returns the lowest-cost candidate; the first wins ties.
func (e *Evaluation) Best() (Candidate, bool) {
	if len(e.Candidates) == 0 {
		return Candidate{}, false
	}
	best := e.Candidates[0]
	for _, c := range e.Candidates[1:] {
		if c.Cost < best.Cost {
			best = c
		}
	}
	return best, true
}

// TargetCheck is the result of CheckTargetAngle.
type TargetCheck struct {
	// TargetFree reports whether the requested sector itself was a candidate.
	TargetFree bool
	// Angle is the direction chosen.
	Angle float64
}

// Navigator runs VFH+ for one mode over a shared Geometry. It holds no
// per-agent state and may be shared; the caller supplies State.
type Navigator struct {
	geo    *Geometry
	params Params
}

// NewNavigator returns a navigator using geo.
func NewNavigator(geo *Geometry, p Params) *Navigator {
	return &Navigator{geo: geo, params: p}
}

// Params returns the navigator's parameters.
func (n *Navigator) Params() Params { return n.params }

// ComputeTurnAngle returns the lowest-cost safe direction relative to the
// robot's heading, and false when no direction is safe. target is ignored
// unless the navigator is goal-directed. With ignorePucks, object cells are
// not treated as obstacles. On success s.LastSector is updated.
func (n *Navigator) ComputeTurnAngle(s *State, g *occupancy.Grid, target float64, ignorePucks bool) (float64, bool) {
	ev := n.Evaluate(s, g, target, ignorePucks)
	best, ok := ev.Best()
	if !ok {
		return 0, false
	}
	s.LastSector = best.Sector
	return best.Angle(), true
}

// CheckTargetAngle runs the same stages as ComputeTurnAngle but chooses the
// target sector whenever it is a candidate, reporting whether it was. It
// falls back to the lowest-cost direction otherwise.
func (n *Navigator) CheckTargetAngle(s *State, g *occupancy.Grid, target float64, ignorePucks bool) (TargetCheck, bool) {
	ev := n.Evaluate(s, g, target, ignorePucks)
	if len(ev.Candidates) == 0 {
		return TargetCheck{}, false
	}

	targetSector := SectorOf(target)
	for _, c := range ev.Candidates {
		if c.Sector == targetSector {
			s.LastSector = c.Sector
			return TargetCheck{TargetFree: true, Angle: c.Angle()}, true
		}
	}

	best, _ := ev.Best()
	s.LastSector = best.Sector
	return TargetCheck{Angle: best.Angle()}, true
}

// Evaluate runs all stages and returns the intermediate results. It updates
// s.Binary but not s.LastSector. A grid whose layout differs from the
// geometry's is treated as fully blocked.
func (n *Navigator) Evaluate(s *State, g *occupancy.Grid, target float64, ignorePucks bool) Evaluation {
	var ev Evaluation
	if g.Layout != n.geo.layout || len(g.Cells) != len(n.geo.base) {
		for k := range ev.Masked {
			ev.Binary[k], ev.Masked[k] = true, true
		}
		return ev
	}
	n.primary(&ev, g, ignorePucks)
	n.binary(&ev, s)
	n.masked(&ev, g, ignorePucks)
	n.candidates(&ev, s, target)
	return ev
}

func (n *Navigator) obstacle(t sensed.Type, ignorePucks bool) bool {
	if t == sensed.Nothing || t == sensed.Hidden {
		return false
	}
	return !(ignorePucks && t.IsPuck())
}

func (n *Navigator) primary(ev *Evaluation, g *occupancy.Grid, ignorePucks bool) {
	geo := n.geo
	for k, t := range g.Cells {
		if !n.obstacle(t, ignorePucks) {
			continue
		}
		b, e := geo.bearing[k], geo.enlarge[k]
		start := max(SectorOf(b+e), 0)
		stop := min(SectorOf(b-e), NumSectors-1)
		for s := start; s <= stop; s++ {
			ev.Primary[s] = math.Max(ev.Primary[s], geo.base[k])
		}
	}
}

func (n *Navigator) binary(ev *Evaluation, s *State) {
	for k, v := range ev.Primary {
		switch {
		case v > n.params.TauHi:
			s.Binary[k] = true
		case v < n.params.TauLo:
			s.Binary[k] = false
		}
	}
	ev.Binary = s.Binary
}

func (n *Navigator) masked(ev *Evaluation, g *occupancy.Grid, ignorePucks bool) {
	mask := n.geo.mask
	left, right := StartAngle, StopAngle
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			k := g.Index(col, row)
			if !n.obstacle(g.Cells[k], ignorePucks) {
				continue
			}
			v := g.Ground(col, row)
			b := n.geo.bearing[k]
			if b < 0 && b > right && mask.InRight(v) {
				right = b
			}
			if b > 0 && b < left && mask.InLeft(v) {
				left = b
			}
		}
	}
	ev.LeftLimit, ev.RightLimit = left, right

	tightLeft, tightRight := left < StartAngle, right > StopAngle
	for k := range ev.Masked {
		a := SectorAngle(k)
		ev.Masked[k] = ev.Binary[k] || (tightLeft && a > left) || (tightRight && a < right)
	}
}

func (n *Navigator) candidates(ev *Evaluation, s *State, target float64) {
	targetSector := SectorOf(target)
	for k := 0; k < NumSectors; {
		if ev.Masked[k] {
			k++
			continue
		}
		l := k
		for k < NumSectors && !ev.Masked[k] {
			k++
		}
		n.addOpening(ev, l, k-1, targetSector, s.LastSector)
	}

	lastAngle := SectorAngle(s.LastSector)
	p := n.params
	for i := range ev.Candidates {
		a := ev.Candidates[i].Angle()
		ev.Candidates[i].Cost = p.MuTarget*geom.AngularDifference(a, target) +
			p.MuStraight*geom.AngularDifference(a, 0) +
			p.MuPrevious*geom.AngularDifference(a, lastAngle)
	}
}

// addOpening adds the candidates for the opening [l, r].
func (n *Navigator) addOpening(ev *Evaluation, l, r, targetSector, lastSector int) {
	add := func(k int) { ev.Candidates = append(ev.Candidates, Candidate{Sector: k}) }
	in := func(k int) bool { return k >= l && k <= r }

	sMax := n.params.SMax
	if r-l+1 < sMax {
		add((l + r) / 2)
		return
	}
	add(l + sMax/2)
	add(r - sMax/2)
	if n.params.GoalDirected {
		if in(targetSector) {
			add(targetSector)
		}
		return
	}
	if in(ZeroSector) {
		add(ZeroSector)
	}
	if lastSector != ZeroSector && in(lastSector) {
		add(lastSector)
	}
}
