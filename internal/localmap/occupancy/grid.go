package occupancy

import (
	"math"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// Grid is one tick's occupancy: a sensed class per cell.
type Grid struct {
	Layout
	Cells []sensed.Type // row-major, see Layout.Index
}

// NewGrid returns an empty grid with the given layout.
func NewGrid(l Layout) *Grid {
	return &Grid{Layout: l, Cells: make([]sensed.Type, l.NumCells())}
}

// At returns the class of cell (col, row). Out-of-range cells read as Nothing.
func (g *Grid) At(col, row int) sensed.Type {
	if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
		return sensed.Nothing
	}
	return g.Cells[g.Index(col, row)]
}

// Set stores t in cell (col, row). Out-of-range writes are ignored.
func (g *Grid) Set(col, row int, t sensed.Type) {
	if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
		return
	}
	g.Cells[g.Index(col, row)] = t
}

// Reset marks every cell as Nothing.
func (g *Grid) Reset() {
	for k := range g.Cells {
		g.Cells[k] = sensed.Nothing
	}
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	return &Grid{Layout: g.Layout, Cells: append([]sensed.Type(nil), g.Cells...)}
}

// Count returns the number of cells holding t.
func (g *Grid) Count(t sensed.Type) int {
	n := 0
	for _, c := range g.Cells {
		if c == t {
			n++
		}
	}
	return n
}

// PostFilter clears every cell holding t. Callers use it after a tick has
// been built to hide a class from later stages, e.g. a home marker colour
// that the navigator should drive over.
func (g *Grid) PostFilter(t sensed.Type) {
	for k, c := range g.Cells {
		if c == t {
			g.Cells[k] = sensed.Nothing
		}
	}
}

// CellsOf returns the ground points of every cell holding t, in row-major order.
func (g *Grid) CellsOf(t sensed.Type) []geom.Point {
	var pts []geom.Point
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if g.Cells[g.Index(col, row)] == t {
				pts = append(pts, g.Ground(col, row))
			}
		}
	}
	return pts
}

// FreerSide compares obstacle cells (walls and robots) in the left and right
// halves of the grid. It returns 1 if the left is at least as free as the
// right, otherwise -1.
func (g *Grid) FreerSide() int {
	half := g.Width / 2
	var left, right int
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if !g.Cells[g.Index(col, row)].IsObstacle() {
				continue
			}
			if col < half {
				left++
			} else {
				right++
			}
		}
	}
	if left <= right {
		return 1
	}
	return -1
}

// ClosestRobot returns the ground point of the nearest Robot cell, and false
// when no robot is in view.
func (g *Grid) ClosestRobot() (geom.Point, bool) {
	best := math.Inf(1)
	var closest geom.Point
	found := false
	for _, p := range g.CellsOf(sensed.Robot) {
		if d := p.LengthSq(); d < best {
			best = d
			closest = p
			found = true
		}
	}
	return closest, found
}
