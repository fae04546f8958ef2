package cluster

import (
	"math"

	"github.com/banshee-data/localnav/internal/geom"
)

// spatialIndex buckets points into a uniform grid so that neighbour queries
// only inspect the 3x3 block of cells around a point. With the cell size set
// to the query radius every pair closer than the radius shares a block.
type spatialIndex struct {
	cellSize float64
	grid     map[int64][]int // cell ID → point indices
}

func newSpatialIndex(cellSize float64) *spatialIndex {
	return &spatialIndex{cellSize: cellSize, grid: make(map[int64][]int)}
}

func (si *spatialIndex) build(points []geom.Point) {
	si.grid = make(map[int64][]int, len(points))
	for i, p := range points {
		cx, cy := si.cell(p)
		id := cellID(cx, cy)
		si.grid[id] = append(si.grid[id], i)
	}
}

func (si *spatialIndex) cell(p geom.Point) (int64, int64) {
	return int64(math.Floor(p.X / si.cellSize)), int64(math.Floor(p.Y / si.cellSize))
}

// cellID combines signed cell coordinates with zigzag encoding followed by
// Szudzik's pairing function.
func cellID(cx, cy int64) int64 {
	a := zigzag(cx)
	b := zigzag(cy)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}

// pairsWithin calls fn once for every pair i < j with distance strictly less
// than radius.
func (si *spatialIndex) pairsWithin(points []geom.Point, radius float64, fn func(i, j int)) {
	r2 := radius * radius
	for i, p := range points {
		cx, cy := si.cell(p)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, j := range si.grid[cellID(cx+dx, cy+dy)] {
					if j <= i {
						continue
					}
					if geom.DistanceSq(p, points[j]) < r2 {
						fn(i, j)
					}
				}
			}
		}
	}
}
