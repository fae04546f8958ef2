package vfh

import (
	"math"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/occupancy"
)

const (
	// NumSectors is odd so that one sector points straight ahead.
	NumSectors = 73
	StartAngle = math.Pi / 2
	StopAngle  = -math.Pi / 2
	// Alpha is the angular width of a sector.
	Alpha = (StartAngle - StopAngle) / (NumSectors - 1)
)

// ZeroSector is the straight-ahead sector.
const ZeroSector = (NumSectors - 1) / 2

// SectorAngle returns the centre angle of sector k. Sector ZeroSector is
// exactly 0.
func SectorAngle(k int) float64 {
	return float64(ZeroSector-k) * Alpha
}

// SectorOf returns the sector nearest to angle. The result lies outside
// [0, NumSectors) for angles beyond ±π/2.
func SectorOf(angle float64) int {
	return int(math.Round((StartAngle - angle) / Alpha))
}

// Geometry holds per-cell values derived only from the grid layout. It is
// immutable after construction and safe to share between navigators.
type Geometry struct {
	layout  occupancy.Layout
	base    []float64 // distance-decayed magnitude
	bearing []float64
	enlarge []float64 // half-angle subtended by the safety disc
	mask    geom.TurningCircles
}

// NewGeometry precomputes magnitude, bearing and enlargement for every cell
// of l. Cells within the safety distance, including the origin, get the
// maximal enlargement of π/2.
func NewGeometry(l occupancy.Layout, p Params) *Geometry {
	n := l.NumCells()
	g := &Geometry{
		layout:  l,
		base:    make([]float64, n),
		bearing: make([]float64, n),
		enlarge: make([]float64, n),
		mask: geom.TurningCircles{
			XOffset:       p.MaskXOffset,
			LateralOffset: p.TrackWidth / 2,
			Radius:        p.MinTurningRadius + p.MaskSafety,
		},
	}
	r2 := p.MaxRange * p.MaxRange
	for row := 0; row < l.Height; row++ {
		for col := 0; col < l.Width; col++ {
			k := l.Index(col, row)
			v := l.Ground(col, row)
			d2 := v.LengthSq()

			g.base[k] = math.Max(0, 1-d2/r2)
			g.bearing[k] = v.Bearing()
			if d := math.Sqrt(d2); d <= p.SafetyGamma {
				g.enlarge[k] = math.Pi / 2
			} else {
				g.enlarge[k] = math.Asin(p.SafetyGamma / d)
			}
		}
	}
	return g
}

// Layout returns the grid layout the geometry was built for.
func (g *Geometry) Layout() occupancy.Layout { return g.layout }

// Mask returns the turning circles used for trajectory masking.
func (g *Geometry) Mask() geom.TurningCircles { return g.mask }
