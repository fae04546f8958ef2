// Package occupancy builds the egocentric occupancy grid: a fixed-resolution
// image of what was sensed on the ground around the robot this tick.
package occupancy

import (
	"math"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/calib"
)

// Layout is the fixed affine transform between grid cells and the ground
// plane. Columns run from +Y (col 0) to -Y; rows run from x = 0 forwards.
type Layout struct {
	Width    int     // number of columns
	Height   int     // number of rows
	CellSize float64 // ground units per cell
	MaxY     float64 // ground Y of column 0
}

// NewLayout derives the grid dimensions from the calibration's sensed
// extents. Rows start at x = 0 rather than the nearest sensed x so that row
// index equals forward distance in cells.
func NewLayout(c *calib.Calibration, cellSize float64) Layout {
	ext := c.Extents()
	width := int(math.Round((ext.MaxY-ext.MinY)/cellSize)) + 1
	height := int(math.Round(math.Max(ext.MaxX, 0)/cellSize)) + 1
	return Layout{
		Width:    width,
		Height:   height,
		CellSize: cellSize,
		MaxY:     ext.MaxY,
	}
}

// Cell maps a ground point to its cell. ok is false when the point falls
// outside the grid, e.g. behind the robot.
func (l Layout) Cell(p geom.Point) (col, row int, ok bool) {
	col = int(math.Round((l.MaxY - p.Y) / l.CellSize))
	row = int(math.Round(p.X / l.CellSize))
	ok = col >= 0 && row >= 0 && col < l.Width && row < l.Height
	return col, row, ok
}

// Ground returns the ground point at the centre of cell (col, row).
func (l Layout) Ground(col, row int) geom.Point {
	return geom.Point{
		X: float64(row) * l.CellSize,
		Y: l.MaxY - float64(col)*l.CellSize,
	}
}

// NumCells returns Width*Height.
func (l Layout) NumCells() int {
	return l.Width * l.Height
}

// Index returns the row-major slice index of cell (col, row).
func (l Layout) Index(col, row int) int {
	return row*l.Width + col
}
