package occupancy

import (
	"errors"
	"fmt"

	"github.com/banshee-data/localnav/internal/localmap/calib"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// ErrFrameSize is returned when a frame does not match the calibration's
// image size.
var ErrFrameSize = errors.New("frame size does not match calibration")

// Builder fills occupancy grids from classified frames.
type Builder struct {
	calib  *calib.Calibration
	layout Layout
}

// NewBuilder returns a Builder for frames produced under c.
func NewBuilder(c *calib.Calibration, l Layout) *Builder {
	return &Builder{calib: c, layout: l}
}

// Layout returns the grid layout the builder writes.
func (b *Builder) Layout() Layout { return b.layout }

// Build resets g and writes every sensed pixel of frame into it. Pixels that
// are uncalibrated, part of the gripper body or hold region, beyond the max
// sensed distance, Hidden, or outside the grid are skipped. When several pixels land in one
// cell the class with the highest sensed.Priority wins, so the result does
// not depend on pixel order.
func (b *Builder) Build(frame *sensed.Frame, g *Grid) error {
	if frame.Width != b.calib.Width() || frame.Height != b.calib.Height() {
		return fmt.Errorf("%w: frame %dx%d, calibration %dx%d",
			ErrFrameSize, frame.Width, frame.Height, b.calib.Width(), b.calib.Height())
	}
	if g.Layout != b.layout {
		return fmt.Errorf("grid layout %+v does not match builder layout %+v", g.Layout, b.layout)
	}

	g.Reset()
	for j := 0; j < frame.Height; j++ {
		for i := 0; i < frame.Width; i++ {
			t := frame.Pixels[j*frame.Width+i]
			if t == sensed.Hidden || t == sensed.Nothing {
				continue
			}
			px := b.calib.At(i, j)
			if px.GripperBody || px.HoldRegion || !b.calib.WithinSensed(px) {
				continue
			}
			col, row, ok := b.layout.Cell(px.Point())
			if !ok {
				continue
			}
			k := b.layout.Index(col, row)
			if t.Priority() > g.Cells[k].Priority() {
				g.Cells[k] = t
			}
		}
	}
	return nil
}
