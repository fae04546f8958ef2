// Package testutil provides shared test fixtures for the perception and
// navigation packages.
//
// This package centralises the synthetic sensor and frame painting helpers
// so each package's tests describe scenes in ground coordinates rather than
// pixel indices.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/calib"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// Synthetic returns the default synthetic calibration and its parameters.
func Synthetic(t testing.TB) (*calib.Calibration, calib.SyntheticParams) {
	t.Helper()
	p := calib.DefaultSynthetic()
	c, err := calib.Synthetic(p)
	if err != nil {
		t.Fatalf("synthetic calibration: %v", err)
	}
	return c, p
}

// Painter writes classes into a frame at ground-plane positions.
type Painter struct {
	Frame  *sensed.Frame
	Params calib.SyntheticParams
}

// NewPainter returns a Painter over an empty frame sized for p.
func NewPainter(p calib.SyntheticParams) *Painter {
	return &Painter{Frame: sensed.NewFrame(p.Width, p.Height), Params: p}
}

// Point paints the single pixel covering (x, y). It reports whether the
// point fell inside the image.
func (pt *Painter) Point(x, y float64, t sensed.Type) bool {
	i, j, ok := pt.Params.PixelFor(x, y)
	if ok {
		pt.Frame.Set(i, j, t)
	}
	return ok
}

// Disc paints every pixel whose ground point lies within r of centre.
func (pt *Painter) Disc(centre geom.Point, r float64, t sensed.Type) {
	pt.Rect(centre.X-r, centre.Y-r, centre.X+r, centre.Y+r, t, func(p geom.Point) bool {
		return geom.DistanceSq(p, centre) <= r*r
	})
}

// Rect paints every pixel whose ground point lies within the axis-aligned
// box, optionally restricted by keep.
func (pt *Painter) Rect(x0, y0, x1, y1 float64, t sensed.Type, keep func(geom.Point) bool) {
	p := pt.Params
	centre := float64(p.Width-1) / 2
	for j := 0; j < p.Height; j++ {
		for i := 0; i < p.Width; i++ {
			g := geom.Point{
				X: p.NearX + float64(p.Height-1-j)*p.PixelSize,
				Y: (centre - float64(i)) * p.PixelSize,
			}
			if g.X < x0 || g.X > x1 || g.Y < y0 || g.Y > y1 {
				continue
			}
			if keep != nil && !keep(g) {
				continue
			}
			pt.Frame.Set(i, j, t)
		}
	}
}

// ParseFrame builds a frame from ASCII rows, one character per pixel:
//
//	.  Nothing
//	#  Wall
//	R  Robot
//	h  Hidden
//	0-7  Puck colour index
//
// All rows must have the same length.
func ParseFrame(rows ...string) (*sensed.Frame, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}
	w := len(rows[0])
	f := sensed.NewFrame(w, len(rows))
	for j, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d columns, want %d", j, len(row), w)
		}
		for i, ch := range row {
			t, err := parseType(ch)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", j, i, err)
			}
			f.Set(i, j, t)
		}
	}
	return f, nil
}

// MustParseFrame is ParseFrame for fixtures; it fails the test on error.
func MustParseFrame(t testing.TB, rows ...string) *sensed.Frame {
	t.Helper()
	f, err := ParseFrame(rows...)
	if err != nil {
		t.Fatalf("parse frame: %v", err)
	}
	return f
}

// FormatFrame renders f in the ParseFrame alphabet.
func FormatFrame(f *sensed.Frame) string {
	var b strings.Builder
	for j := 0; j < f.Height; j++ {
		for i := 0; i < f.Width; i++ {
			b.WriteByte(typeChar(f.At(i, j)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func parseType(ch rune) (sensed.Type, error) {
	switch {
	case ch == '.':
		return sensed.Nothing, nil
	case ch == '#':
		return sensed.Wall, nil
	case ch == 'R':
		return sensed.Robot, nil
	case ch == 'h':
		return sensed.Hidden, nil
	case ch >= '0' && ch < '0'+sensed.NumPuckColours:
		return sensed.Puck(int(ch - '0')), nil
	}
	return sensed.Nothing, fmt.Errorf("unknown pixel %q", ch)
}

func typeChar(t sensed.Type) byte {
	switch t {
	case sensed.Nothing:
		return '.'
	case sensed.Wall:
		return '#'
	case sensed.Robot:
		return 'R'
	case sensed.Hidden:
		return 'h'
	}
	if k, ok := t.PuckIndex(); ok {
		return byte('0' + k)
	}
	return '?'
}
