package calib

import (
	"image"
	"math"
)

// SyntheticParams describes an idealised top-down sensor: each pixel sees a
// square patch of ground, rows run from far (row 0) to near, and columns run
// from left (+Y) to right (-Y). The gripper sits at the bottom centre.
type SyntheticParams struct {
	Width     int
	Height    int
	PixelSize float64 // ground units per pixel
	NearX     float64 // ground X of the bottom row

	HoldWidth  int // hold region size in pixels, centred on the bottom rows
	HoldHeight int
	BodyWidth  int // gripper body columns either side of the hold region

	MaxSensedDistance  float64
	MaxClusterDistance float64
}

// DefaultSynthetic returns the synthetic sensor used by the simulator and
// tests: 81x61 unit pixels covering x in [2, 62] and y in [-40, 40].
func DefaultSynthetic() SyntheticParams {
	return SyntheticParams{
		Width:              81,
		Height:             61,
		PixelSize:          1,
		NearX:              2,
		HoldWidth:          5,
		HoldHeight:         4,
		BodyWidth:          3,
		MaxSensedDistance:  65,
		MaxClusterDistance: 65,
	}
}

// PixelFor returns the pixel whose ground patch contains (x, y), and false
// when the point falls outside the image.
func (p SyntheticParams) PixelFor(x, y float64) (int, int, bool) {
	centre := float64(p.Width-1) / 2
	i := int(math.Round(centre - y/p.PixelSize))
	j := int(math.Round(float64(p.Height-1) - (x-p.NearX)/p.PixelSize))
	if i < 0 || j < 0 || i >= p.Width || j >= p.Height {
		return 0, 0, false
	}
	return i, j, true
}

// Synthetic builds a Calibration from p. Every pixel is valid, so the
// envelope is the whole image.
func Synthetic(p SyntheticParams) (*Calibration, error) {
	pixels := make([]Pixel, p.Width*p.Height)
	centre := float64(p.Width-1) / 2

	holdLeft := (p.Width - p.HoldWidth) / 2
	holdRight := holdLeft + p.HoldWidth // exclusive
	holdTop := p.Height - p.HoldHeight

	for j := 0; j < p.Height; j++ {
		for i := 0; i < p.Width; i++ {
			px := Pixel{
				X:     p.NearX + float64(p.Height-1-j)*p.PixelSize,
				Y:     (centre - float64(i)) * p.PixelSize,
				Valid: true,
			}
			if j >= holdTop {
				switch {
				case i >= holdLeft && i < holdRight:
					px.HoldRegion = true
				case i >= holdLeft-p.BodyWidth && i < holdRight+p.BodyWidth:
					px.GripperBody = true
				}
			}
			pixels[j*p.Width+i] = px
		}
	}

	return New(Params{
		Width:              p.Width,
		Height:             p.Height,
		Envelope:           image.Rect(0, 0, p.Width, p.Height),
		MaxSensedDistance:  p.MaxSensedDistance,
		MaxClusterDistance: p.MaxClusterDistance,
	}, pixels)
}
