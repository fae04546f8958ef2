// Package calib holds the immutable per-pixel ground-plane calibration that
// underlies both occupancy mapping and object extraction.
//
// A Calibration is built once, validated at construction and then shared
// read-only between every agent that uses the same sensor model.
package calib

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/banshee-data/localnav/internal/geom"
)

// ErrMalformedCalibration is returned (wrapped) when calibration data cannot
// support a LocalMap: missing pixels inside the nominal envelope, bad sizes or
// bad distance limits.
var ErrMalformedCalibration = errors.New("malformed calibration")

// Pixel is the calibration of one image pixel: where its ray meets the
// ground plane, and whether it belongs to the gripper.
type Pixel struct {
	X, Y        float64 // ground-plane intersection, robot frame
	Valid       bool    // false for pixels with no ground intersection
	GripperBody bool    // part of the robot's own gripper; never sensed
	HoldRegion  bool    // inside the gripper's hold region
}

// Point returns the ground-plane position of the pixel.
func (p Pixel) Point() geom.Point {
	return geom.Point{X: p.X, Y: p.Y}
}

// Params describes the image and the limits applied to it.
type Params struct {
	Width  int
	Height int

	// Envelope is the nominal sensing envelope in pixel coordinates. Every
	// pixel inside it must carry calibration data.
	Envelope image.Rectangle

	// MaxSensedDistance bounds which pixels contribute to the occupancy
	// grid and to object extraction. May be +Inf.
	MaxSensedDistance float64

	// MaxClusterDistance bounds which cluster centroids are kept by the
	// cluster filter. May be +Inf.
	MaxClusterDistance float64
}

// Extents is the ground-plane bounding box of the sensed pixels.
type Extents struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Calibration is the validated, immutable per-pixel calibration.
type Calibration struct {
	params     Params
	pixels     []Pixel // row-major: j*Width + i
	holePixels int
	maxSensed2 float64
	maxCluster float64
	extents    Extents
}

// New validates params and pixels and returns the Calibration. pixels is
// row-major with len(pixels) == Width*Height; the slice is copied.
func New(params Params, pixels []Pixel) (*Calibration, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrMalformedCalibration, params.Width, params.Height)
	}
	if len(pixels) != params.Width*params.Height {
		return nil, fmt.Errorf("%w: have %d pixels, want %d", ErrMalformedCalibration, len(pixels), params.Width*params.Height)
	}
	if !(params.MaxSensedDistance > 0) {
		return nil, fmt.Errorf("%w: max sensed distance %v", ErrMalformedCalibration, params.MaxSensedDistance)
	}
	if !(params.MaxClusterDistance > 0) {
		return nil, fmt.Errorf("%w: max cluster distance %v", ErrMalformedCalibration, params.MaxClusterDistance)
	}
	bounds := image.Rect(0, 0, params.Width, params.Height)
	if params.Envelope.Empty() || !params.Envelope.In(bounds) {
		return nil, fmt.Errorf("%w: envelope %v not inside image %v", ErrMalformedCalibration, params.Envelope, bounds)
	}

	c := &Calibration{
		params:     params,
		pixels:     append([]Pixel(nil), pixels...),
		maxSensed2: params.MaxSensedDistance * params.MaxSensedDistance,
		maxCluster: params.MaxClusterDistance,
	}

	for j := params.Envelope.Min.Y; j < params.Envelope.Max.Y; j++ {
		for i := params.Envelope.Min.X; i < params.Envelope.Max.X; i++ {
			if !c.pixels[j*params.Width+i].Valid {
				return nil, fmt.Errorf("%w: pixel (%d,%d) inside envelope has no ground data", ErrMalformedCalibration, i, j)
			}
		}
	}

	ext := Extents{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	sensed := 0
	for _, p := range c.pixels {
		if !p.Valid {
			continue
		}
		if p.HoldRegion {
			c.holePixels++
		}
		if !c.WithinSensed(p) {
			continue
		}
		sensed++
		ext.MinX = math.Min(ext.MinX, p.X)
		ext.MaxX = math.Max(ext.MaxX, p.X)
		ext.MinY = math.Min(ext.MinY, p.Y)
		ext.MaxY = math.Max(ext.MaxY, p.Y)
	}
	if sensed == 0 {
		return nil, fmt.Errorf("%w: no pixel lies within max sensed distance %v", ErrMalformedCalibration, params.MaxSensedDistance)
	}
	c.extents = ext

	return c, nil
}

// Width returns the image width in pixels.
func (c *Calibration) Width() int { return c.params.Width }

// Height returns the image height in pixels.
func (c *Calibration) Height() int { return c.params.Height }

// Envelope returns the nominal sensing envelope.
func (c *Calibration) Envelope() image.Rectangle { return c.params.Envelope }

// At returns the calibration of pixel (i, j). Out-of-range pixels are
// returned as invalid.
func (c *Calibration) At(i, j int) Pixel {
	if i < 0 || j < 0 || i >= c.params.Width || j >= c.params.Height {
		return Pixel{}
	}
	return c.pixels[j*c.params.Width+i]
}

// HoldPixelCount returns the number of pixels flagged as hold region.
func (c *Calibration) HoldPixelCount() int { return c.holePixels }

// MaxSensedDistance returns the sensing cut-off distance.
func (c *Calibration) MaxSensedDistance() float64 { return c.params.MaxSensedDistance }

// MaxClusterDistance returns the cluster centroid cut-off distance.
func (c *Calibration) MaxClusterDistance() float64 { return c.maxCluster }

// WithinSensed reports whether p is valid and no farther than the max sensed
// distance.
func (c *Calibration) WithinSensed(p Pixel) bool {
	return p.Valid && p.X*p.X+p.Y*p.Y <= c.maxSensed2
}

// WithinClusterRange reports whether v is no farther than the max cluster
// distance.
func (c *Calibration) WithinClusterRange(v geom.Point) bool {
	return v.LengthSq() <= c.maxCluster*c.maxCluster
}

// Extents returns the ground-plane bounding box of every valid pixel within
// the max sensed distance.
func (c *Calibration) Extents() Extents { return c.extents }
