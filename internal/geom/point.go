package geom

import "math"

// Point is a position on the ground plane in robot-frame coordinates.
type Point struct {
	X, Y float64
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// LengthSq returns the squared distance from the origin.
func (p Point) LengthSq() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Length returns the distance from the origin.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Bearing returns the angle of p relative to the +X (forward) axis.
// The origin has bearing 0.
func (p Point) Bearing() float64 {
	return math.Atan2(p.Y, p.X)
}

// DistanceSq returns the squared Euclidean distance between a and b.
func DistanceSq(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Less orders points by X, then Y. It gives clusters and their members a
// canonical order independent of how the input was produced.
func Less(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Centroid returns the arithmetic mean of pts. It returns the zero Point for
// an empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sumX, sumY float64
	for _, p := range pts {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(pts))
	return Point{X: sumX / n, Y: sumY / n}
}
