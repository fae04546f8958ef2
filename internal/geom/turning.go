package geom

// TurningCircles models the two tightest circular trajectories available to
// a differential-drive robot: one turning left, one turning right. The circle
// centres lie at (XOffset, ±LateralOffset) in the robot frame.
type TurningCircles struct {
	XOffset       float64 // forward offset of both centres (negative = behind the sensor)
	LateralOffset float64 // half the track width
	Radius        float64 // minimum turning radius plus safety margin
}

// Left returns the centre of the left-turn circle.
func (c TurningCircles) Left() Point {
	return Point{X: c.XOffset, Y: c.LateralOffset}
}

// Right returns the centre of the right-turn circle.
func (c TurningCircles) Right() Point {
	return Point{X: c.XOffset, Y: -c.LateralOffset}
}

// InLeft reports whether p lies strictly inside the left circle.
func (c TurningCircles) InLeft(p Point) bool {
	return DistanceSq(p, c.Left()) < c.Radius*c.Radius
}

// InRight reports whether p lies strictly inside the right circle.
func (c TurningCircles) InRight(p Point) bool {
	return DistanceSq(p, c.Right()) < c.Radius*c.Radius
}

// Reachable reports whether p can be driven to without the robot having to
// turn tighter than its minimum radius. Points inside or on either circle are
// unreachable.
func (c TurningCircles) Reachable(p Point) bool {
	r2 := c.Radius * c.Radius
	return DistanceSq(p, c.Left()) > r2 && DistanceSq(p, c.Right()) > r2
}
