package geom

import "math"

// QuarterPi is π/4, the turn magnitude at which forward speed reaches its floor.
const QuarterPi = math.Pi / 4

// ConstrainAngle maps an angle in radians to the range (-π, π].
func ConstrainAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// SignedAngularDifference returns the shortest signed rotation taking b to a,
// in (-π, π].
func SignedAngularDifference(a, b float64) float64 {
	return ConstrainAngle(a - b)
}

// AngularDifference returns the magnitude of the shortest rotation between a
// and b, in [0, π].
func AngularDifference(a, b float64) float64 {
	return math.Abs(SignedAngularDifference(a, b))
}

// Deg converts degrees to radians.
func Deg(d float64) float64 {
	return d * math.Pi / 180
}
