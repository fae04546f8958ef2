package sim

import (
	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/calib"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// Sensor renders classified frames through a calibration: each pixel shows
// whatever lies at its calibrated ground point.
type Sensor struct {
	calib *calib.Calibration
	grip  geom.Point
}

// NewSensor returns a Sensor for c. The grip point, where a captured object
// is held, is the centroid of the hold region.
func NewSensor(c *calib.Calibration) *Sensor {
	var hold []geom.Point
	for j := 0; j < c.Height(); j++ {
		for i := 0; i < c.Width(); i++ {
			if px := c.At(i, j); px.Valid && px.HoldRegion {
				hold = append(hold, px.Point())
			}
		}
	}
	s := &Sensor{calib: c}
	if len(hold) > 0 {
		s.grip = geom.Centroid(hold)
	}
	return s
}

// Grip returns the grip point in the agent frame.
func (s *Sensor) Grip() geom.Point { return s.grip }

// NewFrame returns an empty frame of the calibration's size.
func (s *Sensor) NewFrame() *sensed.Frame {
	return sensed.NewFrame(s.calib.Width(), s.calib.Height())
}

// Render writes agent self's view of w into f. Gripper body pixels are
// Hidden and uncalibrated pixels Nothing.
func (s *Sensor) Render(w *World, self int, f *sensed.Frame) {
	pose := w.Robots[self]
	for j := 0; j < f.Height; j++ {
		for i := 0; i < f.Width; i++ {
			px := s.calib.At(i, j)
			switch {
			case !px.Valid:
				f.Set(i, j, sensed.Nothing)
			case px.GripperBody:
				f.Set(i, j, sensed.Hidden)
			default:
				f.Set(i, j, w.Classify(pose.ToWorld(px.Point()), self))
			}
		}
	}
}
