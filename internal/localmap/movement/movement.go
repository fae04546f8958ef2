// Package movement maps a desired turn angle onto bounded forward-speed and
// turn-rate scale factors, following the saturation scheme of Durham and
// Bullo's smooth nearness-diagram navigation.
package movement

import (
	"math"

	"github.com/banshee-data/localnav/internal/config"
	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/occupancy"
	"github.com/banshee-data/localnav/internal/localmap/vfh"
)

// Params configures the mapping.
type Params struct {
	MinSpeedScale   float64 // forward scale floor; never zero
	TorqueGain      float64
	FallbackForward float64 // forward scale when no direction is safe
}

// DefaultParams returns the built-in mapping parameters.
func DefaultParams() Params {
	return ParamsFromTuning(config.EmptyTuningConfig())
}

// ParamsFromTuning reads mapping parameters from cfg.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		MinSpeedScale:   cfg.GetMinSpeedScale(),
		TorqueGain:      cfg.GetTorqueGain(),
		FallbackForward: cfg.GetFallbackForward(),
	}
}

// Command is one actuation request. Both fields are scale factors in
// [-1, 1] of the robot's maximum forward speed and torque.
type Command struct {
	Forward float64
	Turn    float64
}

// Mapper converts turn angles to commands.
type Mapper struct {
	params Params
}

// NewMapper returns a Mapper using p.
func NewMapper(p Params) *Mapper {
	return &Mapper{params: p}
}

// sat clamps x to [lo, hi].
func sat(x, lo, hi float64) float64 {
	switch {
	case x <= lo:
		return lo
	case x >= hi:
		return hi
	}
	return x
}

// SpeedScale returns the forward scale for a turn of t radians: 1 when
// driving straight, falling linearly to the floor at |t| = π/4 and held
// there beyond.
func (m *Mapper) SpeedScale(t float64) float64 {
	return sat((geom.QuarterPi-math.Abs(t))/geom.QuarterPi, m.params.MinSpeedScale, 1)
}

// TorqueScale returns the turn-rate scale for a turn of t radians, linear
// with slope TorqueGain/(π/2) and saturating at ±1.
func (m *Mapper) TorqueScale(t float64) float64 {
	return sat(m.params.TorqueGain*t/(math.Pi/2), -1, 1)
}

// NewCommand combines a forward request in [-1, 1] with a turn angle.
func (m *Mapper) NewCommand(forward, turn float64) Command {
	return Command{
		Forward: forward * m.SpeedScale(turn),
		Turn:    m.TorqueScale(turn),
	}
}

// Outcome records how ApplyVFH produced its command.
type Outcome struct {
	Command Command
	// Safe is false when the navigator found no safe direction and the
	// fallback creep was used.
	Safe  bool
	Angle float64 // turn angle fed to NewCommand
}

// ApplyVFH steers towards desired through the navigator. direction is +1
// to drive forwards or -1 for reverse. When nothing is safe the robot
// creeps at FallbackForward while turning hard towards the freer side of
// the grid.
func (m *Mapper) ApplyVFH(nav *vfh.Navigator, s *vfh.State, g *occupancy.Grid, desired float64, ignorePucks bool, direction float64) Outcome {
	angle, ok := nav.ComputeTurnAngle(s, g, desired, ignorePucks)
	if !ok {
		angle = math.Pi / 2 * float64(g.FreerSide())
		return Outcome{
			Command: m.NewCommand(m.params.FallbackForward*direction, angle),
			Angle:   angle,
		}
	}
	return Outcome{Command: m.NewCommand(direction, angle), Safe: true, Angle: angle}
}
