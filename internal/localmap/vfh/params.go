package vfh

import "github.com/banshee-data/localnav/internal/config"

// Params configures the navigator.
type Params struct {
	MaxRange         float64 // magnitude falls linearly in d² to zero here
	SafetyGamma      float64 // safety radius for obstacle enlargement
	MaskSafety       float64 // margin added to the turning radius for masking
	MaskXOffset      float64 // forward offset of the masking circles
	TrackWidth       float64
	MinTurningRadius float64

	TauLo, TauHi float64 // binary histogram hysteresis
	SMax         int     // openings at least this wide are "wide"

	MuTarget   float64 // 0 when not goal-directed
	MuStraight float64
	MuPrevious float64

	// GoalDirected adds the target sector as a candidate in wide openings.
	// Otherwise straight ahead and the previous direction are added.
	GoalDirected bool
}

// DefaultParams returns the built-in parameters for the given mode.
func DefaultParams(goalDirected bool) Params {
	return ParamsFromTuning(config.EmptyTuningConfig(), goalDirected)
}

// ParamsFromTuning reads navigator parameters from cfg. In wander mode the
// target weight is forced to zero.
func ParamsFromTuning(cfg *config.TuningConfig, goalDirected bool) Params {
	p := Params{
		MaxRange:         cfg.GetVFHMaxRange(),
		SafetyGamma:      cfg.GetVFHSafetyDistanceGamma(),
		MaskSafety:       cfg.GetVFHSafetyDistanceMask(),
		MaskXOffset:      cfg.GetVFHMaskXOffset(),
		TrackWidth:       cfg.GetTrackWidth(),
		MinTurningRadius: cfg.GetMinTurningRadius(),
		TauLo:            cfg.GetVFHTauLo(),
		TauHi:            cfg.GetVFHTauHi(),
		SMax:             cfg.GetVFHSMax(),
		MuTarget:         cfg.GetVFHMuTarget(),
		MuStraight:       cfg.GetVFHMuStraight(),
		MuPrevious:       cfg.GetVFHMuPrevious(),
		GoalDirected:     goalDirected,
	}
	if !goalDirected {
		p.MuTarget = 0
	}
	return p
}
