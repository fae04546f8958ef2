// Package config loads the tuning parameters shared by the perception and
// navigation packages.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Every field is optional; the Get* accessors supply the default for any
// field that is absent, so partial files are safe.
type TuningConfig struct {
	// Occupancy grid and clustering
	CellSize                 *float64 `json:"cell_size,omitempty"`
	ClusterDistanceThreshold *float64 `json:"cluster_distance_threshold,omitempty"`
	RobotProximityDistance   *float64 `json:"robot_proximity_distance,omitempty"`

	// Held-object extraction
	CarryThresholdLo *float64 `json:"carry_threshold_lo,omitempty"`
	CarryThresholdHi *float64 `json:"carry_threshold_hi,omitempty"`
	ObjectDiameter   *float64 `json:"object_diameter,omitempty"`

	// Robot geometry
	TrackWidth       *float64 `json:"track_width,omitempty"`
	MinTurningRadius *float64 `json:"min_turning_radius,omitempty"`
	ReachMargin      *float64 `json:"reach_margin,omitempty"`
	ReachXOffset     *float64 `json:"reach_x_offset,omitempty"`

	// VFH+
	VFHMaxRange            *float64 `json:"vfh_max_range,omitempty"`
	VFHSafetyDistanceGamma *float64 `json:"vfh_safety_distance_gamma,omitempty"`
	VFHSafetyDistanceMask  *float64 `json:"vfh_safety_distance_mask,omitempty"`
	VFHMaskXOffset         *float64 `json:"vfh_mask_x_offset,omitempty"`
	VFHTauLo               *float64 `json:"vfh_tau_lo,omitempty"`
	VFHTauHi               *float64 `json:"vfh_tau_hi,omitempty"`
	VFHSMax                *int     `json:"vfh_s_max,omitempty"`
	VFHMuTarget            *float64 `json:"vfh_mu_target,omitempty"`
	VFHMuStraight          *float64 `json:"vfh_mu_straight,omitempty"`
	VFHMuPrevious          *float64 `json:"vfh_mu_previous,omitempty"`

	// Movement mapping
	MinSpeedScale   *float64 `json:"min_speed_scale,omitempty"`
	TorqueGain      *float64 `json:"torque_gain,omitempty"`
	FallbackForward *float64 `json:"fallback_forward,omitempty"`

	// Simulation harness
	WanderStdDev *float64 `json:"wander_std_dev,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults. It is what config/tuning.defaults.json contains.
func DefaultTuningConfig() *TuningConfig {
	e := EmptyTuningConfig()
	return &TuningConfig{
		CellSize:                 ptrFloat64(e.GetCellSize()),
		ClusterDistanceThreshold: ptrFloat64(e.GetClusterDistanceThreshold()),
		RobotProximityDistance:   ptrFloat64(e.GetRobotProximityDistance()),
		CarryThresholdLo:         ptrFloat64(e.GetCarryThresholdLo()),
		CarryThresholdHi:         ptrFloat64(e.GetCarryThresholdHi()),
		ObjectDiameter:           ptrFloat64(e.GetObjectDiameter()),
		TrackWidth:               ptrFloat64(e.GetTrackWidth()),
		MinTurningRadius:         ptrFloat64(e.GetMinTurningRadius()),
		ReachMargin:              ptrFloat64(e.GetReachMargin()),
		ReachXOffset:             ptrFloat64(e.GetReachXOffset()),
		VFHMaxRange:              ptrFloat64(e.GetVFHMaxRange()),
		VFHSafetyDistanceGamma:   ptrFloat64(e.GetVFHSafetyDistanceGamma()),
		VFHSafetyDistanceMask:    ptrFloat64(e.GetVFHSafetyDistanceMask()),
		VFHMaskXOffset:           ptrFloat64(e.GetVFHMaskXOffset()),
		VFHTauLo:                 ptrFloat64(e.GetVFHTauLo()),
		VFHTauHi:                 ptrFloat64(e.GetVFHTauHi()),
		VFHSMax:                  ptrInt(e.GetVFHSMax()),
		VFHMuTarget:              ptrFloat64(e.GetVFHMuTarget()),
		VFHMuStraight:            ptrFloat64(e.GetVFHMuStraight()),
		VFHMuPrevious:            ptrFloat64(e.GetVFHMuPrevious()),
		MinSpeedScale:            ptrFloat64(e.GetMinSpeedScale()),
		TorqueGain:               ptrFloat64(e.GetTorqueGain()),
		FallbackForward:          ptrFloat64(e.GetFallbackForward()),
		WanderStdDev:             ptrFloat64(e.GetWanderStdDev()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/localmap/vfh/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"cell_size", c.CellSize},
		{"cluster_distance_threshold", c.ClusterDistanceThreshold},
		{"object_diameter", c.ObjectDiameter},
		{"track_width", c.TrackWidth},
		{"min_turning_radius", c.MinTurningRadius},
		{"vfh_max_range", c.VFHMaxRange},
		{"vfh_safety_distance_gamma", c.VFHSafetyDistanceGamma},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, *p.v)
		}
	}

	nonNegative := []struct {
		name string
		v    *float64
	}{
		{"robot_proximity_distance", c.RobotProximityDistance},
		{"reach_margin", c.ReachMargin},
		{"vfh_safety_distance_mask", c.VFHSafetyDistanceMask},
		{"vfh_mu_target", c.VFHMuTarget},
		{"vfh_mu_straight", c.VFHMuStraight},
		{"vfh_mu_previous", c.VFHMuPrevious},
		{"torque_gain", c.TorqueGain},
		{"wander_std_dev", c.WanderStdDev},
	}
	for _, p := range nonNegative {
		if p.v != nil && *p.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", p.name, *p.v)
		}
	}

	if lo, hi := c.GetCarryThresholdLo(), c.GetCarryThresholdHi(); lo < 0 || hi > 1 || lo >= hi {
		return fmt.Errorf("carry thresholds must satisfy 0 <= lo < hi <= 1, got lo=%f hi=%f", lo, hi)
	}
	if lo, hi := c.GetVFHTauLo(), c.GetVFHTauHi(); lo < 0 || lo >= hi {
		return fmt.Errorf("vfh thresholds must satisfy 0 <= tau_lo < tau_hi, got tau_lo=%f tau_hi=%f", lo, hi)
	}
	if c.VFHSMax != nil && *c.VFHSMax < 2 {
		return fmt.Errorf("vfh_s_max must be at least 2, got %d", *c.VFHSMax)
	}
	if s := c.GetMinSpeedScale(); s <= 0 || s > 1 {
		return fmt.Errorf("min_speed_scale must be in (0, 1], got %f", s)
	}
	if f := c.GetFallbackForward(); f < 0 || f > 1 {
		return fmt.Errorf("fallback_forward must be in [0, 1], got %f", f)
	}

	return nil
}

func getFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// GetCellSize returns the occupancy cell size in ground units.
func (c *TuningConfig) GetCellSize() float64 { return getFloat(c.CellSize, 1.0) }

// GetClusterDistanceThreshold returns the strict edge distance between
// same-coloured object points.
func (c *TuningConfig) GetClusterDistanceThreshold() float64 {
	return getFloat(c.ClusterDistanceThreshold, 1.5)
}

// GetRobotProximityDistance returns the distance to another robot within
// which a cluster is considered contested.
func (c *TuningConfig) GetRobotProximityDistance() float64 {
	return getFloat(c.RobotProximityDistance, 10)
}

// GetCarryThresholdLo returns the hold-region fill ratio needed to keep carrying.
func (c *TuningConfig) GetCarryThresholdLo() float64 { return getFloat(c.CarryThresholdLo, 0.1) }

// GetCarryThresholdHi returns the hold-region fill ratio needed to start carrying.
func (c *TuningConfig) GetCarryThresholdHi() float64 { return getFloat(c.CarryThresholdHi, 0.4) }

// GetObjectDiameter returns the visible object diameter used to merge blob
// fragments split by the gripper.
func (c *TuningConfig) GetObjectDiameter() float64 { return getFloat(c.ObjectDiameter, 4.2) }

// GetTrackWidth returns the robot's track width.
func (c *TuningConfig) GetTrackWidth() float64 { return getFloat(c.TrackWidth, 25) }

// GetMinTurningRadius returns the robot's minimum turning radius.
func (c *TuningConfig) GetMinTurningRadius() float64 { return getFloat(c.MinTurningRadius, 12.5) }

// GetReachMargin returns the margin added to the turning radius for reachability.
func (c *TuningConfig) GetReachMargin() float64 { return getFloat(c.ReachMargin, 0) }

// GetReachXOffset returns the forward offset of the reachability circles.
func (c *TuningConfig) GetReachXOffset() float64 { return getFloat(c.ReachXOffset, 0) }

// GetVFHMaxRange returns the range at which obstacle magnitude falls to zero.
func (c *TuningConfig) GetVFHMaxRange() float64 { return getFloat(c.VFHMaxRange, 57.735) }

// GetVFHSafetyDistanceGamma returns the radius used for obstacle enlargement.
func (c *TuningConfig) GetVFHSafetyDistanceGamma() float64 {
	return getFloat(c.VFHSafetyDistanceGamma, 2)
}

// GetVFHSafetyDistanceMask returns the margin added to the turning radius
// when masking the histogram.
func (c *TuningConfig) GetVFHSafetyDistanceMask() float64 {
	return getFloat(c.VFHSafetyDistanceMask, 5)
}

// GetVFHMaskXOffset returns the forward offset of the masking circles.
// The sensor sits ahead of the wheel axle, so the default is negative.
func (c *TuningConfig) GetVFHMaskXOffset() float64 { return getFloat(c.VFHMaskXOffset, -6.5) }

// GetVFHTauLo returns the binary histogram release threshold.
func (c *TuningConfig) GetVFHTauLo() float64 { return getFloat(c.VFHTauLo, 0.7) }

// GetVFHTauHi returns the binary histogram block threshold.
func (c *TuningConfig) GetVFHTauHi() float64 { return getFloat(c.VFHTauHi, 0.85) }

// GetVFHSMax returns the opening width, in sectors, separating narrow from wide openings.
func (c *TuningConfig) GetVFHSMax() int {
	if c.VFHSMax == nil {
		return 8
	}
	return *c.VFHSMax
}

// GetVFHMuTarget returns the goal-directed target weight.
func (c *TuningConfig) GetVFHMuTarget() float64 { return getFloat(c.VFHMuTarget, 5) }

// GetVFHMuStraight returns the weight penalising deviation from straight ahead.
func (c *TuningConfig) GetVFHMuStraight() float64 { return getFloat(c.VFHMuStraight, 2) }

// GetVFHMuPrevious returns the weight penalising changes of chosen direction.
func (c *TuningConfig) GetVFHMuPrevious() float64 { return getFloat(c.VFHMuPrevious, 3) }

// GetMinSpeedScale returns the forward speed floor for sharp turns.
func (c *TuningConfig) GetMinSpeedScale() float64 { return getFloat(c.MinSpeedScale, 0.25) }

// GetTorqueGain returns the proportional gain mapping turn angle to turn rate.
func (c *TuningConfig) GetTorqueGain() float64 { return getFloat(c.TorqueGain, 2) }

// GetFallbackForward returns the forward speed used when no direction is safe.
func (c *TuningConfig) GetFallbackForward() float64 { return getFloat(c.FallbackForward, 0.5) }

// GetWanderStdDev returns the standard deviation of random wander headings.
func (c *TuningConfig) GetWanderStdDev() float64 { return getFloat(c.WanderStdDev, 0.5) }
