package cluster

import (
	"math"

	"github.com/banshee-data/localnav/internal/config"
	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/blobs"
	"github.com/banshee-data/localnav/internal/localmap/occupancy"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// FilterParams configures Filter.
type FilterParams struct {
	// Threshold is the cluster distance threshold, reused for the
	// cross-colour neighbour test.
	Threshold float64
	// MaxClusterDistance drops clusters whose centroid is farther away.
	MaxClusterDistance float64
	// RobotProximity drops clusters with a member strictly closer than this
	// to a Robot cell.
	RobotProximity float64
	// Reach is the pair of minimum-radius turning circles. Centroids on or
	// inside either circle are unreachable.
	Reach geom.TurningCircles
}

// FilterParamsFromTuning reads filter parameters from cfg.
// MaxClusterDistance comes from the calibration and is left unbounded.
func FilterParamsFromTuning(cfg *config.TuningConfig) FilterParams {
	return FilterParams{
		Threshold:          cfg.GetClusterDistanceThreshold(),
		MaxClusterDistance: math.Inf(1),
		RobotProximity:     cfg.GetRobotProximityDistance(),
		Reach: geom.TurningCircles{
			XOffset:       cfg.GetReachXOffset(),
			LateralOffset: cfg.GetTrackWidth() / 2,
			Radius:        cfg.GetMinTurningRadius() + cfg.GetReachMargin(),
		},
	}
}

// Reason names the rule that excluded a cluster.
type Reason int

const (
	Kept Reason = iota
	TooFar
	NearRobot
	IsHeld
	Unreachable
	WrongColour
	ForeignNeighbour
)

func (r Reason) String() string {
	switch r {
	case Kept:
		return "kept"
	case TooFar:
		return "too_far"
	case NearRobot:
		return "near_robot"
	case IsHeld:
		return "held"
	case Unreachable:
		return "unreachable"
	case WrongColour:
		return "wrong_colour"
	case ForeignNeighbour:
		return "foreign_neighbour"
	}
	return "unknown"
}

// Filter returns the clusters of raw that a robot in state held can act on,
// preserving raw's order. It has no memory between calls.
func Filter(raw []Cluster, held blobs.Held, grid *occupancy.Grid, p FilterParams) []Cluster {
	reasons := Classify(raw, held, grid, p)
	out := make([]Cluster, 0, len(raw))
	for i, c := range raw {
		if reasons[i] == Kept {
			out = append(out, c)
		}
	}
	return out
}

// Classify returns, for each cluster of raw, the first rule that excludes
// it or Kept.
func Classify(raw []Cluster, held blobs.Held, grid *occupancy.Grid, p FilterParams) []Reason {
	reasons := make([]Reason, len(raw))

	var robots []geom.Point
	if grid != nil {
		robots = grid.CellsOf(sensed.Robot)
	}

	// Differently coloured neighbours are found over the whole raw set, so
	// both members of every such pair are excluded regardless of order.
	foreign := make([]bool, len(raw))
	if held.Carrying {
		for i := range raw {
			for j := i + 1; j < len(raw); j++ {
				if raw[i].Colour != raw[j].Colour && raw[i].IsNeighbourTo(raw[j], p.Threshold) {
					foreign[i] = true
					foreign[j] = true
				}
			}
		}
	}

	maxD2 := p.MaxClusterDistance * p.MaxClusterDistance
	prox2 := p.RobotProximity * p.RobotProximity
	for i, c := range raw {
		switch {
		case c.Centroid.LengthSq() > maxD2:
			reasons[i] = TooFar
		case nearAny(c.Members, robots, prox2):
			reasons[i] = NearRobot
		case held.Carrying && c.Colour == held.Colour && c.Contains(held.Point):
			reasons[i] = IsHeld
		case !p.Reach.Reachable(c.Centroid):
			reasons[i] = Unreachable
		case held.Carrying && c.Colour != held.Colour:
			reasons[i] = WrongColour
		case foreign[i]:
			reasons[i] = ForeignNeighbour
		default:
			reasons[i] = Kept
		}
	}
	return reasons
}

func nearAny(members, robots []geom.Point, r2 float64) bool {
	for _, m := range members {
		for _, r := range robots {
			if geom.DistanceSq(m, r) < r2 {
				return true
			}
		}
	}
	return false
}
