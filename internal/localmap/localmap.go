// Package localmap is the per-agent view of the world for one tick. Update
// turns a classified frame into an occupancy grid, the set of object
// clusters the agent can act on, and the held-object state.
//
// A LocalMap belongs to one agent and is not safe for concurrent use. The
// Calibration it is built from is immutable and may be shared.
package localmap

import (
	"errors"
	"fmt"

	"github.com/banshee-data/localnav/internal/config"
	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/blobs"
	"github.com/banshee-data/localnav/internal/localmap/calib"
	"github.com/banshee-data/localnav/internal/localmap/cluster"
	"github.com/banshee-data/localnav/internal/localmap/occupancy"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// LocalMap holds one agent's perception state.
type LocalMap struct {
	calib     *calib.Calibration
	builder   *occupancy.Builder
	extractor *blobs.Extractor
	filter    cluster.FilterParams

	grid        *occupancy.Grid
	points      blobs.ObjectPoints
	held        blobs.Held
	heldCluster cluster.Cluster
	hasHeld     bool
	raw         []cluster.Cluster
	clusters    []cluster.Cluster
	ticks       uint64
}

// New returns a LocalMap for frames produced under c. A nil cfg uses the
// built-in defaults.
func New(c *calib.Calibration, cfg *config.TuningConfig) (*LocalMap, error) {
	if c == nil {
		return nil, errors.New("localmap: nil calibration")
	}
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("localmap: invalid tuning config: %w", err)
	}

	layout := occupancy.NewLayout(c, cfg.GetCellSize())
	fp := cluster.FilterParamsFromTuning(cfg)
	fp.MaxClusterDistance = c.MaxClusterDistance()

	return &LocalMap{
		calib:     c,
		builder:   occupancy.NewBuilder(c, layout),
		extractor: blobs.NewExtractor(c, blobs.ParamsFromTuning(cfg)),
		filter:    fp,
		grid:      occupancy.NewGrid(layout),
		held:      blobs.NotHeld,
	}, nil
}

// Update processes one tick. On error the previous tick's state is left
// unchanged.
func (m *LocalMap) Update(frame *sensed.Frame) error {
	if frame == nil {
		return errors.New("localmap: nil frame")
	}
	if err := m.builder.Build(frame, m.grid); err != nil {
		return fmt.Errorf("localmap: %w", err)
	}

	prev := m.held
	m.points, m.held = m.extractor.Extract(frame, prev)
	if m.held.Carrying != prev.Carrying || m.held.Colour != prev.Colour {
		Diagf("tick %d: carrying %s -> %s", m.ticks, describeHeld(prev), describeHeld(m.held))
	}

	m.raw = cluster.ExtractAll(&m.points, m.filter.Threshold)
	m.heldCluster, m.hasHeld = cluster.Cluster{}, false
	if m.held.Carrying {
		m.heldCluster, m.hasHeld = cluster.Holding(m.raw, m.held.Point, m.held.Colour)
	}
	m.clusters = cluster.Filter(m.raw, m.held, m.grid, m.filter)

	Tracef("tick %d: objects=%d raw=%d kept=%d walls=%d robots=%d",
		m.ticks, m.points.Total(), len(m.raw), len(m.clusters),
		m.grid.Count(sensed.Wall), m.grid.Count(sensed.Robot))
	m.ticks++
	return nil
}

func describeHeld(h blobs.Held) string {
	if !h.Carrying {
		return "nothing"
	}
	return sensed.ColourName(h.Colour)
}

// Calibration returns the calibration the map was built from.
func (m *LocalMap) Calibration() *calib.Calibration { return m.calib }

// Layout returns the occupancy grid layout.
func (m *LocalMap) Layout() occupancy.Layout { return m.grid.Layout }

// Grid returns this tick's occupancy grid. It is overwritten by Update.
func (m *LocalMap) Grid() *occupancy.Grid { return m.grid }

// Held returns this tick's held-object state.
func (m *LocalMap) Held() blobs.Held { return m.held }

// Points returns this tick's object points by colour.
func (m *LocalMap) Points() blobs.ObjectPoints { return m.points }

// Clusters returns the filtered clusters.
func (m *LocalMap) Clusters() []cluster.Cluster { return m.clusters }

// RawClusters returns every cluster found this tick before filtering.
func (m *LocalMap) RawClusters() []cluster.Cluster { return m.raw }

// Reasons reports, for each raw cluster, why the filter kept or removed it.
func (m *LocalMap) Reasons() []cluster.Reason {
	return cluster.Classify(m.raw, m.held, m.grid, m.filter)
}

// HeldCluster returns the raw cluster containing the held object.
func (m *LocalMap) HeldCluster() (cluster.Cluster, bool) {
	return m.heldCluster, m.hasHeld
}

// ClustersOfColour returns the filtered clusters of colour k.
func (m *LocalMap) ClustersOfColour(k int) []cluster.Cluster {
	return cluster.OfColour(m.clusters, k)
}

// RawClustersOfColour returns the unfiltered clusters of colour k.
func (m *LocalMap) RawClustersOfColour(k int) []cluster.Cluster {
	return cluster.OfColour(m.raw, k)
}

// ClosestPuckAsCluster returns the filtered-cluster member nearest v,
// strictly within maxDist, as a single-member cluster. Members are used
// rather than the unfiltered points so that a cluster excluded as a whole
// is never picked through one of its objects.
func (m *LocalMap) ClosestPuckAsCluster(v geom.Point, maxDist float64) (cluster.Cluster, bool) {
	return cluster.ClosestMember(m.clusters, v, maxDist)
}

// ClosestClusterTo returns the filtered cluster whose centroid is nearest v,
// strictly within maxDist. The held cluster is never returned.
func (m *LocalMap) ClosestClusterTo(v geom.Point, maxDist float64) (cluster.Cluster, bool) {
	return cluster.ClosestCentroid(m.clusters, v, maxDist, func(c cluster.Cluster) bool {
		return m.hasHeld && c.Equal(m.heldCluster)
	})
}

// ContainingCluster returns the first filtered cluster with a member
// strictly within the cluster distance threshold of v.
func (m *LocalMap) ContainingCluster(v geom.Point) (cluster.Cluster, bool) {
	return cluster.Containing(m.clusters, v, m.filter.Threshold)
}

// PostFilterClusters removes the filtered clusters of colour k until the
// next Update.
func (m *LocalMap) PostFilterClusters(k int) {
	m.clusters = cluster.WithoutColour(m.clusters, k)
}

// PostFilterOccupancy clears every grid cell of class t until the next
// Update.
func (m *LocalMap) PostFilterOccupancy(t sensed.Type) {
	m.grid.PostFilter(t)
}

// ClosestRobot returns the ground point of the nearest Robot cell.
func (m *LocalMap) ClosestRobot() (geom.Point, bool) {
	return m.grid.ClosestRobot()
}

// FreerSide returns 1 when the left half of the grid has no more obstacles
// than the right, otherwise -1.
func (m *LocalMap) FreerSide() int {
	return m.grid.FreerSide()
}

// IsReachable reports whether v lies strictly outside both minimum-radius
// turning circles.
func (m *LocalMap) IsReachable(v geom.Point) bool {
	return m.filter.Reach.Reachable(v)
}
