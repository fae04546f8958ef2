package localmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/localnav/internal/config"
	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/calib"
	"github.com/banshee-data/localnav/internal/localmap/cluster"
	"github.com/banshee-data/localnav/internal/localmap/occupancy"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
	"github.com/banshee-data/localnav/internal/localmap/vfh"
	"github.com/banshee-data/localnav/internal/testutil"
)

func ptr(v float64) *float64 { return &v }

// newMap returns a LocalMap over the synthetic calibration with a cluster
// threshold wide enough to join points two pixels apart.
func newMap(t *testing.T) (*LocalMap, calib.SyntheticParams) {
	t.Helper()
	c, p := testutil.Synthetic(t)
	cfg := config.EmptyTuningConfig()
	cfg.ClusterDistanceThreshold = ptr(3)
	m, err := New(c, cfg)
	require.NoError(t, err)
	return m, p
}

// scene paints a two-object red cluster at (30, 1), a green object at
// (30, -20) and a robot far to the right.
func scene(p calib.SyntheticParams) *testutil.Painter {
	pt := testutil.NewPainter(p)
	pt.Point(30, 0, sensed.Puck(0))
	pt.Point(30, 2, sensed.Puck(0))
	pt.Point(30, -20, sensed.Puck(1))
	pt.Point(50, -40, sensed.Robot)
	return pt
}

// fillHold paints the first n hold-region pixels with t.
func fillHold(pt *testutil.Painter, n int, t sensed.Type) {
	p := pt.Params
	left := (p.Width - p.HoldWidth) / 2
	for k := 0; k < n; k++ {
		i := left + k%p.HoldWidth
		j := p.Height - p.HoldHeight + k/p.HoldWidth
		pt.Frame.Set(i, j, t)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	c, _ := testutil.Synthetic(t)

	_, err := New(nil, nil)
	assert.Error(t, err)

	bad := config.EmptyTuningConfig()
	bad.CarryThresholdLo = ptr(0.5)
	_, err = New(c, bad)
	assert.ErrorContains(t, err, "carry thresholds")

	m, err := New(c, nil)
	require.NoError(t, err)
	assert.Equal(t, occupancy.Layout{Width: 81, Height: 63, CellSize: 1, MaxY: 40}, m.Layout())
	assert.False(t, m.Held().Carrying)
	assert.Empty(t, m.Clusters())
	assert.Same(t, c, m.Calibration())
}

func TestUpdateRejectsWrongFrameSize(t *testing.T) {
	t.Parallel()

	m, p := newMap(t)
	pt := scene(p)
	fillHold(pt, p.HoldWidth*p.HoldHeight, sensed.Puck(0))
	require.NoError(t, m.Update(pt.Frame))
	require.True(t, m.Held().Carrying)

	err := m.Update(sensed.NewFrame(10, 10))
	require.ErrorIs(t, err, occupancy.ErrFrameSize)
	assert.Error(t, m.Update(nil))

	assert.True(t, m.Held().Carrying, "state survives a rejected frame")
	assert.Len(t, m.RawClusters(), 3)
}

func TestUpdateNotCarrying(t *testing.T) {
	t.Parallel()

	m, p := newMap(t)
	require.NoError(t, m.Update(scene(p).Frame))

	assert.False(t, m.Held().Carrying)
	_, ok := m.HeldCluster()
	assert.False(t, ok)

	raw := m.RawClusters()
	require.Len(t, raw, 2)
	assert.Equal(t, 0, raw[0].Colour)
	assert.Equal(t, 2, raw[0].Size)
	assert.Equal(t, geom.Point{X: 30, Y: 1}, raw[0].Centroid)
	assert.Equal(t, 1, raw[1].Colour)
	assert.Equal(t, geom.Point{X: 30, Y: -20}, raw[1].Centroid)
	assert.Equal(t, raw, m.Clusters())
	assert.Equal(t, []cluster.Reason{cluster.Kept, cluster.Kept}, m.Reasons())

	assert.Equal(t, 3, m.Points().Total())

	col, row, ok := m.Layout().Cell(geom.Point{X: 30, Y: 0})
	require.True(t, ok)
	assert.Equal(t, sensed.Puck(0), m.Grid().At(col, row))

	robot, ok := m.ClosestRobot()
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 50, Y: -40}, robot)
	assert.Equal(t, 1, m.FreerSide())
}

func TestUpdateCarrying(t *testing.T) {
	t.Parallel()

	m, p := newMap(t)
	pt := scene(p)
	fillHold(pt, p.HoldWidth*p.HoldHeight, sensed.Puck(0))
	require.NoError(t, m.Update(pt.Frame))

	held := m.Held()
	require.True(t, held.Carrying)
	assert.Equal(t, 0, held.Colour)
	assert.Equal(t, geom.Point{X: 4, Y: 0}, held.Point)

	hc, ok := m.HeldCluster()
	require.True(t, ok)
	assert.True(t, hc.Equal(cluster.Single(geom.Point{X: 4, Y: 0}, 0)))

	assert.Equal(t,
		[]cluster.Reason{cluster.IsHeld, cluster.Kept, cluster.WrongColour},
		m.Reasons())
	require.Len(t, m.Clusters(), 1)
	assert.Equal(t, geom.Point{X: 30, Y: 1}, m.Clusters()[0].Centroid)
	assert.Len(t, m.RawClustersOfColour(0), 2)
	assert.Len(t, m.ClustersOfColour(0), 1)
	assert.Empty(t, m.ClustersOfColour(1))

	c, ok := m.ClosestClusterTo(geom.Point{X: 4, Y: 0}, 100)
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 30, Y: 1}, c.Centroid)
}

func TestCarriedObjectLeavesPathOpen(t *testing.T) {
	t.Parallel()

	p := vfh.DefaultParams(true)
	for _, tc := range []struct {
		name  string
		scene bool
	}{
		{"empty arena", false},
		{"same colour ahead", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, sp := newMap(t)
			pt := testutil.NewPainter(sp)
			if tc.scene {
				pt = scene(sp)
			}
			fillHold(pt, sp.HoldWidth*sp.HoldHeight, sensed.Puck(0))
			require.NoError(t, m.Update(pt.Frame))
			require.True(t, m.Held().Carrying)

			want := 0
			if tc.scene {
				want = 2
			}
			assert.Equal(t, want, m.Grid().Count(sensed.Puck(0)))

			nav := vfh.NewNavigator(vfh.NewGeometry(m.Layout(), p), p)
			angle, ok := nav.ComputeTurnAngle(vfh.NewState(), m.Grid(), 0, false)
			require.True(t, ok)
			if !tc.scene {
				assert.Equal(t, 0.0, angle)
			}
		})
	}
}

func TestCarryHysteresisAcrossTicks(t *testing.T) {
	t.Parallel()

	m, p := newMap(t)
	steps := []struct {
		fill     int
		carrying bool
	}{
		{5, false}, // 0.25 is below the start threshold
		{20, true},
		{5, true}, // but above the keep threshold
		{2, true},
		{1, false},
		{5, false},
	}
	for n, s := range steps {
		pt := testutil.NewPainter(p)
		fillHold(pt, s.fill, sensed.Puck(2))
		require.NoError(t, m.Update(pt.Frame))
		assert.Equal(t, s.carrying, m.Held().Carrying, "step %d fill %d", n, s.fill)
	}
}

func TestQueries(t *testing.T) {
	t.Parallel()

	m, p := newMap(t)
	require.NoError(t, m.Update(scene(p).Frame))

	c, ok := m.ClosestPuckAsCluster(geom.Point{X: 30, Y: 3}, 5)
	require.True(t, ok)
	assert.True(t, c.Equal(cluster.Single(geom.Point{X: 30, Y: 2}, 0)))
	_, ok = m.ClosestPuckAsCluster(geom.Point{X: 30, Y: 3}, 0.5)
	assert.False(t, ok)

	c, ok = m.ClosestClusterTo(geom.Point{X: 30, Y: -15}, 10)
	require.True(t, ok)
	assert.Equal(t, 1, c.Colour)
	_, ok = m.ClosestClusterTo(geom.Point{}, 10)
	assert.False(t, ok)

	c, ok = m.ContainingCluster(geom.Point{X: 31, Y: 0})
	require.True(t, ok)
	assert.Equal(t, 2, c.Size)
	_, ok = m.ContainingCluster(geom.Point{X: 33, Y: 0})
	assert.False(t, ok, "distance equal to the threshold is not contained")

	assert.True(t, m.IsReachable(geom.Point{X: 30, Y: 1}))
	assert.False(t, m.IsReachable(geom.Point{X: 0, Y: 12.5}))
	assert.False(t, m.IsReachable(geom.Point{X: 0, Y: 25}), "on the circle")
	assert.True(t, m.IsReachable(geom.Point{X: 0, Y: 25.5}))

	m.PostFilterClusters(0)
	assert.Empty(t, m.ClustersOfColour(0))
	assert.Len(t, m.ClustersOfColour(1), 1)
	assert.Len(t, m.RawClustersOfColour(0), 1)

	m.PostFilterOccupancy(sensed.Robot)
	_, ok = m.ClosestRobot()
	assert.False(t, ok)

	// The next tick rebuilds everything.
	require.NoError(t, m.Update(scene(p).Frame))
	assert.Len(t, m.Clusters(), 2)
	_, ok = m.ClosestRobot()
	assert.True(t, ok)
}

func TestRobotProximityFilter(t *testing.T) {
	t.Parallel()

	m, p := newMap(t)
	pt := scene(p)
	pt.Point(30, 8, sensed.Robot)
	require.NoError(t, m.Update(pt.Frame))

	assert.Equal(t, []cluster.Reason{cluster.NearRobot, cluster.Kept}, m.Reasons())
	require.Len(t, m.Clusters(), 1)
	assert.Equal(t, 1, m.Clusters()[0].Colour)
}

func TestDiagLogsCarryingTransitions(t *testing.T) {
	var diag, trace bytes.Buffer
	SetLogWriters(LogWriters{Diag: &diag, Trace: &trace})
	t.Cleanup(func() { SetLogWriters(LogWriters{}) })

	m, p := newMap(t)
	pt := testutil.NewPainter(p)
	fillHold(pt, 20, sensed.Puck(0))
	require.NoError(t, m.Update(pt.Frame))
	require.NoError(t, m.Update(pt.Frame))

	assert.Contains(t, diag.String(), "[localmap] ")
	assert.Contains(t, diag.String(), "tick 0: carrying nothing -> red")
	assert.NotContains(t, diag.String(), "tick 1:")
	assert.Contains(t, trace.String(), "tick 1: objects=1 raw=1 kept=0")
}
