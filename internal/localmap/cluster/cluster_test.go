package cluster

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/blobs"
)

func TestScenarioTwoClusters(t *testing.T) {
	t.Parallel()

	got := Extract([]geom.Point{{X: 40, Y: 0}, {X: 20, Y: 0}, {X: 21, Y: 0}}, 0, 1.5)
	require.Len(t, got, 2)

	assert.Equal(t, 2, got[0].Size)
	assert.Equal(t, geom.Point{X: 20.5, Y: 0}, got[0].Centroid)
	assert.Equal(t, []geom.Point{{X: 20, Y: 0}, {X: 21, Y: 0}}, got[0].Members)
	assert.Equal(t, []Edge{{A: 0, B: 1}}, got[0].Edges)

	assert.Equal(t, 1, got[1].Size)
	assert.Equal(t, geom.Point{X: 40, Y: 0}, got[1].Centroid)
	assert.Empty(t, got[1].Edges)
}

func TestExtractThresholdIsStrict(t *testing.T) {
	t.Parallel()

	at := Extract([]geom.Point{{X: 0, Y: 0}, {X: 1.5, Y: 0}}, 0, 1.5)
	assert.Len(t, at, 2, "points exactly at the threshold are not joined")

	below := Extract([]geom.Point{{X: 0, Y: 0}, {X: 1.5 - 1e-9, Y: 0}}, 0, 1.5)
	require.Len(t, below, 1)
	assert.Equal(t, 2, below[0].Size)

	diag := Extract([]geom.Point{{X: -0.5, Y: -0.5}, {X: 0.5, Y: 0.5}}, 3, 1.5)
	require.Len(t, diag, 1, "neighbours straddling cell boundaries are still found")
	assert.Equal(t, 3, diag[0].Colour)
}

func TestExtractChain(t *testing.T) {
	t.Parallel()

	got := Extract([]geom.Point{{X: 2, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 3.4, Y: 0}}, 0, 1.5)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Size)
	assert.Equal(t, []Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}}, got[0].Edges)
	assert.InDelta(t, 1.6, got[0].Centroid.X, 1e-12)
}

func TestExtractEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Extract(nil, 0, 1.5))
}

func randomPoints(rng *rand.Rand, n int) []geom.Point {
	pts := make([]geom.Point, n)
	for i := range pts {
		pts[i] = geom.Point{X: rng.Float64()*20 - 5, Y: rng.Float64()*20 - 10}
	}
	return pts
}

func TestExtractOrderInvariant(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	pts := randomPoints(rng, 60)
	want := Extract(pts, 0, 1.5)

	for trial := 0; trial < 10; trial++ {
		shuffled := append([]geom.Point(nil), pts...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if diff := cmp.Diff(want, Extract(shuffled, 0, 1.5)); diff != "" {
			t.Fatalf("trial %d: clusters depend on input order (-want +got):\n%s", trial, diff)
		}
	}
}

// bruteForceLabels joins every pair closer than threshold with union-find.
func bruteForceLabels(pts []geom.Point, threshold float64) []int {
	parent := make([]int, len(pts))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if geom.Distance(pts[i], pts[j]) < threshold {
				parent[find(i)] = find(j)
			}
		}
	}
	labels := make([]int, len(pts))
	for i := range pts {
		labels[i] = find(i)
	}
	return labels
}

func TestExtractMatchesBruteForce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 5))
	for trial := 0; trial < 20; trial++ {
		pts := randomPoints(rng, 80)
		threshold := 0.5 + rng.Float64()*2
		labels := bruteForceLabels(pts, threshold)

		clusters := Extract(pts, 0, threshold)
		total := 0
		for _, c := range clusters {
			total += c.Size
			// Every member of one cluster has the same brute-force label.
			first := -1
			for _, m := range c.Members {
				for i, p := range pts {
					if p != m {
						continue
					}
					if first < 0 {
						first = labels[i]
					}
					assert.Equal(t, first, labels[i], "trial %d", trial)
				}
			}
		}
		assert.Equal(t, len(pts), total)

		distinct := map[int]bool{}
		for _, l := range labels {
			distinct[l] = true
		}
		assert.Len(t, clusters, len(distinct), "trial %d", trial)
	}
}

func TestCentroidIsMean(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 1))
	for _, c := range Extract(randomPoints(rng, 100), 0, 1.5) {
		var sx, sy float64
		for _, m := range c.Members {
			sx += m.X
			sy += m.Y
		}
		n := float64(len(c.Members))
		assert.Equal(t, c.Size, len(c.Members))
		assert.GreaterOrEqual(t, c.Size, 1)
		assert.InDelta(t, sx/n, c.Centroid.X, 1e-9)
		assert.InDelta(t, sy/n, c.Centroid.Y, 1e-9)
	}
}

func TestExtractAllKeepsColoursApart(t *testing.T) {
	t.Parallel()

	var pts blobs.ObjectPoints
	pts[0] = []geom.Point{{X: 10, Y: 0}}
	pts[2] = []geom.Point{{X: 10.5, Y: 0}}
	pts[5] = []geom.Point{{X: 1, Y: 1}, {X: 1, Y: 2}}

	all := ExtractAll(&pts, 1.5)
	require.Len(t, all, 3)
	assert.Equal(t, []int{0, 2, 5}, []int{all[0].Colour, all[1].Colour, all[2].Colour})
	assert.True(t, all[0].IsNeighbourTo(all[1], 1.5))
	assert.False(t, all[0].IsNeighbourTo(all[2], 1.5))
}

func TestSingleAndEqual(t *testing.T) {
	t.Parallel()

	s := Single(geom.Point{X: 3, Y: 4}, 6)
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, geom.Point{X: 3, Y: 4}, s.Centroid)
	assert.True(t, s.Contains(geom.Point{X: 3, Y: 4}))
	assert.True(t, s.Equal(Extract([]geom.Point{{X: 3, Y: 4}}, 6, 1.5)[0]))
	assert.False(t, s.Equal(Single(geom.Point{X: 3, Y: 4}, 5)))
}
