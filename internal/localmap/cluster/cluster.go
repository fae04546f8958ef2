// Package cluster groups same-coloured object points into connected clusters
// and filters them down to the set a robot can act on this tick.
package cluster

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap/blobs"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// Edge joins two members of a cluster, by index into Members. A < B.
type Edge struct {
	A, B int
}

// Cluster is a connected component of same-coloured object points. Clusters
// are rebuilt every tick and carry no identity between ticks.
type Cluster struct {
	Centroid geom.Point
	Size     int
	Colour   int
	Members  []geom.Point // sorted by X, then Y
	Edges    []Edge       // sorted by A, then B
}

// Single returns a cluster holding only p.
func Single(p geom.Point, colour int) Cluster {
	return Cluster{Centroid: p, Size: 1, Colour: colour, Members: []geom.Point{p}}
}

// IsNeighbourTo reports whether any member of c lies strictly within
// threshold of any member of other. Same-coloured clusters are never
// neighbours after extraction, but differently coloured ones can be.
func (c Cluster) IsNeighbourTo(other Cluster, threshold float64) bool {
	t2 := threshold * threshold
	for _, p := range c.Members {
		for _, q := range other.Members {
			if geom.DistanceSq(p, q) < t2 {
				return true
			}
		}
	}
	return false
}

// Contains reports whether p is exactly one of the members.
func (c Cluster) Contains(p geom.Point) bool {
	for _, m := range c.Members {
		if m == p {
			return true
		}
	}
	return false
}

// Equal reports whether c and other have the same colour and members.
func (c Cluster) Equal(other Cluster) bool {
	if c.Colour != other.Colour || len(c.Members) != len(other.Members) {
		return false
	}
	for i := range c.Members {
		if c.Members[i] != other.Members[i] {
			return false
		}
	}
	return true
}

// Extract partitions points of one colour into clusters: two points share a
// cluster iff a chain of edges, each strictly shorter than threshold, joins
// them. The result is in canonical order (clusters by centroid X then Y,
// members by X then Y) and so does not depend on the order of points.
func Extract(points []geom.Point, colour int, threshold float64) []Cluster {
	if len(points) == 0 {
		return nil
	}

	g := simple.NewUndirectedGraph()
	for i := range points {
		g.AddNode(simple.Node(i))
	}
	si := newSpatialIndex(threshold)
	si.build(points)
	si.pairsWithin(points, threshold, func(i, j int) {
		g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
	})

	components := topo.ConnectedComponents(g)
	clusters := make([]Cluster, 0, len(components))
	for _, comp := range components {
		clusters = append(clusters, newCluster(g, points, comp, colour))
	}
	sortClusters(clusters)
	return clusters
}

// ExtractAll runs Extract for every colour. Clusters are ordered by colour,
// then canonically within each colour.
func ExtractAll(pts *blobs.ObjectPoints, threshold float64) []Cluster {
	var all []Cluster
	for k := 0; k < sensed.NumPuckColours; k++ {
		all = append(all, Extract(pts[k], k, threshold)...)
	}
	return all
}

func newCluster(g graph.Undirected, points []geom.Point, comp []graph.Node, colour int) Cluster {
	idx := make([]int, len(comp))
	for n, node := range comp {
		idx[n] = int(node.ID())
	}
	sort.Slice(idx, func(a, b int) bool {
		pa, pb := points[idx[a]], points[idx[b]]
		if pa == pb {
			return idx[a] < idx[b]
		}
		return geom.Less(pa, pb)
	})

	pos := make(map[int]int, len(idx))
	members := make([]geom.Point, len(idx))
	for n, i := range idx {
		pos[i] = n
		members[n] = points[i]
	}

	var edges []Edge
	for _, i := range idx {
		nodes := g.From(int64(i))
		for nodes.Next() {
			j := int(nodes.Node().ID())
			a, b := pos[i], pos[j]
			if a < b {
				edges = append(edges, Edge{A: a, B: b})
			}
		}
	}
	sort.Slice(edges, func(x, y int) bool {
		if edges[x].A != edges[y].A {
			return edges[x].A < edges[y].A
		}
		return edges[x].B < edges[y].B
	})

	return Cluster{
		Centroid: geom.Centroid(members),
		Size:     len(members),
		Colour:   colour,
		Members:  members,
		Edges:    edges,
	}
}

func sortClusters(cs []Cluster) {
	sort.SliceStable(cs, func(a, b int) bool {
		ca, cb := cs[a].Centroid, cs[b].Centroid
		if ca != cb {
			return geom.Less(ca, cb)
		}
		return geom.Less(cs[a].Members[0], cs[b].Members[0])
	})
}
