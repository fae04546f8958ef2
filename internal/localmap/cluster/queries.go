package cluster

import (
	"github.com/banshee-data/localnav/internal/geom"
)

// OfColour returns the clusters of colour k, in their existing order.
func OfColour(cs []Cluster, k int) []Cluster {
	var out []Cluster
	for _, c := range cs {
		if c.Colour == k {
			out = append(out, c)
		}
	}
	return out
}

// WithoutColour returns cs minus the clusters of colour k.
func WithoutColour(cs []Cluster, k int) []Cluster {
	out := make([]Cluster, 0, len(cs))
	for _, c := range cs {
		if c.Colour != k {
			out = append(out, c)
		}
	}
	return out
}

// ClosestMember returns a single-member cluster for the member of cs closest
// to v, considering only members strictly within maxDist.
func ClosestMember(cs []Cluster, v geom.Point, maxDist float64) (Cluster, bool) {
	best := maxDist * maxDist
	var out Cluster
	found := false
	for _, c := range cs {
		for _, m := range c.Members {
			if d := geom.DistanceSq(v, m); d < best {
				best = d
				out = Single(m, c.Colour)
				found = true
			}
		}
	}
	return out, found
}

// ClosestCentroid returns the cluster whose centroid is closest to v and
// strictly within maxDist. Clusters for which skip returns true are ignored.
func ClosestCentroid(cs []Cluster, v geom.Point, maxDist float64, skip func(Cluster) bool) (Cluster, bool) {
	best := maxDist * maxDist
	var out Cluster
	found := false
	for _, c := range cs {
		if skip != nil && skip(c) {
			continue
		}
		if d := geom.DistanceSq(v, c.Centroid); d < best {
			best = d
			out = c
			found = true
		}
	}
	return out, found
}

// Containing returns the first cluster with a member strictly within
// threshold of v.
func Containing(cs []Cluster, v geom.Point, threshold float64) (Cluster, bool) {
	t2 := threshold * threshold
	for _, c := range cs {
		for _, m := range c.Members {
			if geom.DistanceSq(v, m) < t2 {
				return c, true
			}
		}
	}
	return Cluster{}, false
}

// Holding returns the cluster of colour k that has p as a member.
func Holding(cs []Cluster, p geom.Point, k int) (Cluster, bool) {
	for _, c := range cs {
		if c.Colour == k && c.Contains(p) {
			return c, true
		}
	}
	return Cluster{}, false
}
