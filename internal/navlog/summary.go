package navlog

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AgentSummary aggregates one agent's ticks.
type AgentSummary struct {
	Agent           string
	Ticks           int
	MeanForward     float64
	StdDevForward   float64
	MeanAbsTurn     float64
	BlockedFraction float64 // share of ticks with no safe direction
	CarryingTicks   int
	MeanClusters    float64
}

// Summarise groups ticks by agent and returns one summary per agent, sorted
// by agent name.
func Summarise(ticks []Tick) []AgentSummary {
	byAgent := make(map[string][]Tick)
	for _, t := range ticks {
		byAgent[t.Agent] = append(byAgent[t.Agent], t)
	}

	out := make([]AgentSummary, 0, len(byAgent))
	for agent, ts := range byAgent {
		n := len(ts)
		fwd := make([]float64, n)
		turn := make([]float64, n)
		clusters := make([]float64, n)
		var blocked, carrying int
		for i, t := range ts {
			fwd[i] = t.Forward
			if t.Turn < 0 {
				turn[i] = -t.Turn
			} else {
				turn[i] = t.Turn
			}
			clusters[i] = float64(t.Clusters)
			if !t.Safe {
				blocked++
			}
			if t.Carrying {
				carrying++
			}
		}

		s := AgentSummary{
			Agent:           agent,
			Ticks:           n,
			MeanAbsTurn:     stat.Mean(turn, nil),
			BlockedFraction: float64(blocked) / float64(n),
			CarryingTicks:   carrying,
			MeanClusters:    stat.Mean(clusters, nil),
		}
		if n > 1 {
			s.MeanForward, s.StdDevForward = stat.MeanStdDev(fwd, nil)
		} else {
			s.MeanForward = fwd[0]
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}
