// Package conflict implements ConflictDetector: given a joint plan, find the
// first (or every) vertex/edge conflict per spec §4.4.
package conflict

import (
	"sort"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// sortedAgentIDs returns the agent ids of jp in ascending order, so pairwise
// scans are deterministic regardless of map iteration order.
func sortedAgentIDs(jp mapf.JointPlan) []mapf.AgentID {
	ids := make([]mapf.AgentID, 0, len(jp))
	for id := range jp {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All returns every vertex and edge conflict in jp, over the plans padded
// (conceptually) to the joint plan's makespan.
func All(jp mapf.JointPlan) []mapf.Conflict {
	var out []mapf.Conflict
	ids := sortedAgentIDs(jp)
	T := jp.Makespan()

	for t := 0; t <= T; t++ {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				posA, posB := jp[a].At(t), jp[b].At(t)
				if posA == posB {
					out = append(out, mapf.Conflict{Kind: mapf.VertexConflict, A: a, B: b, Cell: posA, T: t})
				}
			}
		}
		if t == 0 {
			continue
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				prevA, curA := jp[a].At(t-1), jp[a].At(t)
				prevB, curB := jp[b].At(t-1), jp[b].At(t)
				if prevA == curB && prevB == curA && curA != prevA {
					out = append(out, mapf.Conflict{
						Kind: mapf.EdgeConflict, A: a, B: b,
						CellA: prevA, CellB: curA, T: t - 1,
					})
				}
			}
		}
	}
	return out
}

// First returns the lexicographically smallest conflict in jp by
// (t, kind, a, b), with vertex conflicts ordered before edge conflicts at
// equal t — the deterministic choice spec §4.4 requires to remove CBS
// tie-breaking non-determinism. Returns (Conflict{}, false) if jp is
// conflict-free.
func First(jp mapf.JointPlan) (mapf.Conflict, bool) {
	ids := sortedAgentIDs(jp)
	T := jp.Makespan()

	var best mapf.Conflict
	found := false

	for t := 0; t <= T; t++ {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if jp[a].At(t) == jp[b].At(t) {
					c := mapf.Conflict{Kind: mapf.VertexConflict, A: a, B: b, Cell: jp[a].At(t), T: t}
					if !found || c.Less(best) {
						best, found = c, true
					}
				}
			}
		}
		if t > 0 {
			for i := 0; i < len(ids); i++ {
				for j := i + 1; j < len(ids); j++ {
					a, b := ids[i], ids[j]
					prevA, curA := jp[a].At(t-1), jp[a].At(t)
					prevB, curB := jp[b].At(t-1), jp[b].At(t)
					if prevA == curB && prevB == curA && curA != prevA {
						c := mapf.Conflict{Kind: mapf.EdgeConflict, A: a, B: b, CellA: prevA, CellB: curA, T: t - 1}
						if !found || c.Less(best) {
							best, found = c, true
						}
					}
				}
			}
		}
		if found {
			return best, true
		}
	}
	return mapf.Conflict{}, false
}
