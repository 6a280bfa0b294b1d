package graph

import (
	"sort"

	"github.com/matsen/learnpath/internal/edge"
)

// Report lists integrity findings. Neither finding is an error for search:
// dangling endpoints are never expanded and parallel edges are legal.
type Report struct {
	Orphaned   []edge.OrphanedEdgeInfo `json:"orphaned_edges"`
	Duplicates []DuplicateInfo         `json:"duplicate_edges"`
}

// DuplicateInfo counts parallel edges of one kind between one ordered pair.
type DuplicateInfo struct {
	SourceID string    `json:"source_id"`
	TargetID string    `json:"target_id"`
	Kind     edge.Kind `json:"kind"`
	Count    int       `json:"count"`
}

// OK reports whether the check found nothing.
func (r Report) OK() bool {
	return len(r.Orphaned) == 0 && len(r.Duplicates) == 0
}

// Check scans the graph for dangling edge endpoints and parallel edges.
func (g *Graph) Check() Report {
	validIDs := make(map[string]bool, len(g.nodes))
	for id := range g.nodes {
		validIDs[id] = true
	}

	orphaned, _ := edge.DetectOrphanedEdges(g.edges, validIDs)

	var dups []DuplicateInfo
	for key, count := range edge.FindDuplicateEdges(g.edges) {
		dups = append(dups, DuplicateInfo{
			SourceID: key.SourceID,
			TargetID: key.TargetID,
			Kind:     key.Kind,
			Count:    count,
		})
	}
	sort.Slice(dups, func(i, j int) bool {
		if dups[i].SourceID != dups[j].SourceID {
			return dups[i].SourceID < dups[j].SourceID
		}
		if dups[i].TargetID != dups[j].TargetID {
			return dups[i].TargetID < dups[j].TargetID
		}
		return dups[i].Kind < dups[j].Kind
	})

	return Report{Orphaned: orphaned, Duplicates: dups}
}
