package viz

import (
	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/edge"
	"github.com/matsen/learnpath/internal/graph"
)

// FromGraph converts a learning graph into visualization data. When path is
// non-empty its nodes and the edges joining consecutive path nodes are
// marked for highlighting.
func FromGraph(g *graph.Graph, path []string) *GraphData {
	if g == nil {
		return &GraphData{}
	}

	pathIndex := make(map[string]int, len(path))
	for i, id := range path {
		if _, seen := pathIndex[id]; !seen {
			pathIndex[id] = i
		}
	}
	pathSteps := make(map[[2]string]bool, len(path))
	for i := 0; i+1 < len(path); i++ {
		pathSteps[[2]string{path[i], path[i+1]}] = true
	}

	edges, connectionCounts := buildEdges(g.Edges(), pathSteps)

	nodes := make([]Node, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		vn := newNode(n, connectionCounts[n.NodeID()])
		vn.PathIndex = -1
		if i, ok := pathIndex[vn.ID]; ok {
			vn.PathIndex = i
		}
		nodes = append(nodes, vn)
	}

	return &GraphData{Nodes: nodes, Edges: edges}
}

// buildEdges converts edges and counts incoming edges per node. Only the
// first parallel edge along a path step is marked.
func buildEdges(all []edge.Edge, pathSteps map[[2]string]bool) ([]Edge, map[string]int) {
	connectionCounts := make(map[string]int)
	marked := make(map[[2]string]bool)
	edges := make([]Edge, 0, len(all))

	for _, e := range all {
		connectionCounts[e.To()]++
		ve := Edge{
			Source: e.From(),
			Target: e.To(),
			Kind:   string(e.Kind()),
		}
		switch x := e.(type) {
		case edge.Explains:
			ve.Weight = x.CoverageScore
		case edge.HasPrerequisite:
			ve.Weight = x.Weight
		}
		step := [2]string{ve.Source, ve.Target}
		if pathSteps[step] && !marked[step] {
			ve.OnPath = true
			marked[step] = true
		}
		edges = append(edges, ve)
	}

	return edges, connectionCounts
}

// newNode creates a visualization node from a graph node.
func newNode(n graph.Node, connectionCount int) Node {
	vn := Node{
		ID:              n.NodeID(),
		Label:           n.NodeID(),
		ConnectionCount: connectionCount,
	}
	switch x := n.(type) {
	case concept.Concept:
		vn.Type = NodeTypeConcept
		vn.Label = x.Label
	case concept.LearningResource:
		vn.Type = NodeTypeResource
		vn.SourceURI = x.SourceURI
		vn.Explains = x.ExplainedConcepts
	}
	return vn
}
