// Package viz renders the learning graph as an interactive Cytoscape.js page.
package viz

import "sort"

// Node types.
const (
	NodeTypeConcept  = "concept"
	NodeTypeResource = "resource"
)

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node represents a concept or learning resource in the graph.
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"` // "concept" or "resource"

	// Display
	Label string `json:"label"`

	// Resource-specific fields (for tooltips)
	SourceURI string   `json:"sourceUri,omitempty"`
	Explains  []string `json:"explains,omitempty"`

	// Sizing: number of incoming edges
	ConnectionCount int `json:"connectionCount"`

	// Position on the highlighted path, -1 when off the path
	PathIndex int `json:"pathIndex"`
}

// Edge represents an Explains or HasPrerequisite edge.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
	OnPath bool    `json:"onPath"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// PathNodes returns the highlighted path's nodes in path order.
func (g *GraphData) PathNodes() []Node {
	var path []Node
	for _, n := range g.Nodes {
		if n.OnPath() {
			path = append(path, n)
		}
	}
	sort.Slice(path, func(i, j int) bool { return path[i].PathIndex < path[j].PathIndex })
	return path
}

// OnPath reports whether the node sits on the highlighted path.
func (n Node) OnPath() bool {
	return n.PathIndex >= 0
}
