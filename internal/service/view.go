package service

import (
	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/edge"
	"github.com/matsen/learnpath/internal/graph"
)

// NodeView is the flat form of a node for transports.
type NodeView struct {
	ID                string       `json:"id"`
	Kind              concept.Kind `json:"kind"`
	Label             string       `json:"label,omitempty"`
	SourceURI         string       `json:"source_uri,omitempty"`
	ExplainedConcepts []string     `json:"explained_concepts,omitempty"`
}

// GraphView is the flat form of a graph for transports.
type GraphView struct {
	Stats graph.Stats   `json:"stats"`
	Nodes []NodeView    `json:"nodes"`
	Edges []edge.Record `json:"edges"`
}

// ViewOf flattens g.
func ViewOf(g *graph.Graph) GraphView {
	v := GraphView{
		Stats: g.Stats(),
		Nodes: make([]NodeView, 0, g.NodeCount()),
		Edges: make([]edge.Record, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		nv := NodeView{ID: n.NodeID(), Kind: n.NodeKind()}
		switch x := n.(type) {
		case concept.Concept:
			nv.Label = x.Label
		case concept.LearningResource:
			nv.SourceURI = x.SourceURI
			nv.ExplainedConcepts = x.ExplainedConcepts
		}
		v.Nodes = append(v.Nodes, nv)
	}
	for _, e := range g.Edges() {
		v.Edges = append(v.Edges, edge.ToRecord(e))
	}
	return v
}
