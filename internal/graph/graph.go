// Package graph implements the mapping-backed directed multigraph that holds
// concepts, learning resources and the typed edges between them.
//
// A Graph is built by a single goroutine and then published through a Handle.
// Once published it must not be mutated; readers share it freely.
package graph

import (
	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/edge"
)

// Node is a graph vertex: concept.Concept or concept.LearningResource.
type Node interface {
	NodeID() string
	NodeKind() concept.Kind
}

// Graph is a directed multigraph keyed by node id.
type Graph struct {
	nodes map[string]Node
	order []string // node ids in first-insertion order
	out   map[string][]edge.Edge
	edges []edge.Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		out:   make(map[string][]edge.Edge),
	}
}

// AddNode inserts a node. Re-adding an existing id overwrites its attributes.
func (g *Graph) AddNode(n Node) {
	id := n.NodeID()
	if _, exists := g.nodes[id]; !exists {
		g.order = append(g.order, id)
	}
	g.nodes[id] = n
}

// AddEdge appends an edge. Parallel edges are kept and endpoints are not
// checked; callers add nodes before the edges that reference them.
func (g *Graph) AddEdge(e edge.Edge) {
	g.out[e.From()] = append(g.out[e.From()], e)
	g.edges = append(g.edges, e)
}

// Has reports whether a node with the given id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Neighbors returns the outgoing edges of a node in insertion order.
// The returned slice is shared with the graph and must not be modified.
func (g *Graph) Neighbors(id string) []edge.Edge {
	return g.out[id]
}

// Nodes returns all nodes in first-insertion order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []edge.Edge {
	edges := make([]edge.Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// NodeCount returns the number of distinct node ids.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges, parallel edges included.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.nodes) == 0
}

// Concepts returns the concept nodes in first-insertion order.
func (g *Graph) Concepts() []concept.Concept {
	var out []concept.Concept
	for _, id := range g.order {
		if c, ok := g.nodes[id].(concept.Concept); ok {
			out = append(out, c)
		}
	}
	return out
}

// Resources returns the learning resource nodes in first-insertion order.
func (g *Graph) Resources() []concept.LearningResource {
	var out []concept.LearningResource
	for _, id := range g.order {
		if r, ok := g.nodes[id].(concept.LearningResource); ok {
			out = append(out, r)
		}
	}
	return out
}

// Stats summarizes node and edge counts by kind.
type Stats struct {
	Nodes         int `json:"nodes"`
	Concepts      int `json:"concepts"`
	Resources     int `json:"resources"`
	Edges         int `json:"edges"`
	Explains      int `json:"explains_edges"`
	Prerequisites int `json:"prerequisite_edges"`
}

// Stats counts the graph's nodes and edges by kind.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.nodes), Edges: len(g.edges)}
	for _, n := range g.nodes {
		switch n.NodeKind() {
		case concept.KindConcept:
			s.Concepts++
		case concept.KindLearningResource:
			s.Resources++
		}
	}
	for _, e := range g.edges {
		switch e.Kind() {
		case edge.KindExplains:
			s.Explains++
		case edge.KindHasPrerequisite:
			s.Prerequisites++
		}
	}
	return s
}
