package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/edge"
	"github.com/matsen/learnpath/internal/graph"
)

// GraphFile is the name of the graph snapshot JSONL file.
const GraphFile = "graph.jsonl"

// ErrNoSnapshot is returned when no graph snapshot has been saved.
var ErrNoSnapshot = errors.New("no graph snapshot")

// Record kinds in a snapshot.
const (
	recordConcept  = "concept"
	recordResource = "resource"
	recordEdge     = "edge"
)

// snapshotLine is one line of a snapshot: a node or an edge.
type snapshotLine struct {
	Record            string       `json:"record"`
	ID                string       `json:"id,omitempty"`
	Label             string       `json:"label,omitempty"`
	SourceURI         string       `json:"source_uri,omitempty"`
	ExplainedConcepts []string     `json:"explained_concepts,omitempty"`
	Edge              *edge.Record `json:"edge,omitempty"`
}

// SaveGraph writes every node, then every edge, in graph order.
func SaveGraph(path string, g *graph.Graph) error {
	lines := make([]snapshotLine, 0, g.NodeCount()+g.EdgeCount())
	for _, n := range g.Nodes() {
		switch v := n.(type) {
		case concept.Concept:
			lines = append(lines, snapshotLine{Record: recordConcept, ID: v.ID, Label: v.Label})
		case concept.LearningResource:
			lines = append(lines, snapshotLine{
				Record:            recordResource,
				ID:                v.ID,
				SourceURI:         v.SourceURI,
				ExplainedConcepts: v.ExplainedConcepts,
			})
		default:
			return fmt.Errorf("unsupported node type %T", n)
		}
	}
	for _, e := range g.Edges() {
		r := edge.ToRecord(e)
		lines = append(lines, snapshotLine{Record: recordEdge, Edge: &r})
	}

	if err := WriteJSONL(path, lines); err != nil {
		return fmt.Errorf("writing graph snapshot: %w", err)
	}
	return nil
}

// LoadGraph reads a snapshot written by SaveGraph. Every record is validated;
// the first invalid one fails the load.
func LoadGraph(path string) (*graph.Graph, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}

	lines, err := ReadJSONL[snapshotLine](path)
	if err != nil {
		return nil, fmt.Errorf("reading graph snapshot: %w", err)
	}

	g := graph.New()
	for i, l := range lines {
		switch l.Record {
		case recordConcept:
			c := concept.Concept{ID: l.ID, Label: l.Label}
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
			g.AddNode(c)
		case recordResource:
			r := concept.LearningResource{ID: l.ID, SourceURI: l.SourceURI, ExplainedConcepts: l.ExplainedConcepts}
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
			g.AddNode(r)
		case recordEdge:
			if l.Edge == nil {
				return nil, fmt.Errorf("record %d: edge record without edge", i+1)
			}
			e, err := l.Edge.Edge()
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
			g.AddEdge(e)
		default:
			return nil, fmt.Errorf("record %d: unknown record type %q", i+1, l.Record)
		}
	}
	return g, nil
}
