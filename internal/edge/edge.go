// Package edge defines the typed, weighted edges of the learning graph.
package edge

import (
	"errors"
	"fmt"
)

// Kind tags an edge variant.
type Kind string

const (
	KindExplains        Kind = "EXPLAINS"
	KindHasPrerequisite Kind = "HAS_PREREQUISITE"
)

// FullCoverage is the coverage score assigned to every Explains edge at creation.
const FullCoverage = 1.0

// Edge is a directed edge of one of the variants in this package.
// The set of variants is closed; callers switch on the concrete type or Kind.
type Edge interface {
	Kind() Kind
	From() string
	To() string
	sealed()
}

// Explains links a learning resource to a concept it teaches.
type Explains struct {
	FromID        string  `json:"from"`
	ToID          string  `json:"to"`
	CoverageScore float64 `json:"coverage_score"`
}

// HasPrerequisite links concept From to concept To. Weight is the relatedness
// score that produced the edge; From is read as a prerequisite signal for To.
type HasPrerequisite struct {
	FromID string  `json:"from"`
	ToID   string  `json:"to"`
	Weight float64 `json:"weight"`
}

// Kind implements Edge.
func (Explains) Kind() Kind { return KindExplains }

// From implements Edge.
func (e Explains) From() string { return e.FromID }

// To implements Edge.
func (e Explains) To() string { return e.ToID }

func (Explains) sealed() {}

// Kind implements Edge.
func (HasPrerequisite) Kind() Kind { return KindHasPrerequisite }

// From implements Edge.
func (e HasPrerequisite) From() string { return e.FromID }

// To implements Edge.
func (e HasPrerequisite) To() string { return e.ToID }

func (HasPrerequisite) sealed() {}

// NewExplains creates an Explains edge with full coverage.
func NewExplains(resourceID, conceptID string) Explains {
	return Explains{FromID: resourceID, ToID: conceptID, CoverageScore: FullCoverage}
}

// NewHasPrerequisite creates a HasPrerequisite edge weighted by a relatedness score.
func NewHasPrerequisite(fromConcept, toConcept string, score float64) HasPrerequisite {
	return HasPrerequisite{FromID: fromConcept, ToID: toConcept, Weight: score}
}

// Validation errors.
var (
	ErrEmptySourceID   = errors.New("from is required")
	ErrEmptyTargetID   = errors.New("to is required")
	ErrWeightRange     = errors.New("weight must be in [0, 1]")
	ErrCoverageRange   = errors.New("coverage_score must be in [0, 1]")
	ErrUnknownEdgeKind = errors.New("unknown edge kind")
)

// Validate checks an edge's fields. Self-edges are permitted.
func Validate(e Edge) error {
	if e == nil {
		return ErrUnknownEdgeKind
	}
	if e.From() == "" {
		return ErrEmptySourceID
	}
	if e.To() == "" {
		return ErrEmptyTargetID
	}
	switch v := e.(type) {
	case Explains:
		if v.CoverageScore < 0 || v.CoverageScore > 1 {
			return ErrCoverageRange
		}
	case HasPrerequisite:
		if v.Weight < 0 || v.Weight > 1 {
			return ErrWeightRange
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEdgeKind, e)
	}
	return nil
}

// KeyOf returns the identity tuple used to spot parallel edges.
func KeyOf(e Edge) EdgeKey {
	return EdgeKey{SourceID: e.From(), TargetID: e.To(), Kind: e.Kind()}
}

// EdgeKey identifies edges of the same kind between the same ordered pair.
type EdgeKey struct {
	SourceID string
	TargetID string
	Kind     Kind
}

// OrphanedEdgeInfo describes an edge with an endpoint missing from the graph.
type OrphanedEdgeInfo struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Kind     Kind   `json:"kind"`
	Reason   string `json:"reason"` // "missing_source", "missing_target", or "missing_both"
}

// DetectOrphanedEdges finds edges that reference node ids not in the valid set.
// Returns orphaned edges with their reasons and the list of valid edges.
func DetectOrphanedEdges(edges []Edge, validIDs map[string]bool) (orphaned []OrphanedEdgeInfo, valid []Edge) {
	for _, e := range edges {
		sourceOK := validIDs[e.From()]
		targetOK := validIDs[e.To()]

		if sourceOK && targetOK {
			valid = append(valid, e)
			continue
		}

		info := OrphanedEdgeInfo{
			SourceID: e.From(),
			TargetID: e.To(),
			Kind:     e.Kind(),
		}
		switch {
		case !sourceOK && !targetOK:
			info.Reason = "missing_both"
		case !sourceOK:
			info.Reason = "missing_source"
		default:
			info.Reason = "missing_target"
		}
		orphaned = append(orphaned, info)
	}
	return orphaned, valid
}

// FindDuplicateEdges finds edge keys that appear more than once.
// Parallel edges are legal in the graph; this is a reporting aid only.
func FindDuplicateEdges(edges []Edge) map[EdgeKey]int {
	counts := make(map[EdgeKey]int)
	for _, e := range edges {
		counts[KeyOf(e)]++
	}

	duplicates := make(map[EdgeKey]int)
	for key, count := range counts {
		if count > 1 {
			duplicates[key] = count
		}
	}
	return duplicates
}
