// Package concept defines the node payloads of the learning graph.
package concept

import (
	"errors"
	"fmt"
	"strings"
)

// Concept represents a unit of knowledge. Its ID is the exact label string
// produced by extraction; case and whitespace variants are distinct concepts.
type Concept struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// LearningResource represents an external content item that explains concepts.
type LearningResource struct {
	ID                string   `json:"id"`         // res_{index} of the source in the build request
	SourceURI         string   `json:"source_uri"` // Where the content was acquired from
	ExplainedConcepts []string `json:"explained_concepts,omitempty"`
}

// ResourcePrefix is the id prefix for learning resources.
const ResourcePrefix = "res_"

// Validation errors.
var (
	ErrEmptyID        = errors.New("id is required")
	ErrEmptyLabel     = errors.New("label is required")
	ErrEmptySourceURI = errors.New("source_uri is required")
	ErrLabelMismatch  = errors.New("concept id must equal its label")
)

// New creates a concept whose id is its label.
func New(label string) Concept {
	return Concept{ID: label, Label: label}
}

// ResourceID returns the id assigned to the source at the given request index.
func ResourceID(index int) string {
	return fmt.Sprintf("%s%d", ResourcePrefix, index)
}

// IsResourceID reports whether id has the learning resource shape.
func IsResourceID(id string) bool {
	return strings.HasPrefix(id, ResourcePrefix)
}

// Validate checks the structural invariants of a concept.
func (c *Concept) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if c.Label == "" {
		return ErrEmptyLabel
	}
	if c.ID != c.Label {
		return ErrLabelMismatch
	}
	return nil
}

// Validate checks the structural invariants of a learning resource.
func (r *LearningResource) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if r.SourceURI == "" {
		return ErrEmptySourceURI
	}
	return nil
}

// Explains reports whether the resource lists the concept among those it explains.
func (r *LearningResource) Explains(conceptID string) bool {
	for _, c := range r.ExplainedConcepts {
		if c == conceptID {
			return true
		}
	}
	return false
}

// Kind tags a node variant in the learning graph.
type Kind string

const (
	KindConcept          Kind = "Concept"
	KindLearningResource Kind = "LearningResource"
)

// NodeID returns the graph id of the concept.
func (c Concept) NodeID() string { return c.ID }

// NodeKind returns KindConcept.
func (Concept) NodeKind() Kind { return KindConcept }

// NodeID returns the graph id of the resource.
func (r LearningResource) NodeID() string { return r.ID }

// NodeKind returns KindLearningResource.
func (LearningResource) NodeKind() Kind { return KindLearningResource }
