package edge

import "fmt"

// Record is the flat, serializable form of an edge.
type Record struct {
	Kind          Kind     `json:"kind"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	CoverageScore *float64 `json:"coverage_score,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
}

// ToRecord flattens an edge for storage or transport.
func ToRecord(e Edge) Record {
	r := Record{Kind: e.Kind(), From: e.From(), To: e.To()}
	switch v := e.(type) {
	case Explains:
		score := v.CoverageScore
		r.CoverageScore = &score
	case HasPrerequisite:
		w := v.Weight
		r.Weight = &w
	}
	return r
}

// Edge rebuilds the typed edge from a record.
func (r Record) Edge() (Edge, error) {
	var e Edge
	switch r.Kind {
	case KindExplains:
		score := FullCoverage
		if r.CoverageScore != nil {
			score = *r.CoverageScore
		}
		e = Explains{FromID: r.From, ToID: r.To, CoverageScore: score}
	case KindHasPrerequisite:
		if r.Weight == nil {
			return nil, fmt.Errorf("%s edge %s->%s has no weight", r.Kind, r.From, r.To)
		}
		e = HasPrerequisite{FromID: r.From, ToID: r.To, Weight: *r.Weight}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEdgeKind, r.Kind)
	}
	if err := Validate(e); err != nil {
		return nil, err
	}
	return e, nil
}
