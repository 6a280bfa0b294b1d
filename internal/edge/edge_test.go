package edge

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		edge    Edge
		wantErr error
	}{
		{
			name:    "valid explains",
			edge:    NewExplains("res_0", "lists"),
			wantErr: nil,
		},
		{
			name:    "valid prerequisite",
			edge:    NewHasPrerequisite("lists", "loops", 0.82),
			wantErr: nil,
		},
		{
			name:    "self loop allowed",
			edge:    NewHasPrerequisite("lists", "lists", 1.0),
			wantErr: nil,
		},
		{
			name:    "missing from",
			edge:    HasPrerequisite{ToID: "loops", Weight: 0.8},
			wantErr: ErrEmptySourceID,
		},
		{
			name:    "missing to",
			edge:    Explains{FromID: "res_1", CoverageScore: 1},
			wantErr: ErrEmptyTargetID,
		},
		{
			name:    "weight above one",
			edge:    HasPrerequisite{FromID: "a", ToID: "b", Weight: 1.2},
			wantErr: ErrWeightRange,
		},
		{
			name:    "negative coverage",
			edge:    Explains{FromID: "res_0", ToID: "a", CoverageScore: -0.1},
			wantErr: ErrCoverageRange,
		},
		{
			name:    "nil edge",
			edge:    nil,
			wantErr: ErrUnknownEdgeKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.edge)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewExplains_FullCoverage(t *testing.T) {
	e := NewExplains("res_2", "recursion")
	if e.CoverageScore != 1.0 {
		t.Errorf("CoverageScore = %v, want 1.0", e.CoverageScore)
	}
	if e.Kind() != KindExplains {
		t.Errorf("Kind() = %v, want %v", e.Kind(), KindExplains)
	}
}

func TestDetectOrphanedEdges(t *testing.T) {
	validIDs := map[string]bool{"res_0": true, "lists": true, "loops": true}

	edges := []Edge{
		NewExplains("res_0", "lists"),
		NewHasPrerequisite("lists", "loops", 0.9),
		NewHasPrerequisite("lists", "recursion", 0.75),
		NewExplains("res_9", "loops"),
		NewHasPrerequisite("trees", "graphs", 0.8),
	}

	orphaned, valid := DetectOrphanedEdges(edges, validIDs)

	if len(valid) != 2 {
		t.Errorf("got %d valid edges, want 2", len(valid))
	}
	if len(orphaned) != 3 {
		t.Fatalf("got %d orphaned edges, want 3", len(orphaned))
	}

	wantReasons := []string{"missing_target", "missing_source", "missing_both"}
	for i, want := range wantReasons {
		if orphaned[i].Reason != want {
			t.Errorf("orphaned[%d].Reason = %q, want %q", i, orphaned[i].Reason, want)
		}
	}
}

func TestFindDuplicateEdges(t *testing.T) {
	edges := []Edge{
		NewHasPrerequisite("lists", "loops", 0.9),
		NewHasPrerequisite("lists", "loops", 0.9),
		NewExplains("lists", "loops"),
		NewExplains("res_0", "lists"),
	}

	dups := FindDuplicateEdges(edges)
	if len(dups) != 1 {
		t.Fatalf("got %d duplicate keys, want 1", len(dups))
	}
	key := EdgeKey{SourceID: "lists", TargetID: "loops", Kind: KindHasPrerequisite}
	if dups[key] != 2 {
		t.Errorf("dups[%v] = %d, want 2", key, dups[key])
	}
}

func TestRecord_RoundTripKinds(t *testing.T) {
	for _, e := range []Edge{
		NewExplains("res_0", "lists"),
		NewHasPrerequisite("lists", "loops", 0.71),
	} {
		got, err := ToRecord(e).Edge()
		if err != nil {
			t.Fatalf("Edge() error = %v", err)
		}
		if got != e {
			t.Errorf("round trip = %#v, want %#v", got, e)
		}
	}
}

func TestRecord_Errors(t *testing.T) {
	if _, err := (Record{Kind: "ASSESSES", From: "a", To: "b"}).Edge(); !errors.Is(err, ErrUnknownEdgeKind) {
		t.Errorf("unknown kind error = %v, want %v", err, ErrUnknownEdgeKind)
	}
	if _, err := (Record{Kind: KindHasPrerequisite, From: "a", To: "b"}).Edge(); err == nil {
		t.Error("prerequisite without weight: expected error")
	}
}
