// Package learner holds per-learner knowledge and interest state and the
// validation applied when it changes.
package learner

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Errors returned by learner operations.
var (
	ErrMasteryOutOfRange = errors.New("mastery out of range")
	ErrEmptyLearnerID    = errors.New("learner id is required")
	ErrEmptyConceptID    = errors.New("concept id is required")
)

// DefaultID names the learner used when a request does not identify one.
const DefaultID = "default"

// InterestStrength is the strength recorded for every declared interest.
const InterestStrength = 1.0

// State is one learner's mastery map and ordered interest list.
type State struct {
	ID             string             `json:"id"`
	Interests      []string           `json:"interests"`
	KnowledgeState map[string]float64 `json:"knowledge_state"`
}

// New returns an empty state for id.
func New(id string) *State {
	return &State{
		ID:             id,
		Interests:      []string{},
		KnowledgeState: map[string]float64{},
	}
}

// UpdateMastery sets the mastery of conceptID. Values outside [0,1] are
// rejected and leave the state unchanged.
func (s *State) UpdateMastery(conceptID string, mastery float64) error {
	if conceptID == "" {
		return ErrEmptyConceptID
	}
	if !(mastery >= 0 && mastery <= 1) { // also rejects NaN
		return fmt.Errorf("%w: %v not in [0, 1]", ErrMasteryOutOfRange, mastery)
	}
	if s.KnowledgeState == nil {
		s.KnowledgeState = map[string]float64{}
	}
	s.KnowledgeState[conceptID] = mastery
	return nil
}

// AddInterest appends conceptID unless already present. It reports whether
// the list changed.
func (s *State) AddInterest(conceptID string) (bool, error) {
	if conceptID == "" {
		return false, ErrEmptyConceptID
	}
	if slices.Contains(s.Interests, conceptID) {
		return false, nil
	}
	s.Interests = append(s.Interests, conceptID)
	return true, nil
}

// InterestStrengths returns the interest list as a strength map for the cost
// model.
func (s *State) InterestStrengths() map[string]float64 {
	out := make(map[string]float64, len(s.Interests))
	for _, c := range s.Interests {
		out[c] = InterestStrength
	}
	return out
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	return &State{
		ID:             s.ID,
		Interests:      slices.Clone(s.Interests),
		KnowledgeState: maps.Clone(s.KnowledgeState),
	}
}

// Store persists learner states. Get on an unknown id returns a fresh empty
// state; mutations create the learner on first reference. Each mutation is
// all-or-nothing.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	UpdateMastery(ctx context.Context, id, conceptID string, mastery float64) (*State, error)
	AddInterest(ctx context.Context, id, conceptID string) (*State, error)
	List(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

// Get returns a copy of the learner's state.
func (m *MemoryStore) Get(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrEmptyLearnerID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[id]; ok {
		return s.Clone(), nil
	}
	return New(id), nil
}

// UpdateMastery applies the update to a copy and commits it only on success.
func (m *MemoryStore) UpdateMastery(ctx context.Context, id, conceptID string, mastery float64) (*State, error) {
	return m.mutate(id, func(s *State) error {
		return s.UpdateMastery(conceptID, mastery)
	})
}

// AddInterest records an interest.
func (m *MemoryStore) AddInterest(ctx context.Context, id, conceptID string) (*State, error) {
	return m.mutate(id, func(s *State) error {
		_, err := s.AddInterest(conceptID)
		return err
	})
}

// List returns the known learner ids, sorted.
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.states)), nil
}

func (m *MemoryStore) mutate(id string, apply func(*State) error) (*State, error) {
	if id == "" {
		return nil, ErrEmptyLearnerID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := New(id)
	if cur, ok := m.states[id]; ok {
		next = cur.Clone()
	}
	if err := apply(next); err != nil {
		return nil, err
	}
	m.states[id] = next
	return next.Clone(), nil
}
