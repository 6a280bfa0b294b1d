package learner

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_UpdateMastery(t *testing.T) {
	tests := []struct {
		name    string
		mastery float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"middle", 0.5, false},
		{"above", 1.5, true},
		{"below", -0.01, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("l1")
			err := s.UpdateMastery("recursion", tt.mastery)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMasteryOutOfRange)
				assert.Empty(t, s.KnowledgeState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mastery, s.KnowledgeState["recursion"])
		})
	}
}

func TestState_RejectedUpdateLeavesStateUnchanged(t *testing.T) {
	s := New("l1")
	require.NoError(t, s.UpdateMastery("loops", 0.4))
	before := s.Clone()

	err := s.UpdateMastery("loops", 1.5)

	assert.ErrorIs(t, err, ErrMasteryOutOfRange)
	assert.Equal(t, before.KnowledgeState, s.KnowledgeState)
}

func TestState_AddInterest(t *testing.T) {
	s := New("l1")

	added, err := s.AddInterest("graphs")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddInterest("graphs")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = s.AddInterest("trees")
	require.NoError(t, err)
	assert.Equal(t, []string{"graphs", "trees"}, s.Interests)
	assert.Equal(t, map[string]float64{"graphs": 1, "trees": 1}, s.InterestStrengths())

	_, err = s.AddInterest("")
	assert.ErrorIs(t, err, ErrEmptyConceptID)
}

func TestState_CloneIsDeep(t *testing.T) {
	s := New("l1")
	s.UpdateMastery("a", 0.1)
	s.AddInterest("b")

	c := s.Clone()
	c.UpdateMastery("a", 0.9)
	c.AddInterest("z")

	assert.Equal(t, 0.1, s.KnowledgeState["a"])
	assert.Equal(t, []string{"b"}, s.Interests)
}

func TestMemoryStore_UpdateMastery(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s, err := m.UpdateMastery(ctx, "l1", "loops", 0.6)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"loops": 0.6}, s.KnowledgeState)

	// Out-of-range update is rejected and the stored state is untouched.
	_, err = m.UpdateMastery(ctx, "l1", "loops", 1.5)
	assert.ErrorIs(t, err, ErrMasteryOutOfRange)

	got, err := m.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"loops": 0.6}, got.KnowledgeState)
}

func TestMemoryStore_RejectedFirstUpdateCreatesNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.UpdateMastery(ctx, "l1", "loops", -1)
	require.Error(t, err)

	ids, _ := m.List(ctx)
	assert.Empty(t, ids)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.AddInterest(ctx, "l1", "graphs")

	s, _ := m.Get(ctx, "l1")
	s.Interests[0] = "mutated"

	again, _ := m.Get(ctx, "l1")
	assert.Equal(t, []string{"graphs"}, again.Interests)
}

func TestMemoryStore_UnknownLearnerIsEmpty(t *testing.T) {
	s, err := NewMemoryStore().Get(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, "new", s.ID)
	assert.Empty(t, s.Interests)
	assert.Empty(t, s.KnowledgeState)

	_, err = NewMemoryStore().Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyLearnerID)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.UpdateMastery(ctx, "l1", string(rune('a'+i)), 0.5)
			m.AddInterest(ctx, "l1", "shared")
		}(i)
	}
	wg.Wait()

	s, _ := m.Get(ctx, "l1")
	assert.Len(t, s.KnowledgeState, 20)
	assert.Equal(t, []string{"shared"}, s.Interests)

	ids, _ := m.List(ctx)
	assert.Equal(t, []string{"l1"}, ids)
}

func TestMemoryStore_ImplementsStore(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
}
