package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/edge"
)

func TestAddNode_LastWriteWins(t *testing.T) {
	g := New()
	g.AddNode(concept.LearningResource{ID: "res_0", SourceURI: "https://a.example"})
	g.AddNode(concept.New("lists"))
	g.AddNode(concept.LearningResource{ID: "res_0", SourceURI: "https://b.example"})

	assert.Equal(t, 2, g.NodeCount())

	n, ok := g.Node("res_0")
	require.True(t, ok)
	res, ok := n.(concept.LearningResource)
	require.True(t, ok)
	assert.Equal(t, "https://b.example", res.SourceURI)

	// Overwriting keeps the original insertion position.
	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "res_0", nodes[0].NodeID())
	assert.Equal(t, "lists", nodes[1].NodeID())
}

func TestAddEdge_KeepsParallelEdges(t *testing.T) {
	g := New()
	g.AddNode(concept.New("lists"))
	g.AddNode(concept.New("loops"))
	g.AddEdge(edge.NewHasPrerequisite("lists", "loops", 0.9))
	g.AddEdge(edge.NewHasPrerequisite("lists", "loops", 0.9))

	assert.Len(t, g.Neighbors("lists"), 2)
	assert.Equal(t, 2, g.EdgeCount())
	assert.Empty(t, g.Neighbors("loops"))
}

func TestAddEdge_NoReferentialCheck(t *testing.T) {
	g := New()
	g.AddEdge(edge.NewHasPrerequisite("ghost", "phantom", 0.8))

	assert.False(t, g.Has("ghost"))
	assert.Len(t, g.Neighbors("ghost"), 1)
}

func TestHas(t *testing.T) {
	g := New()
	g.AddNode(concept.New("recursion"))

	assert.True(t, g.Has("recursion"))
	assert.False(t, g.Has("Recursion"))
	assert.False(t, g.Has(""))
}

func TestStats(t *testing.T) {
	g := New()
	g.AddNode(concept.LearningResource{ID: "res_0", SourceURI: "u", ExplainedConcepts: []string{"a", "b"}})
	g.AddNode(concept.New("a"))
	g.AddNode(concept.New("b"))
	g.AddEdge(edge.NewExplains("res_0", "a"))
	g.AddEdge(edge.NewExplains("res_0", "b"))
	g.AddEdge(edge.NewHasPrerequisite("a", "b", 0.75))

	assert.Equal(t, Stats{
		Nodes:         3,
		Concepts:      2,
		Resources:     1,
		Edges:         3,
		Explains:      2,
		Prerequisites: 1,
	}, g.Stats())

	assert.Len(t, g.Concepts(), 2)
	assert.Len(t, g.Resources(), 1)
}

func TestIsEmpty(t *testing.T) {
	var nilGraph *Graph
	assert.True(t, nilGraph.IsEmpty())
	assert.True(t, New().IsEmpty())

	g := New()
	g.AddNode(concept.New("a"))
	assert.False(t, g.IsEmpty())
}

func TestCheck(t *testing.T) {
	g := New()
	g.AddNode(concept.New("a"))
	g.AddNode(concept.New("b"))
	g.AddEdge(edge.NewHasPrerequisite("a", "b", 0.8))
	g.AddEdge(edge.NewHasPrerequisite("a", "b", 0.8))
	g.AddEdge(edge.NewHasPrerequisite("a", "missing", 0.9))

	report := g.Check()
	assert.False(t, report.OK())
	require.Len(t, report.Orphaned, 1)
	assert.Equal(t, "missing_target", report.Orphaned[0].Reason)
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, DuplicateInfo{SourceID: "a", TargetID: "b", Kind: edge.KindHasPrerequisite, Count: 2}, report.Duplicates[0])
}

func TestHandle(t *testing.T) {
	h := NewHandle()

	_, ok := h.Current()
	assert.False(t, ok, "new handle should report no graph built")

	first := New()
	first.AddNode(concept.New("a"))
	assert.Nil(t, h.Swap(first))

	second := New()
	prev := h.Swap(second)
	assert.Same(t, first, prev)

	cur, ok := h.Current()
	require.True(t, ok)
	assert.Same(t, second, cur)
}

func TestHandle_ConcurrentReaders(t *testing.T) {
	h := NewHandle()
	g := New()
	g.AddNode(concept.New("a"))
	h.Swap(g)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if cur, ok := h.Current(); ok {
					_ = cur.Has("a")
				}
				if j%10 == 0 {
					next := New()
					next.AddNode(concept.New("a"))
					h.Swap(next)
				}
			}
		}()
	}
	wg.Wait()

	cur, ok := h.Current()
	require.True(t, ok)
	assert.True(t, cur.Has("a"))
}
