package builder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/learnpath/internal/acquire"
	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/edge"
	"github.com/matsen/learnpath/internal/extract"
	"github.com/matsen/learnpath/internal/graph"
	"github.com/matsen/learnpath/internal/semantic"
)

// pages serves fixed text per URI; a missing URI fails acquisition.
func pages(m map[string]string) acquire.Fetcher {
	return acquire.FetcherFunc(func(ctx context.Context, uri string) (acquire.Document, error) {
		text, ok := m[uri]
		if !ok {
			return acquire.Document{}, errors.New("connection refused")
		}
		return acquire.Document{URI: uri, Text: text}, nil
	})
}

// commaLabels treats the text as a comma-separated label list.
var commaLabels = extract.ExtractorFunc(func(ctx context.Context, text string) ([]string, error) {
	return strings.Split(text, ","), nil
})

// fixedScores returns the score for "a->b", 0 otherwise.
func fixedScores(scores map[string]float64) semantic.Scorer {
	return semantic.PairFunc(func(ctx context.Context, a, b string) (float64, error) {
		return scores[a+"->"+b], nil
	})
}

func explainsInto(g *graph.Graph, target string) []string {
	var from []string
	for _, e := range g.Edges() {
		if e.Kind() == edge.KindExplains && e.To() == target {
			from = append(from, e.From())
		}
	}
	return from
}

func TestBuild_OverlappingSourcesDedupConcepts(t *testing.T) {
	b := New(pages(map[string]string{
		"u1": "lists,loops",
		"u2": "lists,loops",
	}), commaLabels, fixedScores(nil))

	g, stats, err := b.Build(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)

	assert.Len(t, g.Concepts(), 2)
	assert.Len(t, g.Resources(), 2)
	assert.ElementsMatch(t, []string{"res_0", "res_1"}, explainsInto(g, "lists"))
	assert.ElementsMatch(t, []string{"res_0", "res_1"}, explainsInto(g, "loops"))
	assert.Equal(t, 4, stats.ExplainsEdges)
	assert.Equal(t, 2, stats.Concepts)
}

func TestBuild_CaseVariantsAreDistinct(t *testing.T) {
	b := New(pages(map[string]string{"u": "Recursion,recursion"}), commaLabels, fixedScores(nil))

	g, _, err := b.Build(context.Background(), []string{"u"})
	require.NoError(t, err)

	assert.True(t, g.Has("Recursion"))
	assert.True(t, g.Has("recursion"))
}

func TestBuild_ThresholdIsStrict(t *testing.T) {
	b := New(pages(map[string]string{"u": "a,b,c"}), commaLabels, fixedScores(map[string]float64{
		"a->b": 0.7,
		"b->c": 0.70001,
		"c->a": 1.0,
	}))

	g, stats, err := b.Build(context.Background(), []string{"u"})
	require.NoError(t, err)

	var prereqs []edge.HasPrerequisite
	for _, e := range g.Edges() {
		if p, ok := e.(edge.HasPrerequisite); ok {
			prereqs = append(prereqs, p)
		}
	}
	assert.Equal(t, []edge.HasPrerequisite{
		{FromID: "b", ToID: "c", Weight: 0.70001},
		{FromID: "c", ToID: "a", Weight: 1.0},
	}, prereqs)
	assert.Equal(t, 2, stats.PrerequisiteEdges)
}

func TestBuild_SkipsFailedSourcesKeepingIndexIDs(t *testing.T) {
	b := New(pages(map[string]string{
		"good0": "graphs",
		"empty": "",
		"good3": "trees",
	}), commaLabels, fixedScores(nil))

	g, stats, err := b.Build(context.Background(), []string{"good0", "down", "empty", "good3"})
	require.NoError(t, err)

	assert.True(t, g.Has("res_0"))
	assert.False(t, g.Has("res_1"))
	assert.False(t, g.Has("res_2"))
	assert.True(t, g.Has("res_3"))

	n, _ := g.Node("res_3")
	assert.Equal(t, "good3", n.(concept.LearningResource).SourceURI)

	assert.Equal(t, 4, stats.SourcesTotal)
	assert.Equal(t, 2, stats.SourcesAcquired)
	assert.Equal(t, 2, stats.SourcesSkipped)
	require.Len(t, stats.Skipped, 2)
	assert.Equal(t, 1, stats.Skipped[0].Index)
	assert.Equal(t, "down", stats.Skipped[0].URI)
}

func TestBuild_AllSourcesFail(t *testing.T) {
	b := New(pages(nil), commaLabels, fixedScores(nil))

	g, stats, err := b.Build(context.Background(), []string{"x", "y"})

	assert.ErrorIs(t, err, ErrNoContent)
	assert.Nil(t, g)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.SourcesSkipped)
}

func TestBuild_NoSources(t *testing.T) {
	_, _, err := New(pages(nil), commaLabels, fixedScores(nil)).Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestBuild_ResourceWithoutConcepts(t *testing.T) {
	none := extract.ExtractorFunc(func(ctx context.Context, text string) ([]string, error) { return nil, nil })
	b := New(pages(map[string]string{"u": "prose with nothing"}), none, fixedScores(nil))

	g, stats, err := b.Build(context.Background(), []string{"u"})
	require.NoError(t, err)
	assert.Equal(t, 1, g.NodeCount())
	assert.Zero(t, stats.Concepts)
}

func TestBuild_ExtractorErrorSkipsSource(t *testing.T) {
	failing := extract.ExtractorFunc(func(ctx context.Context, text string) ([]string, error) {
		if text == "bad" {
			return nil, errors.New("tokenizer crashed")
		}
		return []string{text}, nil
	})
	b := New(pages(map[string]string{"u0": "bad", "u1": "heaps"}), failing, fixedScores(nil))

	g, stats, err := b.Build(context.Background(), []string{"u0", "u1"})
	require.NoError(t, err)
	assert.False(t, g.Has("res_0"))
	assert.True(t, g.Has("heaps"))
	assert.Equal(t, 1, stats.SourcesSkipped)
}

func TestBuild_ScorerErrorFailsBuild(t *testing.T) {
	boom := errors.New("ollama down")
	scorer := semantic.PairFunc(func(ctx context.Context, a, b string) (float64, error) { return 0, boom })
	b := New(pages(map[string]string{"u": "a,b"}), commaLabels, scorer)

	_, _, err := b.Build(context.Background(), []string{"u"})
	assert.ErrorIs(t, err, boom)
}

func TestBuild_DeterministicAcrossRuns(t *testing.T) {
	src := map[string]string{"u0": "z,y,x", "u1": "b,a", "u2": "y,a"}
	sources := []string{"u0", "u1", "u2"}
	scores := fixedScores(map[string]float64{"a->x": 0.8, "x->a": 0.9, "y->b": 0.75})

	var first []string
	for i := 0; i < 5; i++ {
		g, _, err := New(pages(src), commaLabels, scores, WithConcurrency(3)).Build(context.Background(), sources)
		require.NoError(t, err)

		var ids []string
		for _, n := range g.Nodes() {
			ids = append(ids, n.NodeID())
		}
		for _, e := range g.Edges() {
			ids = append(ids, e.From()+">"+e.To())
		}
		if first == nil {
			first = ids
			continue
		}
		assert.Equal(t, first, ids)
	}
}

func TestBuild_Progress(t *testing.T) {
	var mu sync.Mutex
	var calls []int
	b := New(pages(map[string]string{"a": "x"}), commaLabels, fixedScores(nil),
		WithProgress(ProgressFunc(func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 3, total)
			calls = append(calls, done)
		})),
	)

	_, _, err := b.Build(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, calls)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(pages(map[string]string{"u": "a"}), commaLabels, fixedScores(nil)).Build(ctx, []string{"u"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Defaults(t *testing.T) {
	b := New(pages(nil), commaLabels, fixedScores(nil), WithConcurrency(0), WithLogger(nil))
	assert.Equal(t, DefaultThreshold, b.Threshold())
	assert.Equal(t, DefaultConcurrency, b.concurrency)
	assert.NotNil(t, b.log)
}
