package semantic

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/learnpath/internal/embedding"
)

// EmbeddingScorer scores label pairs by the cosine similarity of their
// embeddings. All labels are embedded in one batch pass, then matrix rows are
// computed in parallel.
type EmbeddingScorer struct {
	provider    embedding.Provider
	index       *LabelIndex
	concurrency int
}

// ScorerOption configures an EmbeddingScorer.
type ScorerOption func(*EmbeddingScorer)

// WithIndex reuses and extends a cache of label embeddings. Only labels
// missing from the index are sent to the provider.
func WithIndex(idx *LabelIndex) ScorerOption {
	return func(s *EmbeddingScorer) {
		s.index = idx
	}
}

// WithConcurrency bounds the goroutines computing matrix rows.
func WithConcurrency(n int) ScorerOption {
	return func(s *EmbeddingScorer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewEmbeddingScorer creates a scorer backed by provider.
func NewEmbeddingScorer(provider embedding.Provider, opts ...ScorerOption) *EmbeddingScorer {
	s := &EmbeddingScorer{
		provider:    provider,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the label index in use, or nil.
func (s *EmbeddingScorer) Index() *LabelIndex {
	return s.index
}

// Score implements Scorer. Negative similarities score 0.
func (s *EmbeddingScorer) Score(ctx context.Context, labels []string) (*Matrix, error) {
	vecs, err := s.vectors(ctx, labels)
	if err != nil {
		return nil, err
	}

	m := NewMatrix(labels)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range labels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine writes only its own row.
			for j := range labels {
				if i != j {
					m.Set(i, j, Clamp01(CosineSimilarity(vecs[i], vecs[j])))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *EmbeddingScorer) vectors(ctx context.Context, labels []string) ([][]float32, error) {
	vecs := make([][]float32, len(labels))

	var missing []string
	var missingIdx []int
	for i, l := range labels {
		if s.index != nil {
			if v, ok := s.index.Get(l); ok {
				vecs[i] = v
				continue
			}
		}
		missing = append(missing, l)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return vecs, nil
	}

	embs, err := s.provider.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("embedding %d labels: %w", len(missing), err)
	}
	if len(embs) != len(missing) {
		return nil, fmt.Errorf("embedding %d labels: provider returned %d vectors", len(missing), len(embs))
	}

	for k, e := range embs {
		vecs[missingIdx[k]] = e.Vector
		if s.index != nil {
			if err := s.index.Add(missing[k], e.Vector); err != nil {
				return nil, fmt.Errorf("caching %q: %w", missing[k], err)
			}
		}
	}
	return vecs, nil
}
