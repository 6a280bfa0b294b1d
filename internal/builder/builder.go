// Package builder assembles a learning graph from a list of sources.
//
// Sources are acquired and their concepts extracted concurrently; results
// are then merged sequentially in source order, so node ids and edge order
// depend only on the input list.
package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/learnpath/internal/acquire"
	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/edge"
	"github.com/matsen/learnpath/internal/extract"
	"github.com/matsen/learnpath/internal/graph"
	"github.com/matsen/learnpath/internal/logger"
	"github.com/matsen/learnpath/internal/semantic"
)

// DefaultThreshold is the relatedness a concept pair must strictly exceed to
// become a prerequisite edge.
const DefaultThreshold = 0.7

// DefaultConcurrency bounds concurrent source acquisitions.
const DefaultConcurrency = 4

// ErrNoContent is returned when no source yielded content.
var ErrNoContent = errors.New("no source yielded content")

// ProgressReporter receives acquisition progress. It may be called from
// several goroutines at once.
type ProgressReporter interface {
	OnProgress(done, total int)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(done, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(done, total int) {
	f(done, total)
}

// SkippedSource records a source that contributed nothing to the graph.
type SkippedSource struct {
	Index  int    `json:"index"`
	URI    string `json:"uri"`
	Reason string `json:"reason"`
}

// BuildStats summarizes one build.
type BuildStats struct {
	SourcesTotal      int             `json:"sources_total"`
	SourcesAcquired   int             `json:"sources_acquired"`
	SourcesSkipped    int             `json:"sources_skipped"`
	Concepts          int             `json:"concepts"`
	ExplainsEdges     int             `json:"explains_edges"`
	PrerequisiteEdges int             `json:"prerequisite_edges"`
	Skipped           []SkippedSource `json:"skipped,omitempty"`
	Duration          time.Duration   `json:"duration"`
}

// Builder constructs graphs from its collaborators.
type Builder struct {
	fetcher     acquire.Fetcher
	extractor   extract.Extractor
	scorer      semantic.Scorer
	threshold   float64
	concurrency int
	log         *logger.Logger
	progress    ProgressReporter
}

// Option configures a Builder.
type Option func(*Builder)

// WithThreshold sets the relatedness threshold.
func WithThreshold(t float64) Option {
	return func(b *Builder) {
		b.threshold = t
	}
}

// WithConcurrency bounds concurrent acquisitions.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLogger sets the logger used for skipped sources.
func WithLogger(l *logger.Logger) Option {
	return func(b *Builder) {
		b.log = logger.OrNop(l)
	}
}

// WithProgress sets a progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(b *Builder) {
		b.progress = p
	}
}

// New creates a Builder.
func New(fetcher acquire.Fetcher, extractor extract.Extractor, scorer semantic.Scorer, opts ...Option) *Builder {
	b := &Builder{
		fetcher:     fetcher,
		extractor:   extractor,
		scorer:      scorer,
		threshold:   DefaultThreshold,
		concurrency: DefaultConcurrency,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Threshold returns the relatedness threshold in use.
func (b *Builder) Threshold() float64 {
	return b.threshold
}

// gathered is the per-source outcome of the concurrent phase.
type gathered struct {
	labels []string
	err    error
}

// Build acquires every source and returns the populated graph. A source
// that fails acquisition or extraction, or has no text, is skipped. If no
// source yields content the build fails with ErrNoContent.
func (b *Builder) Build(ctx context.Context, sources []string) (*graph.Graph, *BuildStats, error) {
	start := time.Now()
	stats := &BuildStats{SourcesTotal: len(sources)}

	results, err := b.gather(ctx, sources)
	if err != nil {
		return nil, nil, err
	}

	g := graph.New()
	labelSet := make(map[string]bool)
	type explained struct {
		resourceID string
		labels     []string
	}
	var pending []explained

	for i, uri := range sources {
		r := results[i]
		if r.err != nil {
			stats.SourcesSkipped++
			stats.Skipped = append(stats.Skipped, SkippedSource{Index: i, URI: uri, Reason: r.err.Error()})
			b.log.Warn("source skipped", "index", i, "uri", uri, "error", r.err)
			continue
		}
		stats.SourcesAcquired++

		id := concept.ResourceID(i)
		g.AddNode(concept.LearningResource{ID: id, SourceURI: uri, ExplainedConcepts: r.labels})
		pending = append(pending, explained{resourceID: id, labels: r.labels})
		for _, l := range r.labels {
			labelSet[l] = true
		}
	}

	if stats.SourcesAcquired == 0 {
		return nil, stats, fmt.Errorf("%w: %d of %d sources skipped", ErrNoContent, stats.SourcesSkipped, stats.SourcesTotal)
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	for _, l := range labels {
		g.AddNode(concept.New(l))
	}
	stats.Concepts = len(labels)

	for _, p := range pending {
		for _, l := range p.labels {
			g.AddEdge(edge.NewExplains(p.resourceID, l))
			stats.ExplainsEdges++
		}
	}

	if len(labels) > 1 {
		m, err := b.scorer.Score(ctx, labels)
		if err != nil {
			return nil, nil, fmt.Errorf("scoring concept relatedness: %w", err)
		}
		for _, pair := range m.Above(b.threshold) {
			g.AddEdge(edge.NewHasPrerequisite(pair.From, pair.To, pair.Score))
			stats.PrerequisiteEdges++
		}
	}

	stats.Duration = time.Since(start)
	b.log.Info("graph built",
		"sources", stats.SourcesTotal,
		"skipped", stats.SourcesSkipped,
		"concepts", stats.Concepts,
		"prerequisites", stats.PrerequisiteEdges,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return g, stats, nil
}

// gather acquires and extracts every source concurrently. Per-source errors
// are recorded, never returned; only cancellation of ctx fails the phase.
func (b *Builder) gather(ctx context.Context, sources []string) ([]gathered, error) {
	results := make([]gathered, len(sources))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, uri := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.acquire(gctx, uri)
			if b.progress != nil {
				b.progress.OnProgress(int(done.Add(1)), len(sources))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) acquire(ctx context.Context, uri string) gathered {
	doc, err := b.fetcher.Fetch(ctx, uri)
	if err != nil {
		return gathered{err: fmt.Errorf("acquiring: %w", err)}
	}
	if doc.Text == "" {
		return gathered{err: acquire.ErrEmptyDocument}
	}

	raw, err := b.extractor.Extract(ctx, doc.Text)
	if err != nil {
		return gathered{err: fmt.Errorf("extracting concepts: %w", err)}
	}
	return gathered{labels: uniqueLabels(raw)}
}

// uniqueLabels drops empty and repeated labels, keeping first occurrences.
func uniqueLabels(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
