// Package service exposes the learning-path operations shared by every
// transport: graph builds, path searches and learner updates.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matsen/learnpath/internal/builder"
	"github.com/matsen/learnpath/internal/config"
	"github.com/matsen/learnpath/internal/cost"
	"github.com/matsen/learnpath/internal/graph"
	"github.com/matsen/learnpath/internal/learner"
	"github.com/matsen/learnpath/internal/logger"
	"github.com/matsen/learnpath/internal/metrics"
	"github.com/matsen/learnpath/internal/pathfind"
	"github.com/matsen/learnpath/internal/storage"
)

// Errors returned by service operations. Transports map these to status codes.
var (
	ErrNoSources   = errors.New("no sources provided")
	ErrBuildFailed = errors.New("failed to build graph")
	ErrNoGraph     = errors.New("graph not built yet")
	ErrNoPath      = errors.New("no path found")
	ErrBadRequest  = errors.New("start and goal are required")
)

// GraphBuilder builds a graph from sources.
type GraphBuilder interface {
	Build(ctx context.Context, sources []string) (*graph.Graph, *builder.BuildStats, error)
}

// Weights are request weights. A nil field takes the service default.
type Weights struct {
	Time      *float64 `json:"time,omitempty"`
	Cognitive *float64 `json:"cognitive,omitempty"`
	Prereq    *float64 `json:"prereq,omitempty"`
	Interest  *float64 `json:"interest,omitempty"`
}

// Resolve fills unset fields from defaults.
func (w *Weights) Resolve(defaults cost.Weights) cost.Weights {
	if w == nil {
		return defaults
	}
	out := defaults
	if w.Time != nil {
		out.Time = *w.Time
	}
	if w.Cognitive != nil {
		out.Cognitive = *w.Cognitive
	}
	if w.Prereq != nil {
		out.Prereq = *w.Prereq
	}
	if w.Interest != nil {
		out.Interest = *w.Interest
	}
	return out
}

// PathRequest asks for a path between two nodes.
type PathRequest struct {
	Start     string   `json:"start"`
	Goal      string   `json:"goal"`
	Weights   *Weights `json:"weights,omitempty"`
	LearnerID string   `json:"learner_id,omitempty"`
}

// PathResult is a found path with its cost and per-step breakdown.
type PathResult struct {
	Path      []string        `json:"path"`
	Cost      float64         `json:"cost"`
	Steps     []pathfind.Step `json:"steps,omitempty"`
	Weights   cost.Weights    `json:"weights"`
	LearnerID string          `json:"learner_id"`
}

// GraphSummary describes a freshly built graph.
type GraphSummary struct {
	Nodes int                 `json:"nodes"`
	Edges int                 `json:"edges"`
	Stats graph.Stats         `json:"stats"`
	Build *builder.BuildStats `json:"build,omitempty"`

	// Graph is the graph this build produced, even if a later build has
	// since replaced it.
	Graph *graph.Graph `json:"-"`
}

// Service wires the graph handle, learner store and builder together.
type Service struct {
	handle       *graph.Handle
	learners     learner.Store
	builder      GraphBuilder
	weights      cost.Weights
	estimates    *config.Estimates
	metrics      *metrics.Collector
	log          *logger.Logger
	snapshotPath string
	afterBuild   func(context.Context) error

	// buildMu serializes builds so the saved snapshot always matches the
	// current graph.
	buildMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultWeights sets the weights used for fields a request leaves unset.
func WithDefaultWeights(w cost.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithEstimates sets per-concept duration and difficulty estimates.
func WithEstimates(e *config.Estimates) Option {
	return func(s *Service) {
		if e != nil {
			s.estimates = e
		}
	}
}

// WithMetrics records build and search outcomes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		s.log = logger.OrNop(l)
	}
}

// WithSnapshotPath persists each built graph to path before publishing it.
func WithSnapshotPath(path string) Option {
	return func(s *Service) {
		s.snapshotPath = path
	}
}

// WithAfterBuild runs fn after each successful build. Its error is logged.
func WithAfterBuild(fn func(context.Context) error) Option {
	return func(s *Service) {
		s.afterBuild = fn
	}
}

// New creates a service. A nil store gets an in-memory one.
func New(h *graph.Handle, store learner.Store, b GraphBuilder, opts ...Option) *Service {
	if h == nil {
		h = graph.NewHandle()
	}
	if store == nil {
		store = learner.NewMemoryStore()
	}
	s := &Service{
		handle:    h,
		learners:  store,
		builder:   b,
		weights:   cost.DefaultWeights(),
		estimates: &config.Estimates{},
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildGraph builds a graph from sources and makes it current. The previous
// graph stays current if the build fails.
func (s *Service) BuildGraph(ctx context.Context, sources []string) (GraphSummary, error) {
	if len(sources) == 0 {
		return GraphSummary{}, ErrNoSources
	}
	if s.builder == nil {
		return GraphSummary{}, fmt.Errorf("%w: no builder configured", ErrBuildFailed)
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	g, stats, err := s.builder.Build(ctx, sources)
	skipped := 0
	if stats != nil {
		skipped = stats.SourcesSkipped
	}
	if err != nil {
		s.metrics.RecordBuild(false, skipped, 0, 0, time.Since(start))
		s.log.Error("graph build failed", "sources", len(sources), "error", err)
		return GraphSummary{}, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	if s.snapshotPath != "" {
		if err := storage.SaveGraph(s.snapshotPath, g); err != nil {
			s.metrics.RecordBuild(false, skipped, 0, 0, time.Since(start))
			return GraphSummary{}, fmt.Errorf("saving graph snapshot: %w", err)
		}
	}
	s.handle.Swap(g)
	s.metrics.RecordBuild(true, skipped, g.NodeCount(), g.EdgeCount(), time.Since(start))

	if s.afterBuild != nil {
		if err := s.afterBuild(ctx); err != nil {
			s.log.Warn("post-build hook failed", "error", err)
		}
	}

	return GraphSummary{
		Nodes: g.NodeCount(),
		Edges: g.EdgeCount(),
		Stats: g.Stats(),
		Build: stats,
		Graph: g,
	}, nil
}

// FindPath searches the current graph using the learner's interests and the
// configured estimates.
func (s *Service) FindPath(ctx context.Context, req PathRequest) (PathResult, error) {
	g, ok := s.handle.Current()
	if !ok {
		s.metrics.RecordPathSearch("error", 0)
		return PathResult{}, ErrNoGraph
	}
	if req.Start == "" || req.Goal == "" {
		s.metrics.RecordPathSearch("error", 0)
		return PathResult{}, ErrBadRequest
	}

	id := learnerID(req.LearnerID)
	st, err := s.Learner(ctx, id)
	if err != nil {
		s.metrics.RecordPathSearch("error", 0)
		return PathResult{}, err
	}

	w := req.Weights.Resolve(s.weights)
	c := s.costContext(st)

	res := pathfind.FindPath(g, req.Start, req.Goal, w, c)
	if !res.Found() {
		s.metrics.RecordPathSearch("not_found", 0)
		s.log.Debug("no path", "start", req.Start, "goal", req.Goal, "learner", id)
		return PathResult{}, ErrNoPath
	}
	s.metrics.RecordPathSearch("found", res.Cost)

	steps, _ := pathfind.Explain(g, res.Path, w, c)
	return PathResult{
		Path:      res.Path,
		Cost:      res.Cost,
		Steps:     steps,
		Weights:   w,
		LearnerID: id,
	}, nil
}

// UpdateLearner sets one concept's mastery and returns the resulting
// knowledge state. Out-of-range mastery leaves the state unchanged.
func (s *Service) UpdateLearner(ctx context.Context, id, conceptID string, mastery float64) (map[string]float64, error) {
	st, err := s.learners.UpdateMastery(ctx, learnerID(id), conceptID, mastery)
	if err != nil {
		return nil, err
	}
	return st.KnowledgeState, nil
}

// AddInterest records an interest and returns the learner's interests.
func (s *Service) AddInterest(ctx context.Context, id, conceptID string) ([]string, error) {
	st, err := s.learners.AddInterest(ctx, learnerID(id), conceptID)
	if err != nil {
		return nil, err
	}
	return st.Interests, nil
}

// Learner returns the learner's state, or an empty state for an unknown id.
func (s *Service) Learner(ctx context.Context, id string) (*learner.State, error) {
	id = learnerID(id)
	st, err := s.learners.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading learner %s: %w", id, err)
	}
	return st, nil
}

// Graph returns the current graph.
func (s *Service) Graph() (*graph.Graph, bool) {
	return s.handle.Current()
}

// DefaultWeights returns the weights applied to unset request fields.
func (s *Service) DefaultWeights() cost.Weights {
	return s.weights
}

func (s *Service) costContext(st *learner.State) cost.Context {
	return cost.Context{
		Durations:    s.estimates.Durations,
		Difficulties: s.estimates.Difficulties,
		Interests:    st.InterestStrengths(),
		Knowledge:    st.KnowledgeState,
	}
}

// NewLearnerID returns a fresh random learner id.
func NewLearnerID() string {
	return "learner-" + uuid.NewString()
}

func learnerID(id string) string {
	if id == "" {
		return learner.DefaultID
	}
	return id
}
