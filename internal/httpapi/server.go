// Package httpapi serves the learning-path operations over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/matsen/learnpath/internal/builder"
	"github.com/matsen/learnpath/internal/graph"
	"github.com/matsen/learnpath/internal/learner"
	"github.com/matsen/learnpath/internal/logger"
	"github.com/matsen/learnpath/internal/metrics"
	"github.com/matsen/learnpath/internal/service"
)

// MaxRequestBytes bounds request bodies.
const MaxRequestBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// Server routes HTTP requests to a service.
type Server struct {
	svc      *service.Service
	log      *logger.Logger
	metrics  *metrics.Collector
	validate *validator.Validate
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		s.log = logger.OrNop(l)
	}
}

// WithMetrics records request metrics and serves them at /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// New creates a server for svc.
func New(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		log:      logger.Nop(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Post("/build_graph", s.handleBuildGraph)
	r.Post("/find_path", s.handleFindPath)
	r.Post("/update_learner", s.handleUpdateLearner)
	r.Post("/add_interest", s.handleAddInterest)
	r.Get("/learner/{id}", s.handleGetLearner)
	r.Get("/graph", s.handleGetGraph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// observe logs each request and records its metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		s.metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), d)
		s.log.Info("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Request bodies.

type buildGraphRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,dive,required"`
}

type findPathRequest struct {
	Start     string           `json:"start" validate:"required"`
	Goal      string           `json:"goal" validate:"required"`
	Weights   *service.Weights `json:"weights"`
	LearnerID string           `json:"learner_id"`
}

type updateLearnerRequest struct {
	LearnerID string   `json:"learner_id"`
	ConceptID string   `json:"concept_id" validate:"required"`
	Mastery   *float64 `json:"mastery" validate:"required"`
}

type addInterestRequest struct {
	LearnerID string `json:"learner_id"`
	ConceptID string `json:"concept_id" validate:"required"`
}

// Response bodies.

type buildGraphResponse struct {
	Message string              `json:"message"`
	Nodes   []string            `json:"nodes"`
	Edges   [][2]string         `json:"edges"`
	Stats   graph.Stats         `json:"stats"`
	Build   *builder.BuildStats `json:"build,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, built := s.svc.Graph()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"graph_built": built,
	})
}

func (s *Server) handleBuildGraph(w http.ResponseWriter, r *http.Request) {
	var req buildGraphRequest
	if err := s.decode(w, r, &req); err != nil {
		if !errors.Is(err, errInvalidBody) && len(req.URLs) == 0 {
			s.writeError(w, service.ErrNoSources)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sum, err := s.svc.BuildGraph(r.Context(), req.URLs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	g := sum.Graph
	resp := buildGraphResponse{
		Message: "graph built",
		Nodes:   []string{},
		Edges:   [][2]string{},
		Stats:   sum.Stats,
		Build:   sum.Build,
	}
	for _, n := range g.Nodes() {
		resp.Nodes = append(resp.Nodes, n.NodeID())
	}
	for _, e := range g.Edges() {
		resp.Edges = append(resp.Edges, [2]string{e.From(), e.To()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	var req findPathRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := s.svc.FindPath(r.Context(), service.PathRequest{
		Start:     req.Start,
		Goal:      req.Goal,
		Weights:   req.Weights,
		LearnerID: req.LearnerID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpdateLearner(w http.ResponseWriter, r *http.Request) {
	var req updateLearnerRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ks, err := s.svc.UpdateLearner(r.Context(), req.LearnerID, req.ConceptID, *req.Mastery)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"knowledge_state": ks})
}

func (s *Server) handleAddInterest(w http.ResponseWriter, r *http.Request) {
	var req addInterestRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	interests, err := s.svc.AddInterest(r.Context(), req.LearnerID, req.ConceptID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interests": interests})
}

func (s *Server) handleGetLearner(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Learner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.svc.Graph()
	if !ok {
		s.writeError(w, service.ErrNoGraph)
		return
	}
	writeJSON(w, http.StatusOK, service.ViewOf(g))
}

// decode reads and validates a JSON body into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// writeError maps service errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoSources),
		errors.Is(err, service.ErrNoGraph),
		errors.Is(err, service.ErrBadRequest),
		errors.Is(err, learner.ErrMasteryOutOfRange),
		errors.Is(err, learner.ErrEmptyConceptID),
		errors.Is(err, learner.ErrEmptyLearnerID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoPath):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError flattens validator errors into one message naming each
// failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
	}
	return errors.New("invalid request: " + strings.Join(msgs, "; "))
}
