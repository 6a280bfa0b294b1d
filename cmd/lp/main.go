// Package main provides the lp CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/acquire"
	"github.com/matsen/learnpath/internal/builder"
	"github.com/matsen/learnpath/internal/config"
	"github.com/matsen/learnpath/internal/embedding"
	"github.com/matsen/learnpath/internal/extract"
	"github.com/matsen/learnpath/internal/graph"
	"github.com/matsen/learnpath/internal/logger"
	"github.com/matsen/learnpath/internal/metrics"
	"github.com/matsen/learnpath/internal/semantic"
	"github.com/matsen/learnpath/internal/service"
	"github.com/matsen/learnpath/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// refreshSources bypasses the document cache for remote sources.
var refreshSources bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lp",
	Short: "Personalized learning paths over a concept graph",
	Long: `lp builds a graph of concepts and learning resources from web pages,
PDFs and local files, then finds the cheapest path from one concept to another
for a learner, weighing time, difficulty, prerequisite gaps and interest.

Graphs are stored as JSONL under .learnpath/, learners in SQLite.
All commands output JSON by default; pass --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (LP_LOG_MODE, OLLAMA_HOST)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a workspace.
// Checks global config workspace_path first, then current working directory.
func getStartingDirectory() (string, int) {
	if cfg, err := config.LoadGlobalConfig(); err == nil && cfg.WorkspacePath != "" {
		return cfg.WorkspacePath, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindWorkspace finds and validates the workspace, exits on error.
// Returns the workspace root path.
func mustFindWorkspace() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	root, err := config.FindWorkspace(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return root
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadEstimates loads the estimates file, exits on error.
func mustLoadEstimates(root string) *config.Estimates {
	est, err := config.LoadEstimates(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading estimates: %v", err)
	}
	return est
}

// mustOpenLearnerDB opens the learner database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenLearnerDB(root string) *storage.LearnerDB {
	db, err := storage.OpenLearnerDB(config.LearnerDBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening learner database: %v", err)
	}
	return db
}

// mustLoadGraph loads the graph snapshot, exits on error.
func mustLoadGraph(root string) *graph.Graph {
	g, err := storage.LoadGraph(config.GraphPath(root))
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			exitWithError(ExitNoGraph, "%v\n\nRun 'lp build URL...' to build a graph.", service.ErrNoGraph)
		}
		exitWithError(ExitDataError, "loading graph: %v", err)
	}
	return g
}

// newLogger builds the CLI logger from LP_LOG_MODE or the global log_mode.
func newLogger() *logger.Logger {
	return logger.FromEnv(config.GetLogMode())
}

// newProvider builds the embedding provider from workspace and global config.
func newProvider(cfg *config.Config) *embedding.OllamaProvider {
	url := cfg.OllamaURL
	if url == "" {
		url = config.GetOllamaURL()
	}
	if url == "" {
		url = os.Getenv("OLLAMA_HOST")
	}
	return embedding.NewOllamaProvider(
		embedding.WithBaseURL(url),
		embedding.WithModel(cfg.EmbeddingModel),
		embedding.WithDimensions(cfg.EmbeddingDims),
	)
}

// mustValidateOllama checks that Ollama is running and the embedding model is available.
func mustValidateOllama(ctx context.Context, provider *embedding.OllamaProvider) {
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitOllamaUnavailable, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
	}

	hasModel, err := provider.HasModel(ctx)
	if err != nil {
		exitWithError(ExitError, "checking model availability: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelNotFound, "embedding model %q not found\n\nRun 'ollama pull %s' to download it.", provider.ModelName(), provider.ModelName())
	}
}

// app bundles what the service-backed commands share.
type app struct {
	root     string
	cfg      *config.Config
	log      *logger.Logger
	provider *embedding.OllamaProvider
	index    *semantic.LabelIndex
	learners *storage.LearnerDB
	metrics  *metrics.Collector
	svc      *service.Service
}

// Close releases the learner database and flushes the logger.
func (a *app) Close() {
	a.learners.Close()
	a.log.Sync()
}

// mustNewApp wires the service for the workspace at root. When loadGraph is
// true an existing snapshot becomes the current graph.
func mustNewApp(root string, loadGraph bool, progress builder.ProgressReporter) *app {
	cfg := mustLoadConfig(root)
	log := newLogger()
	provider := newProvider(cfg)

	idx, err := semantic.LoadOrNew(root, provider.ModelName(), provider.Dimensions())
	if err != nil {
		log.Warn("label index unreadable, starting fresh", "error", err)
		idx = semantic.NewLabelIndex(provider.ModelName(), provider.Dimensions())
	}

	fetcher := acquire.NewHTTPFetcher(
		acquire.WithTimeout(time.Duration(cfg.FetchTimeout)),
		acquire.WithRateLimit(cfg.FetchRateLimit),
		acquire.WithMaxPDFPages(cfg.MaxPDFPages),
		acquire.WithLogger(log),
	)
	opts := []builder.Option{
		builder.WithThreshold(cfg.Threshold),
		builder.WithConcurrency(cfg.FetchConcurrency),
		builder.WithLogger(log),
	}
	if progress != nil {
		opts = append(opts, builder.WithProgress(progress))
	}
	var remote acquire.Fetcher = fetcher
	if !refreshSources {
		remote = acquire.NewCache(config.DocumentCachePath(root), fetcher, log)
	}
	b := builder.New(
		acquire.Default(remote, cfg.MaxPDFPages),
		&extract.PhraseExtractor{},
		semantic.NewEmbeddingScorer(provider, semantic.WithIndex(idx)),
		opts...,
	)

	handle := graph.NewHandle()
	if loadGraph {
		g, err := storage.LoadGraph(config.GraphPath(root))
		switch {
		case err == nil:
			handle.Swap(g)
		case errors.Is(err, storage.ErrNoSnapshot):
		default:
			exitWithError(ExitDataError, "loading graph: %v", err)
		}
	}

	learners := mustOpenLearnerDB(root)
	m := metrics.NewCollector()
	svc := service.New(handle, learners, b,
		service.WithDefaultWeights(cfg.Weights),
		service.WithEstimates(mustLoadEstimates(root)),
		service.WithMetrics(m),
		service.WithLogger(log),
		service.WithSnapshotPath(config.GraphPath(root)),
		service.WithAfterBuild(func(context.Context) error {
			return idx.Save(root)
		}),
	)

	return &app{
		root:     root,
		cfg:      cfg,
		log:      log,
		provider: provider,
		index:    idx,
		learners: learners,
		metrics:  m,
		svc:      svc,
	}
}
