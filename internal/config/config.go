// Package config handles workspace and global configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/learnpath/internal/cost"
)

// Config represents workspace configuration stored in .learnpath/config.json.
type Config struct {
	Weights          cost.Weights `json:"weights"`           // Default search weights
	Threshold        float64      `json:"threshold"`         // Relatedness a prerequisite must exceed
	FetchConcurrency int          `json:"fetch_concurrency"` // Sources acquired at once
	FetchRateLimit   float64      `json:"fetch_rate_limit"`  // HTTP requests per second, 0 for unlimited
	FetchTimeout     Duration     `json:"fetch_timeout"`     // Per-request HTTP timeout
	MaxPDFPages      int          `json:"max_pdf_pages"`     // 0 reads every page
	OllamaURL        string       `json:"ollama_url,omitempty"`
	EmbeddingModel   string       `json:"embedding_model,omitempty"`
	EmbeddingDims    int          `json:"embedding_dims,omitempty"`
}

const (
	WorkspaceDir  = ".learnpath"
	ConfigFile    = "config.json"
	GraphFile     = "graph.jsonl"
	EstimatesFile = "estimates.yml"
	LearnerDBFile = "learners.db"
	CacheDir      = "cache"
)

// Defaults for a fresh workspace.
const (
	DefaultThreshold        = 0.7
	DefaultFetchConcurrency = 4
	DefaultFetchRateLimit   = 5.0
	DefaultFetchTimeout     = 30 * time.Second
	DefaultMaxPDFPages      = 50
)

// ErrNotWorkspace is returned when no workspace is found.
var ErrNotWorkspace = errors.New("not in a learnpath workspace (no .learnpath directory found)")

// Default returns the configuration written by `lp init`.
func Default() *Config {
	return &Config{
		Weights:          cost.DefaultWeights(),
		Threshold:        DefaultThreshold,
		FetchConcurrency: DefaultFetchConcurrency,
		FetchRateLimit:   DefaultFetchRateLimit,
		FetchTimeout:     Duration(DefaultFetchTimeout),
		MaxPDFPages:      DefaultMaxPDFPages,
	}
}

// WorkspacePath returns the path to the .learnpath directory from a root path.
func WorkspacePath(root string) string {
	return filepath.Join(root, WorkspaceDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WorkspaceDir, ConfigFile)
}

// GraphPath returns the path to the graph snapshot from a root path.
func GraphPath(root string) string {
	return filepath.Join(root, WorkspaceDir, GraphFile)
}

// EstimatesPath returns the path to estimates.yml from a root path.
func EstimatesPath(root string) string {
	return filepath.Join(root, WorkspaceDir, EstimatesFile)
}

// LearnerDBPath returns the path to the learner database from a root path.
func LearnerDBPath(root string) string {
	return filepath.Join(root, WorkspaceDir, LearnerDBFile)
}

// DocumentCachePath returns the directory holding cached fetched documents.
func DocumentCachePath(root string) string {
	return filepath.Join(CachePath(root), "documents")
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir)
}

// IsWorkspace checks if the given path contains a learnpath workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(WorkspacePath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a workspace root.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotWorkspace
		}
		abs = parent
	}
}

// Load reads configuration from the workspace at root. Fields absent from
// the file keep their defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to the workspace at root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if !c.Weights.NonNegative() {
		return fmt.Errorf("invalid weights %+v: every weight must be >= 0", c.Weights)
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("invalid threshold %v: must be in [0, 1)", c.Threshold)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("invalid fetch_concurrency %d: must be >= 1", c.FetchConcurrency)
	}
	if c.FetchRateLimit < 0 {
		return fmt.Errorf("invalid fetch_rate_limit %v: must be >= 0", c.FetchRateLimit)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("invalid fetch_timeout %v: must be >= 0", c.FetchTimeout)
	}
	return nil
}

// Init creates the workspace directory and a default config at root.
func Init(root string) (*Config, error) {
	if IsWorkspace(root) {
		return nil, fmt.Errorf("workspace already exists at %s", WorkspacePath(root))
	}
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	cfg := Default()
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Duration is a time.Duration that encodes as a string such as "30s".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
