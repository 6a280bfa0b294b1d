package semantic

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Errors returned by label index operations.
var (
	ErrIndexNotFound      = errors.New("label index not found")
	ErrUnsupportedVersion = errors.New("unsupported index version")
	ErrModelMismatch      = errors.New("label index built with a different model")
)

const (
	// IndexFileName is the name of the label embedding cache file.
	IndexFileName = "labels.gob"

	// CurrentIndexVersion is the format version for compatibility checking.
	CurrentIndexVersion = 1
)

// LabelIndex caches label embeddings across builds so a rebuild only embeds
// labels it has not seen.
type LabelIndex struct {
	Version    int                  `json:"version"`
	ModelName  string               `json:"model_name"`
	Dimensions int                  `json:"dimensions"`
	CreatedAt  time.Time            `json:"created_at"`
	Embeddings map[string][]float32 `json:"-"`

	mu sync.RWMutex
}

// IndexPath returns the path to the label index under a workspace root.
func IndexPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".learnpath", "cache", IndexFileName)
}

// NewLabelIndex creates an empty index.
func NewLabelIndex(modelName string, dimensions int) *LabelIndex {
	return &LabelIndex{
		Version:    CurrentIndexVersion,
		ModelName:  modelName,
		Dimensions: dimensions,
		CreatedAt:  time.Now(),
		Embeddings: make(map[string][]float32),
	}
}

// Add stores the embedding for label.
func (idx *LabelIndex) Add(label string, vector []float32) error {
	if idx.Dimensions > 0 && len(vector) != idx.Dimensions {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vector), idx.Dimensions)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.Embeddings[label] = vector
	return nil
}

// Get returns the cached embedding for label.
func (idx *LabelIndex) Get(label string) ([]float32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	v, ok := idx.Embeddings[label]
	return v, ok
}

// Len returns the number of cached labels.
func (idx *LabelIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.Embeddings)
}

// Save persists the index with gob encoding, writing a temp file first and
// renaming it into place.
func (idx *LabelIndex) Save(repoRoot string) error {
	indexPath := IndexPath(repoRoot)

	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(indexPath), IndexFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := f.Name()

	idx.mu.RLock()
	err = gob.NewEncoder(f).Encode(idx)
	idx.mu.RUnlock()
	if err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tempPath, indexPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load reads the label index from disk.
func Load(repoRoot string) (*LabelIndex, error) {
	f, err := os.Open(IndexPath(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var idx LabelIndex
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	if idx.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (delete %s to rebuild)",
			ErrUnsupportedVersion, idx.Version, CurrentIndexVersion, IndexFileName)
	}
	if idx.Embeddings == nil {
		idx.Embeddings = make(map[string][]float32)
	}
	return &idx, nil
}

// LoadOrNew loads the index for modelName, starting fresh when none exists or
// the cached one was built with another model.
func LoadOrNew(repoRoot, modelName string, dimensions int) (*LabelIndex, error) {
	idx, err := Load(repoRoot)
	switch {
	case errors.Is(err, ErrIndexNotFound), errors.Is(err, ErrUnsupportedVersion):
		return NewLabelIndex(modelName, dimensions), nil
	case err != nil:
		return nil, err
	case idx.ModelName != modelName || idx.Dimensions != dimensions:
		return NewLabelIndex(modelName, dimensions), nil
	}
	return idx, nil
}
