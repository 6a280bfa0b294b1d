package semantic

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestNewLabelIndex(t *testing.T) {
	idx := NewLabelIndex("test-model", 384)

	if idx.Version != CurrentIndexVersion {
		t.Errorf("expected version %d, got %d", CurrentIndexVersion, idx.Version)
	}
	if idx.ModelName != "test-model" {
		t.Errorf("expected model name 'test-model', got '%s'", idx.ModelName)
	}
	if idx.Embeddings == nil {
		t.Error("Embeddings map should be initialized")
	}
	if idx.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestLabelIndex_Add(t *testing.T) {
	idx := NewLabelIndex("test-model", 3)

	if err := idx.Add("recursion", []float32{1, 0, 0}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, ok := idx.Get("recursion"); !ok {
		t.Error("label should be in index after adding")
	}
	if _, ok := idx.Get("Recursion"); ok {
		t.Error("lookup must be exact-string")
	}
	if err := idx.Add("loops", []float32{1, 0}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if idx.Len() != 1 {
		t.Errorf("expected 1 label, got %d", idx.Len())
	}
}

func TestLabelIndex_SaveLoad(t *testing.T) {
	root := t.TempDir()

	idx := NewLabelIndex("all-minilm:l6-v2", 3)
	idx.Add("linked list", []float32{0.1, 0.2, 0.3})
	idx.Add("binary tree", []float32{0.4, 0.5, 0.6})

	if err := idx.Save(root); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".learnpath", "cache", IndexFileName)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}
	if _, err := os.Stat(IndexPath(root) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after save")
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ModelName != "all-minilm:l6-v2" || loaded.Dimensions != 3 {
		t.Errorf("metadata mismatch: %s/%d", loaded.ModelName, loaded.Dimensions)
	}
	v, ok := loaded.Get("binary tree")
	if !ok || v[2] != 0.6 {
		t.Errorf("Get(binary tree) = %v, %v", v, ok)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	root := t.TempDir()
	path := IndexPath(root)
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, []byte("not gob"), 0644)

	if _, err := Load(root); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoadOrNew(t *testing.T) {
	root := t.TempDir()

	fresh, err := LoadOrNew(root, "m1", 2)
	if err != nil {
		t.Fatalf("LoadOrNew on empty root: %v", err)
	}
	fresh.Add("graph", []float32{1, 1})
	if err := fresh.Save(root); err != nil {
		t.Fatal(err)
	}

	same, err := LoadOrNew(root, "m1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if same.Len() != 1 {
		t.Errorf("expected cached label, got %d", same.Len())
	}

	other, err := LoadOrNew(root, "m2", 2)
	if err != nil {
		t.Fatal(err)
	}
	if other.Len() != 0 || other.ModelName != "m2" {
		t.Errorf("model change should start a fresh index, got %d labels for %s", other.Len(), other.ModelName)
	}
}

func TestLabelIndex_ConcurrentSaves(t *testing.T) {
	root := t.TempDir()
	idx := NewLabelIndex("all-minilm:l6-v2", 3)
	idx.Add("recursion", []float32{1, 0, 0})

	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = idx.Save(root)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("save %d: %v", i, err)
		}
	}
	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := loaded.Get("recursion"); !ok {
		t.Error("saved index lost its label")
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(IndexPath(root)), "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
