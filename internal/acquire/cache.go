package acquire

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/matsen/learnpath/internal/logger"
)

// Cache stores acquired documents on disk so a rebuild over the same sources
// does not fetch them again. Only successful fetches are stored.
type Cache struct {
	dir  string
	next Fetcher
	log  *logger.Logger
}

// NewCache wraps next with a document cache rooted at dir.
func NewCache(dir string, next Fetcher, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{dir: dir, next: next, log: log}
}

// Fetch returns the cached document for uri, fetching and storing it on a miss.
// An unreadable cache entry is treated as a miss.
func (c *Cache) Fetch(ctx context.Context, uri string) (Document, error) {
	path := c.entryPath(uri)
	if data, err := os.ReadFile(path); err == nil {
		var doc Document
		if err := json.Unmarshal(data, &doc); err == nil && doc.URI == uri {
			c.log.Debug("document cache hit", "uri", uri)
			return doc, nil
		}
	}

	doc, err := c.next.Fetch(ctx, uri)
	if err != nil {
		return Document{}, err
	}
	if err := c.store(path, doc); err != nil {
		c.log.Warn("document cache write failed", "uri", uri, "error", err)
	}
	return doc, nil
}

// Key returns the cache key of uri.
func Key(uri string) string {
	sum := blake2b.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) entryPath(uri string) string {
	return filepath.Join(c.dir, Key(uri)+".json")
}

func (c *Cache) store(path string, doc Document) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(c.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
