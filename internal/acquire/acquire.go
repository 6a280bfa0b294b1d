// Package acquire retrieves the raw text of learning material from a source
// identifier such as a URL or a local file path.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/learnpath/internal/pdf"
)

// Errors returned by fetchers.
var (
	// ErrUnsupportedSource indicates no fetcher handles the source's scheme.
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrEmptyDocument indicates the source yielded no usable text.
	ErrEmptyDocument = errors.New("source has no text content")

	// ErrCircuitOpen indicates the source's host has failed repeatedly and is
	// temporarily not contacted.
	ErrCircuitOpen = errors.New("host circuit open")
)

// Content types recorded on a Document.
const (
	ContentHTML = "text/html"
	ContentPDF  = "application/pdf"
	ContentText = "text/plain"
)

// Document is the acquired text of one source.
type Document struct {
	URI         string `json:"uri"`
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
}

// Fetcher retrieves the text of a source. Implementations must be safe for
// concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (Document, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, uri string) (Document, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, uri string) (Document, error) {
	return f(ctx, uri)
}

// Mux routes a source to a fetcher by URI scheme. A source without a scheme
// is routed under "file".
type Mux struct {
	routes map[string]Fetcher
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{routes: make(map[string]Fetcher)}
}

// Handle registers f for each scheme.
func (m *Mux) Handle(f Fetcher, schemes ...string) *Mux {
	for _, s := range schemes {
		m.routes[strings.ToLower(s)] = f
	}
	return m
}

// Fetch dispatches uri to the fetcher registered for its scheme.
func (m *Mux) Fetch(ctx context.Context, uri string) (Document, error) {
	scheme := schemeOf(uri)
	f, ok := m.routes[scheme]
	if !ok {
		return Document{}, fmt.Errorf("%w: scheme %q in %s", ErrUnsupportedSource, scheme, uri)
	}
	return f.Fetch(ctx, uri)
}

// Default returns a Mux serving http/https through remote and local paths
// through a FileFetcher reading at most maxPDFPages of a PDF.
func Default(remote Fetcher, maxPDFPages int) *Mux {
	return NewMux().
		Handle(remote, "http", "https").
		Handle(&FileFetcher{MaxPDFPages: maxPDFPages}, "file")
}

func schemeOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return "file"
	}
	// A Windows drive letter parses as a one-letter scheme.
	if len(u.Scheme) == 1 {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// FileFetcher reads local HTML, PDF, or plain-text files.
type FileFetcher struct {
	// MaxPDFPages caps pages read from a PDF; <= 0 reads all pages.
	MaxPDFPages int
}

// Fetch reads the file named by uri, which may be a bare path or a file:// URL.
func (f *FileFetcher) Fetch(ctx context.Context, uri string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	path := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		path = u.Path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf" || pdf.IsPDF(data):
		return decodePDF(uri, data, f.MaxPDFPages)
	case ext == ".html" || ext == ".htm":
		return decodeHTML(uri, data)
	default:
		return finish(Document{URI: uri, ContentType: ContentText, Text: string(data)})
	}
}

func decodePDF(uri string, data []byte, maxPages int) (Document, error) {
	text, err := pdf.ExtractBytes(data, maxPages)
	if err != nil {
		if errors.Is(err, pdf.ErrNoText) {
			return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, uri)
		}
		return Document{}, fmt.Errorf("extracting pdf %s: %w", uri, err)
	}
	return finish(Document{URI: uri, ContentType: ContentPDF, Text: text})
}

func decodeHTML(uri string, data []byte) (Document, error) {
	text, err := ParagraphText(strings.NewReader(string(data)))
	if err != nil {
		return Document{}, fmt.Errorf("parsing html %s: %w", uri, err)
	}
	return finish(Document{URI: uri, ContentType: ContentHTML, Text: text})
}

func finish(d Document) (Document, error) {
	if strings.TrimSpace(d.Text) == "" {
		return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, d.URI)
	}
	return d, nil
}
