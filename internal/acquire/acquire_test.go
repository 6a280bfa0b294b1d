package acquire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lessonHTML = `<html><head><title>Lists</title>
<style>p { color: red; }</style>
<script>var p = "<p>not a paragraph</p>";</script></head>
<body>
<h1>Python lists</h1>
<p>A list   stores an ordered
collection of items.</p>
<div><p>Loops iterate over <b>list elements</b>.</p></div>
<p>   </p>
</body></html>`

func TestParagraphText(t *testing.T) {
	text, err := ParagraphText(strings.NewReader(lessonHTML))
	require.NoError(t, err)

	assert.Equal(t, "A list stores an ordered collection of items.\nLoops iterate over list elements.", text)
	assert.NotContains(t, text, "Python lists", "headings are not paragraphs")
}

func TestHTTPFetcher_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(lessonHTML))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithRateLimit(0))
	doc, err := f.Fetch(context.Background(), srv.URL+"/lists")
	require.NoError(t, err)

	assert.Equal(t, ContentHTML, doc.ContentType)
	assert.Contains(t, doc.Text, "ordered collection")
}

func TestHTTPFetcher_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("recursion and base cases"))
	}))
	defer srv.Close()

	doc, err := NewHTTPFetcher(WithRateLimit(0)).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "recursion and base cases", doc.Text)
}

func TestHTTPFetcher_NoParagraphs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Only a heading</h1></body></html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(WithRateLimit(0)).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(WithRateLimit(0)).Fetch(context.Background(), srv.URL+"/missing")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestHTTPFetcher_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(
		WithRateLimit(0),
		WithBreaker(BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      2,
		}),
	)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		var se *StatusError
		require.True(t, errors.As(err, &se), "attempt %d: %v", i, err)
	}

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not contact the host")

	host := strings.TrimPrefix(srv.URL, "http://")
	assert.Equal(t, gobreaker.StateOpen, f.BreakerState(host))
}

func TestHTTPFetcher_NilLoggerOnBreakerChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(
		WithRateLimit(0),
		WithLogger(nil),
		WithBreaker(BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      1,
		}),
	)

	assert.NotPanics(t, func() {
		for i := 0; i < 3; i++ {
			f.Fetch(context.Background(), srv.URL)
		}
	})
	host := strings.TrimPrefix(srv.URL, "http://")
	assert.Equal(t, gobreaker.StateOpen, f.BreakerState(host))
}

func TestHTTPFetcher_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithRateLimit(0), WithBreaker(BreakerConfig{
		MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 1,
	}))
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithRateLimit(0), WithTimeout(50*time.Millisecond))
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestHTTPFetcher_RejectsOtherSchemes(t *testing.T) {
	_, err := NewHTTPFetcher().Fetch(context.Background(), "ftp://example.com/x")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "lesson.html")
	txtPath := filepath.Join(dir, "notes.txt")
	emptyPath := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(htmlPath, []byte(lessonHTML), 0644))
	require.NoError(t, os.WriteFile(txtPath, []byte("binary search trees"), 0644))
	require.NoError(t, os.WriteFile(emptyPath, []byte("  \n"), 0644))

	f := &FileFetcher{}

	doc, err := f.Fetch(context.Background(), htmlPath)
	require.NoError(t, err)
	assert.Equal(t, ContentHTML, doc.ContentType)
	assert.Contains(t, doc.Text, "Loops iterate")

	doc, err = f.Fetch(context.Background(), "file://"+txtPath)
	require.NoError(t, err)
	assert.Equal(t, "binary search trees", doc.Text)

	_, err = f.Fetch(context.Background(), emptyPath)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = f.Fetch(context.Background(), filepath.Join(dir, "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMux(t *testing.T) {
	var got []string
	record := func(name string) Fetcher {
		return FetcherFunc(func(ctx context.Context, uri string) (Document, error) {
			got = append(got, name)
			return Document{URI: uri, Text: name}, nil
		})
	}

	m := NewMux().Handle(record("web"), "http", "HTTPS").Handle(record("file"), "file")

	for _, uri := range []string{"http://a.example", "https://b.example", "/tmp/x.txt", "file:///tmp/y.txt", "C:\\notes.txt"} {
		_, err := m.Fetch(context.Background(), uri)
		require.NoError(t, err, uri)
	}
	assert.Equal(t, []string{"web", "web", "file", "file", "file"}, got)

	_, err := m.Fetch(context.Background(), "gopher://old.example")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}
