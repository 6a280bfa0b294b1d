package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/matsen/learnpath/internal/logger"
	"github.com/matsen/learnpath/internal/pdf"
)

const (
	// DefaultTimeout bounds one HTTP fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default number of requests per second across
	// all hosts.
	DefaultRateLimit = 5.0

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes = 20 << 20

	userAgent = "learnpath/1.0 (+https://github.com/matsen/learnpath)"
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URI        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.URI, e.StatusCode)
}

// BreakerConfig controls the per-host circuit breakers.
type BreakerConfig struct {
	MaxRequests      uint32        // Requests allowed while half-open
	Interval         time.Duration // Closed-state window after which counts reset
	Timeout          time.Duration // Open-state duration before half-open
	FailureThreshold float64       // Failure ratio that trips the breaker
	MinRequests      uint32        // Requests needed before the ratio is evaluated
}

// DefaultBreakerConfig returns conservative breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// HTTPFetcher fetches web pages and PDFs over HTTP. Requests are throttled by
// a shared rate limiter and each host is guarded by its own circuit breaker.
type HTTPFetcher struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	breakerCfg  BreakerConfig
	maxPDFPages int
	log         *logger.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.httpClient.Timeout = d
	}
}

// WithRateLimit sets requests per second; <= 0 disables throttling.
func WithRateLimit(perSecond float64) HTTPOption {
	return func(f *HTTPFetcher) {
		if perSecond <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithBreaker sets the per-host circuit breaker configuration.
func WithBreaker(cfg BreakerConfig) HTTPOption {
	return func(f *HTTPFetcher) {
		f.breakerCfg = cfg
	}
}

// WithMaxPDFPages caps pages read from fetched PDFs.
func WithMaxPDFPages(n int) HTTPOption {
	return func(f *HTTPFetcher) {
		f.maxPDFPages = n
	}
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(l *logger.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		f.log = logger.OrNop(l)
	}
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		breakerCfg: DefaultBreakerConfig(),
		log:        logger.Nop(),
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves uri and returns its paragraph text (HTML) or page text (PDF).
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) (Document, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Document{}, fmt.Errorf("parsing %s: %w", uri, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, uri)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return Document{}, fmt.Errorf("rate limiter: %w", err)
	}

	out, err := f.breaker(u.Host).Execute(func() (interface{}, error) {
		return f.get(ctx, uri)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Document{}, fmt.Errorf("%w: %s", ErrCircuitOpen, u.Host)
		}
		return Document{}, err
	}
	resp := out.(*response)

	if resp.contentType == ContentPDF || pdf.IsPDF(resp.body) {
		return decodePDF(uri, resp.body, f.maxPDFPages)
	}
	if resp.contentType == ContentText {
		return finish(Document{URI: uri, ContentType: ContentText, Text: string(resp.body)})
	}
	return decodeHTML(uri, resp.body)
}

type response struct {
	contentType string
	body        []byte
}

// get performs the request. Transport errors and 5xx responses count against
// the host's breaker; 4xx responses do not.
func (f *HTTPFetcher) get(ctx context.Context, uri string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, application/pdf;q=0.9, text/plain;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URI: uri, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", uri, err)
	}

	return &response{contentType: mediaType(resp.Header.Get("Content-Type")), body: body}, nil
}

func (f *HTTPFetcher) breaker(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[host]; ok {
		return cb
	}

	cfg := f.breakerCfg
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			f.log.Warn("circuit breaker state changed", "host", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500
			}
			return err == nil
		},
	})
	f.breakers[host] = cb
	return cb
}

// BreakerState reports the breaker state for host, or closed if the host has
// not been contacted.
func (f *HTTPFetcher) BreakerState(host string) gobreaker.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.breakers[host]; ok {
		return cb.State()
	}
	return gobreaker.StateClosed
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	}
	return mt
}
