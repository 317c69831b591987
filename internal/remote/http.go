package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roach88/tasksync/internal/task"
)

// DefaultEndpoint is the remote todo list used when none is configured.
const DefaultEndpoint = "https://dummyjson.com/todos"

// DefaultTimeout bounds a fetch when the caller's context has no deadline.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps the response size read from the remote.
const maxBodyBytes = 8 << 20

// HTTPFetcher fetches the todo list with a single GET request.
type HTTPFetcher struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithTimeout bounds each fetch. Zero disables the fetcher's own timeout and
// relies on the caller's context.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// NewHTTPFetcher creates a fetcher for endpoint (DefaultEndpoint if empty).
func NewHTTPFetcher(endpoint string, opts ...HTTPOption) *HTTPFetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	f := &HTTPFetcher{
		endpoint: endpoint,
		client:   http.DefaultClient,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Endpoint returns the URL being fetched.
func (f *HTTPFetcher) Endpoint() string {
	return f.endpoint
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]task.RemoteTask, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Source: f.endpoint, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Source: f.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &FetchError{Kind: KindStatus, Source: f.endpoint, StatusCode: resp.StatusCode}
	}

	var doc document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&doc); err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{Kind: KindTransport, Source: f.endpoint, Err: ctx.Err()}
		}
		return nil, &FetchError{Kind: KindDecode, Source: f.endpoint, Err: err}
	}
	if err := doc.validate(); err != nil {
		return nil, &FetchError{Kind: KindDecode, Source: f.endpoint, Err: err}
	}

	return doc.Todos, nil
}
