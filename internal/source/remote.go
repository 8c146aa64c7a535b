package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/garyellow/program-catalog-go/internal/config"
	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/program"
)

// maxPayloadBytes caps a remote response body.
const maxPayloadBytes = 32 << 20

// RemoteClient reads programs from the remote catalog API.
type RemoteClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	maxRetries int
	metrics    *metrics.Metrics
}

// RemoteOption configures a RemoteClient.
type RemoteOption func(*RemoteClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteClient) { r.httpClient = c }
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) RemoteOption {
	return func(r *RemoteClient) { r.maxRetries = n }
}

// WithRemoteMetrics records request outcomes.
func WithRemoteMetrics(m *metrics.Metrics) RemoteOption {
	return func(r *RemoteClient) { r.metrics = m }
}

// NewRemoteClient creates a client for baseURL. Each call is bounded by timeout,
// retries included.
func NewRemoteClient(baseURL string, timeout time.Duration, opts ...RemoteOption) *RemoteClient {
	if timeout <= 0 {
		timeout = config.RemoteFetch
	}
	c := &RemoteClient{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches GET {base}/programs.
func (c *RemoteClient) List(ctx context.Context) ([]program.Program, error) {
	start := time.Now()
	body, err := c.fetch(ctx, c.baseURL+"/programs")
	if err != nil {
		c.metrics.RecordSourceRequest(string(OriginRemote), "error", time.Since(start).Seconds())
		return nil, err
	}

	programs, err := program.DecodeList(body)
	if err != nil {
		c.metrics.RecordSourceRequest(string(OriginRemote), "error", time.Since(start).Seconds())
		return nil, domerrors.NewSourceError(string(OriginRemote), c.baseURL+"/programs", 0, err)
	}
	c.metrics.RecordSourceRequest(string(OriginRemote), "success", time.Since(start).Seconds())
	return programs, nil
}

// Get fetches GET {base}/programs/{id}.
func (c *RemoteClient) Get(ctx context.Context, id string) (program.Program, error) {
	start := time.Now()
	target := c.baseURL + "/programs/" + url.PathEscape(id)
	body, err := c.fetch(ctx, target)
	if err != nil {
		status := "error"
		if domerrors.IsNotFound(err) {
			status = "not_found"
		}
		c.metrics.RecordSourceRequest(string(OriginRemote), status, time.Since(start).Seconds())
		return program.Program{}, err
	}

	p, err := program.Decode(body)
	if err != nil {
		c.metrics.RecordSourceRequest(string(OriginRemote), "error", time.Since(start).Seconds())
		return program.Program{}, domerrors.NewSourceError(string(OriginRemote), target, 0, err)
	}
	c.metrics.RecordSourceRequest(string(OriginRemote), "success", time.Since(start).Seconds())
	return p, nil
}

// fetch performs a GET with retries on transient failures and returns the body.
func (c *RemoteClient) fetch(ctx context.Context, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		body   []byte
		status int
	)
	err := RetryWithBackoff(ctx, c.maxRetries, config.RemoteRetryInitial, func() error {
		status = 0
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		status = resp.StatusCode

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
		case resp.StatusCode == http.StatusNotFound:
			return Permanent(domerrors.ErrNotFound)
		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			return fmt.Errorf("%w: status %d", domerrors.ErrSourceUnavailable, resp.StatusCode)
		default:
			return Permanent(fmt.Errorf("%w: unexpected status %d", domerrors.ErrSourceUnavailable, resp.StatusCode))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		body = data
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", domerrors.ErrTimeout, err)
		}
		return nil, domerrors.NewSourceError(string(OriginRemote), target, status, err)
	}
	return body, nil
}
