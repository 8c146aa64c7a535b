package source

import (
	"context"
	"net/http"
	"time"
)

// Probe checks once whether the remote catalog API answers.
// An empty baseURL means no remote is configured and yields StatusError.
// The result is returned to the caller; nothing global is written.
func Probe(ctx context.Context, client *http.Client, baseURL string, timeout time.Duration) ConnectionStatus {
	if baseURL == "" {
		return StatusError
	}
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := probeOnce(ctx, client, http.MethodHead, baseURL+"/programs")
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = probeOnce(ctx, client, http.MethodGet, baseURL+"/programs")
	}
	if err != nil || status < 200 || status >= 300 {
		return StatusError
	}
	return StatusSuccess
}

func probeOnce(ctx context.Context, client *http.Client, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
