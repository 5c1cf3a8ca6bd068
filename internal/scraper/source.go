package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PageSource returns the raw HTML of the results page
type PageSource interface {
	FetchPage(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to PageSource
type SourceFunc func(ctx context.Context) (string, error)

// FetchPage calls f(ctx)
func (f SourceFunc) FetchPage(ctx context.Context) (string, error) {
	return f(ctx)
}

// ProxySource reads the page through this service's /api/proxy endpoint
type ProxySource struct {
	client  *http.Client
	url     string
	timeout time.Duration
	maxBody int64
}

// NewProxySource creates a source for the proxy at proxyURL.
// timeout should leave room for the proxy's own upstream timeout.
func NewProxySource(proxyURL string, timeout time.Duration) *ProxySource {
	return &ProxySource{
		client:  &http.Client{},
		url:     proxyURL,
		timeout: timeout,
		maxBody: 5 << 20,
	}
}

// FetchPage implements PageSource
func (p *ProxySource) FetchPage(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("creating proxy request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", transportError(p.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		return "", transportError(p.url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{
			URL:        p.url,
			StatusCode: resp.StatusCode,
			Timeout:    resp.StatusCode == http.StatusRequestTimeout,
			Err:        fmt.Errorf("proxy: %s", proxyErrorMessage(body, resp.Status)),
		}
	}

	return string(body), nil
}

// proxyErrorMessage extracts the {"error": "..."} payload, if any
func proxyErrorMessage(body []byte, fallback string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fallback
}
