package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/fmosquera77/Numeros-Quiniela/internal/config"
)

// BrowserHeaders returns the header set sent upstream so the request looks
// like a desktop browser visit
func BrowserHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Referer":                   "https://www.google.com/",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Cache-Control":             "max-age=0",
	}
}

// Fetcher performs the direct upstream GET
type Fetcher struct {
	client  *http.Client
	url     string
	headers map[string]string
	timeout time.Duration
	maxBody int64
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewFetcher creates a Fetcher for the configured upstream page
func NewFetcher(cfg config.UpstreamConfig, logger *zap.Logger) *Fetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 5 << 20
	}

	return &Fetcher{
		client:  &http.Client{Transport: transport},
		url:     cfg.URL,
		headers: BrowserHeaders(cfg.UserAgent),
		timeout: cfg.Timeout,
		maxBody: maxBody,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// URL returns the upstream page address
func (f *Fetcher) URL() string {
	return f.url
}

// WithTimeout returns a copy of f with a different time budget
func (f *Fetcher) WithTimeout(d time.Duration) *Fetcher {
	cp := *f
	cp.timeout = d
	return &cp
}

// FetchPage implements PageSource. It never retries.
func (f *Fetcher) FetchPage(ctx context.Context) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	// Wait only fails when the budget cannot cover the delay
	if err := f.limiter.Wait(ctx); err != nil {
		return "", &FetchError{URL: f.url, Timeout: true, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", transportError(f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{
			URL:        f.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	// Decode legacy charsets (the page is Spanish, often served as ISO-8859-1)
	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBody), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: f.url, Err: fmt.Errorf("decoding body: %w", err)}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", transportError(f.url, err)
	}

	f.logger.Debug("Upstream page fetched",
		zap.String("url", f.url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)

	return string(body), nil
}
