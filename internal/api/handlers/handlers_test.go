package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fmosquera77/Numeros-Quiniela/internal/cache"
	"github.com/fmosquera77/Numeros-Quiniela/internal/config"
	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
	"github.com/fmosquera77/Numeros-Quiniela/internal/scraper"
)

type stubLottery struct {
	set domain.ResultSet
}

func (s stubLottery) Collect(context.Context) domain.ResultSet {
	return s.set
}

type stubPages struct {
	page   string
	cached bool
	err    error
}

func (s stubPages) Fetch(context.Context) (string, bool, error) {
	return s.page, s.cached, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func decodeResults(t *testing.T, resp *http.Response) []domain.Result {
	t.Helper()
	var results []domain.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	return results
}

func decodeMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGetResultsLive(t *testing.T) {
	live := []domain.Result{domain.MustResult("Ciudad", "3331"), domain.MustResult("Provincia", "6317")}
	app := fiber.New()
	app.Get("/api/lottery", NewLotteryHandler(stubLottery{set: domain.ResultSet{
		Results:  live,
		Source:   domain.DataSourceLive,
		Strategy: "strict",
	}}).GetResults)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/lottery", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "live", resp.Header.Get(HeaderDataSource))
	assert.Equal(t, "strict", resp.Header.Get(HeaderDataStrategy))
	assert.Equal(t, live, decodeResults(t, resp))
}

func TestGetResultsMockIsStill200(t *testing.T) {
	app := fiber.New()
	app.Get("/api/lottery", NewLotteryHandler(stubLottery{set: domain.ResultSet{
		Results:  scraper.MockResults(),
		Source:   domain.DataSourceMock,
		Strategy: "mock",
	}}).GetResults)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/lottery", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mock", resp.Header.Get(HeaderDataSource))
	assert.Len(t, decodeResults(t, resp), 12)
}

func TestGetResultsBodyIsArray(t *testing.T) {
	app := fiber.New()
	app.Get("/api/lottery", NewLotteryHandler(stubLottery{set: domain.ResultSet{Source: domain.DataSourceMock}}).GetResults)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/lottery", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestGetResultsWithChain(t *testing.T) {
	failing := scraper.NewStrictScraper(scraper.SourceFunc(func(context.Context) (string, error) {
		return "", errors.New("unreachable")
	}), zaptest.NewLogger(t))
	chain := scraper.NewChain(zaptest.NewLogger(t), []scraper.Scraper{failing}, nil)

	app := fiber.New()
	app.Get("/api/lottery", NewLotteryHandler(chain).GetResults)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/lottery", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mock", resp.Header.Get(HeaderDataSource))

	results := decodeResults(t, resp)
	require.Len(t, results, 12)
	assert.Equal(t, domain.Result{City: "Ciudad", Number: "3331", LastTwoDigits: "31"}, results[0])
}

func TestProxyHandler(t *testing.T) {
	tests := []struct {
		name        string
		pages       stubPages
		wantStatus  int
		wantBody    string
		wantError   string
		wantXCache  string
		wantControl string
	}{
		{
			name:        "fresh page",
			pages:       stubPages{page: "<html>3331</html>"},
			wantStatus:  http.StatusOK,
			wantBody:    "<html>3331</html>",
			wantXCache:  "MISS",
			wantControl: "public, max-age=60",
		},
		{
			name:        "cached page",
			pages:       stubPages{page: "<html>3331</html>", cached: true},
			wantStatus:  http.StatusOK,
			wantBody:    "<html>3331</html>",
			wantXCache:  "HIT",
			wantControl: "public, max-age=60",
		},
		{
			name:       "timeout",
			pages:      stubPages{err: &scraper.FetchError{URL: "u", Timeout: true}},
			wantStatus: http.StatusRequestTimeout,
			wantError:  ProxyTimeoutMessage,
		},
		{
			name:       "upstream status",
			pages:      stubPages{err: &scraper.FetchError{URL: "u", StatusCode: 503}},
			wantStatus: http.StatusInternalServerError,
			wantError:  ProxyFailureMessage,
		},
		{
			name:       "unexpected",
			pages:      stubPages{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantError:  ProxyFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/api/proxy", NewProxyHandler(tt.pages, time.Second, time.Minute, zaptest.NewLogger(t)).GetPage)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/proxy", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeMap(t, resp)["error"])
				return
			}

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
			assert.Equal(t, tt.wantXCache, resp.Header.Get("X-Cache"))
			assert.Equal(t, tt.wantControl, resp.Header.Get("Cache-Control"))
		})
	}
}

func TestProxyHandlerUpstreamTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	cfg := config.Default().Upstream
	cfg.URL = upstream.URL
	cfg.Timeout = 0
	cfg.RequestsPerSecond = 0
	fetcher := scraper.NewFetcher(cfg, zaptest.NewLogger(t))
	pages := cache.NewPageCache(cache.NewMemoryStore(), fetcher, "test:page", time.Minute, zaptest.NewLogger(t))

	app := fiber.New()
	app.Get("/api/proxy", NewProxyHandler(pages, 50*time.Millisecond, time.Minute, zaptest.NewLogger(t)).GetPage)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/proxy", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestTimeout, resp.StatusCode)
	assert.Equal(t, ProxyTimeoutMessage, decodeMap(t, resp)["error"])
}

func TestProxyHandlerUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	cfg := config.Default().Upstream
	cfg.URL = upstream.URL
	cfg.RequestsPerSecond = 0
	fetcher := scraper.NewFetcher(cfg, zaptest.NewLogger(t))
	pages := cache.NewPageCache(cache.NewMemoryStore(), fetcher, "test:page", time.Minute, zaptest.NewLogger(t))

	app := fiber.New()
	app.Get("/api/proxy", NewProxyHandler(pages, time.Second, time.Minute, zaptest.NewLogger(t)).GetPage)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/proxy", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, ProxyFailureMessage, decodeMap(t, resp)["error"])
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		cache      Pinger
		wantStatus int
	}{
		{"no cache", nil, http.StatusOK},
		{"cache up", stubPinger{}, http.StatusOK},
		{"cache down", stubPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ready", ReadinessCheck(tt.cache))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Default()
	app := fiber.New()
	app.Get("/health", HealthCheck(cfg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := decodeMap(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, config.DefaultUpstreamURL, body["upstream"])
}
