package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
	"github.com/fmosquera77/Numeros-Quiniela/internal/scraper"
)

func newAPIServer(t *testing.T, source string, results []domain.Result) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Data-Source", source)
		_ = json.NewEncoder(w).Encode(results)
	}))
	t.Cleanup(server.Close)
	return server
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestWriteOutputText(t *testing.T) {
	var buf bytes.Buffer
	err := WriteOutput(&buf, &OutputResult{
		Mock:    true,
		Count:   2,
		Results: []domain.Result{domain.MustResult("Ciudad", "3331"), domain.MustResult("Santa Fe", "9661")},
	}, FormatText)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, MockBanner))
	assert.Contains(t, out, "Santa Fe")
	assert.Contains(t, out, "9661")
	assert.Contains(t, out, "Total: 2")
}

func TestWriteOutputTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, &OutputResult{Term: "99"}, FormatText))
	assert.Contains(t, buf.String(), `"99"`)
	assert.NotContains(t, buf.String(), MockBanner)
}

func TestWriteOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	result := &OutputResult{
		FetchedAt: time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC),
		Source:    "live",
		Count:     1,
		Results:   []domain.Result{domain.MustResult("Chaco", "7982")},
	}
	require.NoError(t, WriteOutput(&buf, result, FormatJSON))

	var decoded OutputResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, result.Results, decoded.Results)
	assert.Equal(t, "live", decoded.Source)
	assert.False(t, decoded.Mock)
}

func TestSearchCommandFilters(t *testing.T) {
	server := newAPIServer(t, "live", []domain.Result{
		domain.MustResult("Ciudad", "3331"),
		domain.MustResult("Provincia", "6317"),
		domain.MustResult("Chaco", "7971"),
	})

	stdout, _, err := runCmd(t, "search", "1", "--api-url", server.URL, "--format", "json")
	require.NoError(t, err)

	var result OutputResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "1", result.Term)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, "17", result.Results[0].LastTwoDigits)
	assert.Equal(t, "71", result.Results[1].LastTwoDigits)
	assert.False(t, result.Mock)
}

func TestSearchCommandShowsMockBanner(t *testing.T) {
	server := newAPIServer(t, "mock", scraper.MockResults())

	stdout, _, err := runCmd(t, "search", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, stdout, MockBanner)
	assert.Contains(t, stdout, "Total: 12")
}

func TestSearchCommandAPIDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, stderr, err := runCmd(t, "search", "--api-url", server.URL)
	require.Error(t, err)
	assert.Contains(t, stderr, "Error al cargar los datos")
}

func TestScrapeCommandMock(t *testing.T) {
	stdout, _, err := runCmd(t, "scrape", "--strategy", "mock", "--format", "json")
	require.NoError(t, err)

	var result OutputResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "mock", result.Strategy)
	assert.True(t, result.Mock)
	assert.Equal(t, 12, result.Count)
}

func TestScrapeCommandUnknownStrategy(t *testing.T) {
	_, _, err := runCmd(t, "scrape", "--strategy", "psychic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain, lenient, mock, strict")
}

func TestScrapeCommandInvalidFormat(t *testing.T) {
	_, _, err := runCmd(t, "scrape", "--strategy", "mock", "--format", "xml")
	require.Error(t, err)
}
