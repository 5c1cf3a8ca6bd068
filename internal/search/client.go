// Package search is the client side of the lottery API: it loads the result
// set, keeps the request lifecycle and filters records by trailing digits.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// Client calls GET /api/lottery
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL (e.g. http://localhost:8080)
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch returns the current result set. Source is empty when the server did
// not send X-Data-Source.
func (c *Client) Fetch(ctx context.Context) (domain.ResultSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/lottery", nil)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("failed to call lottery API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ResultSet{}, fmt.Errorf("lottery API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []domain.Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.ResultSet{}, fmt.Errorf("failed to decode lottery response: %w", err)
	}

	return domain.ResultSet{
		Results:  results,
		Source:   domain.DataSource(resp.Header.Get("X-Data-Source")),
		Strategy: resp.Header.Get("X-Data-Strategy"),
	}, nil
}
