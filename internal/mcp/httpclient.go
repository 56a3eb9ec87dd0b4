package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/planner"
	"github.com/claude/kinetic/internal/storage"
)

// HTTPClient implements DataSource by calling the Kinetic REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// is sent as X-API-Key when non-empty.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %s: %w", path, errorMessage(data), storage.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, errorMessage(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// errorMessage pulls the "error" field out of an API error body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func (c *HTTPClient) ListPrograms(ctx context.Context, _ string) ([]models.Program, error) {
	var programs []models.Program
	if err := c.do(ctx, http.MethodGet, "/api/v1/programs", nil, nil, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

func (c *HTTPClient) GetProgram(ctx context.Context, _, id string) (*models.Program, error) {
	var program models.Program
	if err := c.do(ctx, http.MethodGet, "/api/v1/programs/"+url.PathEscape(id), nil, nil, &program); err != nil {
		return nil, err
	}
	return &program, nil
}

func (c *HTTPClient) ListHistory(ctx context.Context, _ string) ([]models.CompletedWorkout, error) {
	var history []models.CompletedWorkout
	if err := c.do(ctx, http.MethodGet, "/api/v1/history", nil, nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *HTTPClient) HistoryStats(ctx context.Context, _ string) (storage.HistoryStats, error) {
	var stats storage.HistoryStats
	err := c.do(ctx, http.MethodGet, "/api/v1/history/stats", nil, nil, &stats)
	return stats, err
}

func (c *HTTPClient) Today(ctx context.Context, _ string, day models.Date) (planner.TodayView, error) {
	params := url.Values{}
	params.Set("date", day.String())
	var view planner.TodayView
	err := c.do(ctx, http.MethodGet, "/api/v1/today", params, nil, &view)
	return view, err
}

// Month asks the server for the calendar; the server decides which day is
// today.
func (c *HTTPClient) Month(ctx context.Context, _ string, year int, month time.Month, _ models.Date) (planner.MonthView, error) {
	params := url.Values{}
	params.Set("month", fmt.Sprintf("%04d-%02d", year, int(month)))
	var view planner.MonthView
	err := c.do(ctx, http.MethodGet, "/api/v1/schedule", params, nil, &view)
	return view, err
}

func (c *HTTPClient) Schedule(ctx context.Context, _, programID string, start models.Date, weekdays planner.WeekdaySet) ([]models.ScheduledEntry, error) {
	body := map[string]any{
		"startDate": start,
		"weekdays":  weekdays,
	}
	var entries []models.ScheduledEntry
	if err := c.do(ctx, http.MethodPut, "/api/v1/programs/"+url.PathEscape(programID)+"/schedule", nil, body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
