// Package client is the Go SDK for the daily ledger HTTP API.
package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to a ledger service.
type Client struct {
	baseURL string
	http    *resty.Client
}

// New constructs a Client for baseURL. Options are applied in order.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(30 * time.Second),
	}
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the service address the client was built for.
func (c *Client) BaseURL() string { return c.baseURL }

// --------------------------------------------------------------------
// Selection
// --------------------------------------------------------------------

// Select makes date the active day. With wait the call returns once the
// day has been fetched and reconciled.
func (c *Client) Select(ctx context.Context, date string, wait bool) (*Status, error) {
	var out Status
	err := c.do(ctx, http.MethodPut, "/api/selection", nil, selectionRequest{Date: date, Wait: wait}, &out)
	return &out, err
}

// Selection returns the tracker status for the active day.
func (c *Client) Selection(ctx context.Context) (*Status, error) {
	var out Status
	err := c.do(ctx, http.MethodGet, "/api/selection", nil, nil, &out)
	return &out, err
}

// Reload fetches the active day again.
func (c *Client) Reload(ctx context.Context, wait bool) (*Status, error) {
	var out Status
	q := map[string]string{}
	if wait {
		q["wait"] = "true"
	}
	err := c.do(ctx, http.MethodPost, "/api/selection/reload", q, nil, &out)
	return &out, err
}

// Summary returns the summary of the active day.
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	err := c.do(ctx, http.MethodGet, "/api/summary", nil, nil, &out)
	return &out, err
}

// Day returns the sessions of the active day.
func (c *Client) Day(ctx context.Context) (*DayView, error) {
	var out DayView
	err := c.do(ctx, http.MethodGet, "/api/day", nil, nil, &out)
	return &out, err
}

// Annotate labels an event of the active day. An empty label clears it.
// domain (water, book, laptop) may be empty when the id is unique that day.
func (c *Client) Annotate(ctx context.Context, domain, eventID, label string) (*Summary, error) {
	var out Summary
	body := annotationRequest{Label: label, Domain: domain}
	err := c.do(ctx, http.MethodPut, "/api/day/events/"+url.PathEscape(eventID)+"/annotation", nil, body, &out)
	return &out, err
}

// ReloadRules makes the service re-read its classification rules file and
// returns the loaded rules version.
func (c *Client) ReloadRules(ctx context.Context) (int, error) {
	var out struct {
		Version int `json:"version"`
	}
	err := c.do(ctx, http.MethodPost, "/api/rules/reload", nil, nil, &out)
	return out.Version, err
}

// --------------------------------------------------------------------
// Ledger
// --------------------------------------------------------------------

// ListLedger returns every ledger entry sorted by date.
func (c *Client) ListLedger(ctx context.Context) ([]LedgerEntry, error) {
	var out struct {
		Entries []LedgerEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ledger", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// GetEntry returns the ledger entry for date.
func (c *Client) GetEntry(ctx context.Context, date string) (*LedgerEntry, error) {
	var out LedgerEntry
	err := c.do(ctx, http.MethodGet, "/api/ledger/"+date, nil, nil, &out)
	return &out, err
}

// DeleteEntry removes the ledger entry for date.
func (c *Client) DeleteEntry(ctx context.Context, date string) error {
	return c.do(ctx, http.MethodDelete, "/api/ledger/"+date, nil, nil, nil)
}

// SetFeedback replaces the feedback text of an entry.
func (c *Client) SetFeedback(ctx context.Context, date, feedback string) (*LedgerEntry, error) {
	var out LedgerEntry
	err := c.do(ctx, http.MethodPut, "/api/ledger/"+date+"/feedback", nil, map[string]string{"feedback": feedback}, &out)
	return &out, err
}

// GetGoals returns the scoring goals.
func (c *Client) GetGoals(ctx context.Context) (*Goals, error) {
	var out Goals
	err := c.do(ctx, http.MethodGet, "/api/goals", nil, nil, &out)
	return &out, err
}

// SetGoals replaces the goals; every ledger entry is rescored.
func (c *Client) SetGoals(ctx context.Context, g Goals) (*Goals, error) {
	var out Goals
	err := c.do(ctx, http.MethodPut, "/api/goals", nil, g, &out)
	return &out, err
}

// Rollup aggregates the ledger over period (daily, weekly, monthly). An
// empty date means the service's today.
func (c *Client) Rollup(ctx context.Context, period, date string) (*Rollup, error) {
	var out Rollup
	q := map[string]string{}
	if date != "" {
		q["date"] = date
	}
	err := c.do(ctx, http.MethodGet, "/api/rollups/"+period, q, nil, &out)
	return &out, err
}

// Health reports whether the service considers its dependencies healthy.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out); err != nil {
		return false, err
	}
	return out.Status == "healthy", nil
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	return nil
}
