// Package logsource fetches and normalizes daily activity logs from the
// remote log API.
package logsource

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Source returns all events recorded for a date. No data is an empty result,
// not an error.
type Source interface {
	FetchDay(ctx context.Context, dateKey string) (model.DayEvents, error)
}

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be > 0")
		}
		c.http.SetTimeout(d)
		return nil
	}
}

// WithMaxRetries bounds retries of recoverable failures. Zero disables retry.
func WithMaxRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("max retries must be >= 0")
		}
		c.maxRetries = uint64(n)
		return nil
	}
}

// WithInitialBackoff sets the first retry delay.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("initial backoff must be > 0")
		}
		c.initialBackoff = d
		return nil
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// Client talks to the log API over HTTP.
type Client struct {
	http           *resty.Client
	maxRetries     uint64
	initialBackoff time.Duration
	log            zerolog.Logger
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("log source base URL is empty")
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(10 * time.Second),
		maxRetries:     3,
		initialBackoff: 200 * time.Millisecond,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FetchDay loads water and study logs for dateKey.
func (c *Client) FetchDay(ctx context.Context, dateKey string) (model.DayEvents, error) {
	var day model.DayEvents

	body, err := c.get(ctx, "fetch water logs", "/api/logs/water/{date}", dateKey)
	if err != nil {
		return day, err
	}
	if body != nil {
		if day.Water, err = DecodeWater(body); err != nil {
			return model.DayEvents{}, fmt.Errorf("decode water logs: %w", err)
		}
	}

	body, err = c.get(ctx, "fetch study logs", "/api/logs/study/{date}", dateKey)
	if err != nil {
		return model.DayEvents{}, err
	}
	if body != nil {
		if day.Book, day.Laptop, err = DecodeStudy(body); err != nil {
			return model.DayEvents{}, fmt.Errorf("decode study logs: %w", err)
		}
	}

	c.log.Debug().
		Str("date", dateKey).
		Int("water", len(day.Water)).
		Int("book", len(day.Book)).
		Int("laptop", len(day.Laptop)).
		Msg("day fetched")
	return day, nil
}

// get returns the response body, or nil for 404.
func (c *Client) get(ctx context.Context, op, path, dateKey string) ([]byte, error) {
	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("date", dateKey).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%s network error: %w", op, err)
		}
		switch code := resp.StatusCode(); {
		case code == http.StatusNotFound:
			body = nil
			return nil
		case code >= 200 && code < 300:
			body = resp.Body()
			return nil
		default:
			herr := &HTTPError{Op: op, StatusCode: code, Body: truncate(string(resp.Body()), 256)}
			if !herr.Recoverable() {
				return backoff.Permanent(herr)
			}
			return herr
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = 5 * time.Second
	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("retry_in", wait).Msg("log source request failed; retrying")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

// HealthPing implements health.HealthPinger by requesting the API root.
func (c *Client) HealthPing(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/")
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 500 {
		return &HTTPError{Op: "ping", StatusCode: resp.StatusCode()}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
