package client

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout bounds a single request including retries. Must be > 0.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.SetTimeout(d)
		return nil
	}
}

// WithRetries retries failed requests up to n times.
func WithRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("retries must be >= 0")
		}
		c.http.SetRetryCount(n)
		return nil
	}
}

// WithDebugLogging logs each request and response. Do not enable in production.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.http.SetDebug(enabled)
		return nil
	}
}

// debugLoggingRequested checks LEDGER_CLIENT_DEBUG.
func debugLoggingRequested() bool {
	switch strings.ToLower(os.Getenv("LEDGER_CLIENT_DEBUG")) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
