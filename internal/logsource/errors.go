package logsource

import "fmt"

// HTTPError is a non-2xx response from the log API.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s failed: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Recoverable reports whether retrying may succeed: 408, 429 and 5xx are
// transient; every other 4xx is not.
func (e *HTTPError) Recoverable() bool {
	switch {
	case e.StatusCode == 408 || e.StatusCode == 429:
		return true
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return false
	default:
		return true
	}
}
