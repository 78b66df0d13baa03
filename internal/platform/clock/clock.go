package clock

import "time"

// Clock abstracts time to keep date defaults deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock; date keys follow the user's day.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Fixed always returns T.
type Fixed struct{ T time.Time }

func (f Fixed) Now() time.Time { return f.T }

// Today formats c's current date as a YYYY-MM-DD key.
func Today(c Clock) string { return c.Now().Format("2006-01-02") }
