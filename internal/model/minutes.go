package model

import (
	"strconv"
	"strings"
)

// MinutesPerDay bounds the minute-of-day axis.
const MinutesPerDay = 1440

// MinuteOfDay extracts HH:MM from a timestamp and returns minutes since midnight.
// It accepts "2006-01-02T15:04[:05]", "2006-01-02 15:04[:05]" and "15:04[:05]".
// Anything unparseable yields 0.
func MinuteOfDay(ts string) int {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexAny(ts, "T "); i >= 0 {
		ts = ts[i+1:]
	}
	parts := strings.SplitN(ts, ":", 3)
	if len(parts) < 2 {
		return 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0
	}
	m, err := strconv.Atoi(firstDigits(parts[1]))
	if err != nil || m < 0 || m > 59 {
		return 0
	}
	return h*60 + m
}

// firstDigits trims trailing non-digit noise such as a timezone suffix.
func firstDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// FormatMinute renders a minute of day as HH:MM.
func FormatMinute(minute float64) string {
	m := int(minute)
	if m < 0 {
		m = 0
	}
	h := (m / 60) % 24
	return pad2(h) + ":" + pad2(m%60)
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
