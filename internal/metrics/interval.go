// Package metrics computes aggregate metric families over the
// normalized telemetry store.
package metrics

import (
	"fmt"
	"time"
)

// Interval is a calendar-aligned bucket width for time-series metrics.
type Interval string

const (
	IntervalMinute Interval = "minute"
	IntervalHour   Interval = "hour"
	IntervalDay    Interval = "day"
)

// ParseInterval validates a caller-supplied interval, defaulting to
// hour when empty.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case "":
		return IntervalHour, nil
	case IntervalMinute, IntervalHour, IntervalDay:
		return Interval(s), nil
	default:
		return "", fmt.Errorf("invalid interval %q (want minute, hour or day)", s)
	}
}

// Truncate aligns t to the bucket boundary by zeroing calendar
// components, so edges land on wall-clock minute/hour/day boundaries
// regardless of where the query range starts.
func (i Interval) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch i {
	case IntervalMinute:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	case IntervalDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	}
}

// DateTrunc returns the unit understood by the store's date_trunc
// aggregation.
func (i Interval) DateTrunc() string {
	if i == "" {
		return string(IntervalHour)
	}
	return string(i)
}
