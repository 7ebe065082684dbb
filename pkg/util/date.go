package util

import (
	"strconv"
	"time"
)

// unixMilliFloor is the smallest integer read as epoch milliseconds
// (13 digits, Sep 2001). As seconds it would be the year 33658.
const unixMilliFloor = 1_000_000_000_000

// ParseTime tries RFC3339, RFC3339Nano, YYYY-MM-DD and unix seconds or
// milliseconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		if ts >= unixMilliFloor {
			return time.UnixMilli(ts).UTC(), true
		}
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// AlignRange truncates both ends of a range to step boundaries.
// A non-positive step leaves the range untouched.
func AlignRange(from, to time.Time, step time.Duration) (time.Time, time.Time) {
	if step <= 0 {
		return from, to
	}
	return from.Truncate(step), to.Truncate(step)
}

// UnixMilli formats t as epoch milliseconds, the way most vendor APIs expect it.
func UnixMilli(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
