package util

import (
    "strconv"
    "time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// AlignFromTo widens the time range to candle boundaries for the interval:
// from is rounded down to its bar start and to is rounded up to the next
// boundary, so a bar stamped inside the final period (a 21:00 market-close
// daily candle, say) stays inside the range. Weekly and monthly intervals
// align to day boundaries; exact bar start depends on the exchange calendar
// and is resolved by the store.
func AlignFromTo(from, to time.Time, interval string) (time.Time, time.Time) {
    var d time.Duration
    switch interval {
    case "1m":
        d = time.Minute
    case "5m":
        d = 5 * time.Minute
    case "15m":
        d = 15 * time.Minute
    case "30m":
        d = 30 * time.Minute
    case "1h":
        d = time.Hour
    case "4h":
        d = 4 * time.Hour
    case "1d", "1w", "1M":
        d = 24 * time.Hour
    default:
        d = 24 * time.Hour
    }
    if r := to.Truncate(d); r.Before(to) {
        to = r.Add(d)
    }
    return from.Truncate(d), to
}
