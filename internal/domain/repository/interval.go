package repository

import (
	"fmt"

	"MarketPulse/internal/domain/models"
)

// Interval represents candle resolution buckets. The set is closed: unknown
// tokens are rejected at the boundary, before any computation begins.
type Interval string

const (
	IV1m  Interval = "1m"
	IV5m  Interval = "5m"
	IV15m Interval = "15m"
	IV30m Interval = "30m"
	IV1h  Interval = "1h"
	IV4h  Interval = "4h"
	IV1d  Interval = "1d"
	IV1w  Interval = "1w"
	IV1M  Interval = "1M"
)

// IsValidInterval returns true if iv is a supported interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case IV1m, IV5m, IV15m, IV30m, IV1h, IV4h, IV1d, IV1w, IV1M:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the interval batch jobs and the dashboard run on.
func DefaultInterval() Interval { return IV1d }

// ParseInterval converts a raw token to an Interval. An empty token maps to
// the default; anything else unknown is an error, never silently folded.
func ParseInterval(s string) (Interval, error) {
	if s == "" {
		return DefaultInterval(), nil
	}
	iv := Interval(s)
	if !IsValidInterval(iv) {
		return "", fmt.Errorf("%w: interval %q", models.ErrInvalidEnum, s)
	}
	return iv, nil
}
