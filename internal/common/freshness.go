// Package common provides shared utilities for Quantfeed
package common

import "time"

// Freshness TTLs for cached series. A cache entry older than its TTL is still
// served on provider failure (stale beats empty) but is skipped by warm-cache.
const (
	FreshnessQuote     = 1 * time.Hour
	FreshnessWatchlist = 6 * time.Hour
	FreshnessMacro     = 24 * time.Hour // macro statistics move slowly
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
