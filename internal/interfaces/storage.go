package interfaces

import (
	"context"

	"github.com/calderalabs/quantfeed/internal/models"
)

// CacheStore persists the last successful payload per logical key.
//
// Save is best-effort: on any storage failure it logs and returns, never
// surfacing the error — a cache write must not fail a fetch that already
// succeeded. Load returns ok=false on a missing key, a corrupt payload, or a
// storage failure. There is no TTL and no eviction; a later Save overwrites.
type CacheStore interface {
	Save(ctx context.Context, entry *models.CacheEntry)
	Load(ctx context.Context, key string) (*models.CacheEntry, bool)
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// StorageManager provides access to the storage areas.
type StorageManager interface {
	Cache() CacheStore
	Close() error
}
