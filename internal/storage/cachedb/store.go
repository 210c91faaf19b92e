// Package cachedb implements interfaces.CacheStore using BadgerHold.
// It persists the last successful series payload per logical key so the
// resolver can serve stale-but-valid data when every provider is down.
package cachedb

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
)

// Store implements interfaces.CacheStore backed by BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (or creates) the cache database at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("Cache DB opened")
	return &Store{db: db, logger: logger}, nil
}

// Save upserts the entry under its key. Best-effort: a storage failure is
// logged and swallowed — it must never fail the fetch that produced the data.
func (s *Store) Save(_ context.Context, entry *models.CacheEntry) {
	if entry == nil || entry.Key == "" {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := s.db.Upsert(entry.Key, entry); err != nil {
		s.logger.Warn().Str("key", entry.Key).Err(err).Msg("Cache save failed")
		return
	}
	s.logger.Debug().Str("key", entry.Key).Msg("Cache entry saved")
}

// Load returns the entry for key, or ok=false when the key is missing, the
// payload cannot be decoded, or the store fails.
func (s *Store) Load(_ context.Context, key string) (*models.CacheEntry, bool) {
	var entry models.CacheEntry
	if err := s.db.Get(key, &entry); err != nil {
		if err != badgerhold.ErrNotFound {
			s.logger.Warn().Str("key", key).Err(err).Msg("Cache load failed")
		}
		return nil, false
	}
	if entry.Series == nil || !entry.Series.Valid() {
		// Corrupt payload reads as absent; the next save overwrites it.
		s.logger.Warn().Str("key", key).Msg("Cache entry corrupt, treating as absent")
		return nil, false
	}
	return &entry, true
}

// Keys lists every cached logical key.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	var entries []models.CacheEntry
	if err := s.db.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}

// Close shuts down the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure Store implements CacheStore
var _ interfaces.CacheStore = (*Store)(nil)
