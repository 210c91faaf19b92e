// Package storage provides the top-level StorageManager coordinating the
// storage areas. Quantfeed has a single area: the series cache.
package storage

import (
	"fmt"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/storage/cachedb"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	cache  *cachedb.Store
	logger *common.Logger
}

// NewManager creates a new StorageManager.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	cacheStore, err := cachedb.NewStore(logger, config.Storage.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	logger.Info().
		Str("cache", config.Storage.Cache.Path).
		Msg("Storage manager initialized")

	return &Manager{
		cache:  cacheStore,
		logger: logger,
	}, nil
}

func (m *Manager) Cache() interfaces.CacheStore {
	return m.cache
}

func (m *Manager) Close() error {
	return m.cache.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
