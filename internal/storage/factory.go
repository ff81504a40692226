package storage

import (
	"fmt"

	"gatekeeper/internal/models"
)

// New creates a storage backend from configuration.
func New(config Config) (Store, error) {
	switch config.Type {
	case models.StorageTypeMemory:
		return NewMemoryStore(config), nil
	case models.StorageTypeSQLite:
		return NewSQLiteStore(config)
	case models.StorageTypePostgres:
		return NewPostgresStore(config)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
