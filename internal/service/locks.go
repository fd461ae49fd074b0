package service

import (
	"sync"

	"gm-economy-api/internal/model"
)

// CatalogLocks serializes read-modify-write cycles per catalog. No two
// purchase transactions may interleave their stock commits for the same
// catalog; shop edits take the same lock. The locks are in-process: the
// service is the single authority over its store.
type CatalogLocks struct {
	locks map[string]*sync.Mutex
}

// NewCatalogLocks creates the lock set for the known catalogs.
func NewCatalogLocks() *CatalogLocks {
	locks := make(map[string]*sync.Mutex, len(model.CatalogIDs))
	for _, id := range model.CatalogIDs {
		locks[id] = &sync.Mutex{}
	}
	return &CatalogLocks{locks: locks}
}

// Lock returns the mutex guarding the given catalog.
func (c *CatalogLocks) Lock(catalogID string) *sync.Mutex {
	return c.locks[catalogID]
}
