package repository

import (
	"context"

	"gm-economy-api/internal/model"
)

// EconomyRepository defines durable access to the three economy
// collections: the wallet ledger and the two shop catalogs.
//
// Load methods never fail on malformed persisted content: corruption is
// logged and the collection's default is substituted (and persisted), so
// callers always get a usable record. Save methods overwrite the whole
// collection; a save either fully lands or the previous content stays
// visible to later loads.
type EconomyRepository interface {
	// LoadWallets returns the wallet collection, initializing it if absent.
	LoadWallets(ctx context.Context) (model.Wallets, error)

	// SaveWallets durably overwrites the wallet collection.
	SaveWallets(ctx context.Context, wallets model.Wallets) error

	// LoadCatalog returns a shop catalog by ID, initializing it if absent.
	LoadCatalog(ctx context.Context, catalogID string) (*model.Catalog, error)

	// SaveCatalog durably overwrites a shop catalog.
	SaveCatalog(ctx context.Context, catalogID string, catalog *model.Catalog) error

	// Stats returns statistics about the stored collections.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository.
	Close() error
}

// HostKeyRepository defines host credential lookups for the privileged
// caller check.
type HostKeyRepository interface {
	// ValidateHostKey checks a raw host key and returns its account record.
	ValidateHostKey(ctx context.Context, key string) (*model.HostKeyValidation, error)
}
