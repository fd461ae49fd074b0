package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"gm-economy-api/internal/model"
)

// MySQLEconomyRepository implements EconomyRepository using MySQL, for
// deployments that already run the gateway's MySQL instance. Collections
// are stored as JSON payloads, one row each, matching the other backends.
type MySQLEconomyRepository struct {
	db *sql.DB
}

// NewMySQLEconomyRepository creates a new MySQL economy repository using
// an already-open connection pool.
func NewMySQLEconomyRepository(db *sql.DB) (*MySQLEconomyRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS economy_collections (
		name VARCHAR(64) PRIMARY KEY,
		payload MEDIUMTEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLEconomyRepository] Initialized")
	return &MySQLEconomyRepository{db: db}, nil
}

// LoadWallets returns the wallet collection, initializing it if absent.
func (r *MySQLEconomyRepository) LoadWallets(ctx context.Context) (model.Wallets, error) {
	wallets := model.Wallets{}
	if err := r.load(ctx, "wallets", &wallets, func() interface{} { return model.Wallets{} }); err != nil {
		return nil, err
	}
	if wallets == nil {
		wallets = model.Wallets{}
	}
	return sanitizeWallets("MySQLEconomyRepository", wallets), nil
}

// SaveWallets durably overwrites the wallet collection.
func (r *MySQLEconomyRepository) SaveWallets(ctx context.Context, wallets model.Wallets) error {
	return r.save(ctx, "wallets", wallets)
}

// LoadCatalog returns a shop catalog by ID, initializing it if absent.
func (r *MySQLEconomyRepository) LoadCatalog(ctx context.Context, catalogID string) (*model.Catalog, error) {
	if !model.IsValidCatalog(catalogID) {
		return nil, fmt.Errorf("unknown catalog: %s", catalogID)
	}
	catalog := model.NewCatalog()
	if err := r.load(ctx, catalogID, catalog, func() interface{} { return model.NewCatalog() }); err != nil {
		return nil, err
	}
	return sanitizeCatalog("MySQLEconomyRepository", catalogID, catalog), nil
}

// SaveCatalog durably overwrites a shop catalog.
func (r *MySQLEconomyRepository) SaveCatalog(ctx context.Context, catalogID string, catalog *model.Catalog) error {
	if !model.IsValidCatalog(catalogID) {
		return fmt.Errorf("unknown catalog: %s", catalogID)
	}
	return r.save(ctx, catalogID, catalog)
}

func (r *MySQLEconomyRepository) load(ctx context.Context, name string, dest interface{}, defaultFn func() interface{}) error {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM economy_collections WHERE name = ?`, name).Scan(&payload)

	if err != nil {
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to load collection %s: %w", name, err)
		}
		def := defaultFn()
		if saveErr := r.save(ctx, name, def); saveErr != nil {
			return saveErr
		}
		return reencode(def, dest)
	}

	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		log.Printf("[MySQLEconomyRepository] Corrupt payload in %s, falling back to default: %v", name, err)
		def := defaultFn()
		if saveErr := r.save(ctx, name, def); saveErr != nil {
			return saveErr
		}
		return reencode(def, dest)
	}
	return nil
}

func (r *MySQLEconomyRepository) save(ctx context.Context, name string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", name, err)
	}

	query := `
		INSERT INTO economy_collections (name, payload)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload)`

	if _, err := r.db.ExecContext(ctx, query, name, string(payload)); err != nil {
		return fmt.Errorf("failed to save collection %s: %w", name, err)
	}
	return nil
}

// Stats returns statistics about the stored collections.
func (r *MySQLEconomyRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	wallets, err := r.LoadWallets(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"backend":      "mysql",
		"wallet_count": len(wallets),
	}

	for _, catalogID := range model.CatalogIDs {
		catalog, err := r.LoadCatalog(ctx, catalogID)
		if err != nil {
			return nil, err
		}
		stats[catalogID+"_items"] = len(catalog.Items)
		stats[catalogID+"_configured"] = catalog.ChannelID != 0
	}
	return stats, nil
}

// Close is a no-op; the shared connection pool is owned by the caller.
func (r *MySQLEconomyRepository) Close() error {
	return nil
}
