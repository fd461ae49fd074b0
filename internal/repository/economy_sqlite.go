package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"gm-economy-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteEconomyRepository implements EconomyRepository using SQLite.
// Each collection is stored as one row holding the same JSON payload the
// file backend writes, so the legacy stock encoding survives unchanged.
type SQLiteEconomyRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteEconomyRepository creates a new SQLite economy repository.
// dbPath is the path to the SQLite database file (e.g., "./data/economy.db")
func NewSQLiteEconomyRepository(dbPath string) (*SQLiteEconomyRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createCollectionsTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteEconomyRepository] Initialized with database: %s", dbPath)
	return &SQLiteEconomyRepository{db: db}, nil
}

// createCollectionsTable creates the collections table.
func createCollectionsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS economy_collections (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);`
	_, err := db.Exec(query)
	return err
}

// LoadWallets returns the wallet collection, initializing it if absent.
func (r *SQLiteEconomyRepository) LoadWallets(ctx context.Context) (model.Wallets, error) {
	wallets := model.Wallets{}
	if err := r.load(ctx, "wallets", &wallets, func() interface{} { return model.Wallets{} }); err != nil {
		return nil, err
	}
	if wallets == nil {
		wallets = model.Wallets{}
	}
	return sanitizeWallets("SQLiteEconomyRepository", wallets), nil
}

// SaveWallets durably overwrites the wallet collection.
func (r *SQLiteEconomyRepository) SaveWallets(ctx context.Context, wallets model.Wallets) error {
	return r.save(ctx, "wallets", wallets)
}

// LoadCatalog returns a shop catalog by ID, initializing it if absent.
func (r *SQLiteEconomyRepository) LoadCatalog(ctx context.Context, catalogID string) (*model.Catalog, error) {
	if !model.IsValidCatalog(catalogID) {
		return nil, fmt.Errorf("unknown catalog: %s", catalogID)
	}
	catalog := model.NewCatalog()
	if err := r.load(ctx, catalogID, catalog, func() interface{} { return model.NewCatalog() }); err != nil {
		return nil, err
	}
	return sanitizeCatalog("SQLiteEconomyRepository", catalogID, catalog), nil
}

// SaveCatalog durably overwrites a shop catalog.
func (r *SQLiteEconomyRepository) SaveCatalog(ctx context.Context, catalogID string, catalog *model.Catalog) error {
	if !model.IsValidCatalog(catalogID) {
		return fmt.Errorf("unknown catalog: %s", catalogID)
	}
	return r.save(ctx, catalogID, catalog)
}

func (r *SQLiteEconomyRepository) load(ctx context.Context, name string, dest interface{}, defaultFn func() interface{}) error {
	r.mu.RLock()
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM economy_collections WHERE name = ?`, name).Scan(&payload)
	r.mu.RUnlock()

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
		log.Printf("[SQLiteEconomyRepository] Corrupt payload in %s, falling back to default: %v", name, err)
		def := defaultFn()
		if saveErr := r.save(ctx, name, def); saveErr != nil {
			return saveErr
		}
		return reencode(def, dest)
	}
	return nil
}

func (r *SQLiteEconomyRepository) save(ctx context.Context, name string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO economy_collections (name, payload, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = datetime('now')`

	if _, err := r.db.ExecContext(ctx, query, name, string(payload)); err != nil {
		return fmt.Errorf("failed to save collection %s: %w", name, err)
	}
	return nil
}

// Stats returns statistics about the stored collections.
func (r *SQLiteEconomyRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	wallets, err := r.LoadWallets(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"backend":      "sqlite",
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

// Close closes the database connection.
func (r *SQLiteEconomyRepository) Close() error {
	return r.db.Close()
}
