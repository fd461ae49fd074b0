package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gm-economy-api/internal/model"
)

// Collection file names under the data directory.
const (
	walletsFile = "wallets.json"
)

// JSONFileEconomyRepository implements EconomyRepository on top of plain
// JSON files, one per collection. Writes go to a temp file which is then
// renamed over the target, so a crash mid-write never leaves interleaved
// bytes behind.
type JSONFileEconomyRepository struct {
	dir string
	mu  sync.RWMutex
}

// NewJSONFileEconomyRepository creates a JSON file repository rooted at
// dir, creating the directory if needed.
func NewJSONFileEconomyRepository(dir string) (*JSONFileEconomyRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	log.Printf("[JSONFileEconomyRepository] Initialized with directory: %s", dir)
	return &JSONFileEconomyRepository{dir: dir}, nil
}

func catalogFile(catalogID string) string {
	return catalogID + ".json"
}

// LoadWallets returns the wallet collection, initializing it if absent.
func (r *JSONFileEconomyRepository) LoadWallets(ctx context.Context) (model.Wallets, error) {
	wallets := model.Wallets{}
	if err := r.load(walletsFile, &wallets, func() interface{} { return model.Wallets{} }); err != nil {
		return nil, err
	}
	if wallets == nil {
		wallets = model.Wallets{}
	}
	return sanitizeWallets("JSONFileEconomyRepository", wallets), nil
}

// SaveWallets durably overwrites the wallet collection.
func (r *JSONFileEconomyRepository) SaveWallets(ctx context.Context, wallets model.Wallets) error {
	return r.save(walletsFile, wallets)
}

// LoadCatalog returns a shop catalog by ID, initializing it if absent.
func (r *JSONFileEconomyRepository) LoadCatalog(ctx context.Context, catalogID string) (*model.Catalog, error) {
	if !model.IsValidCatalog(catalogID) {
		return nil, fmt.Errorf("unknown catalog: %s", catalogID)
	}

	catalog := model.NewCatalog()
	if err := r.load(catalogFile(catalogID), catalog, func() interface{} { return model.NewCatalog() }); err != nil {
		return nil, err
	}
	return sanitizeCatalog("JSONFileEconomyRepository", catalogID, catalog), nil
}

// SaveCatalog durably overwrites a shop catalog.
func (r *JSONFileEconomyRepository) SaveCatalog(ctx context.Context, catalogID string, catalog *model.Catalog) error {
	if !model.IsValidCatalog(catalogID) {
		return fmt.Errorf("unknown catalog: %s", catalogID)
	}
	return r.save(catalogFile(catalogID), catalog)
}

// load reads a collection file into dest. A missing file initializes the
// collection with its default and persists it. A malformed file is logged
// and replaced by the default rather than failing the caller.
func (r *JSONFileEconomyRepository) load(name string, dest interface{}, defaultFn func() interface{}) error {
	r.mu.RLock()
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	r.mu.RUnlock()

	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		def := defaultFn()
		if saveErr := r.save(name, def); saveErr != nil {
			return saveErr
		}
		return reencode(def, dest)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[JSONFileEconomyRepository] Corrupt content in %s, falling back to default: %v", name, err)
		def := defaultFn()
		if saveErr := r.save(name, def); saveErr != nil {
			return saveErr
		}
		return reencode(def, dest)
	}
	return nil
}

// save writes the collection to a temp file in the same directory and
// renames it into place.
func (r *JSONFileEconomyRepository) save(name string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	target := filepath.Join(r.dir, name)
	tmp, err := os.CreateTemp(r.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Stats returns statistics about the stored collections.
func (r *JSONFileEconomyRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	wallets, err := r.LoadWallets(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"backend":      "jsonfile",
		"data_dir":     r.dir,
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

// Close is a no-op for the file backend.
func (r *JSONFileEconomyRepository) Close() error {
	return nil
}

// reencode copies a default collection value into the caller's dest via
// JSON, so load has one materialization path for all collection types.
func reencode(src, dest interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode default: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode default: %w", err)
	}
	return nil
}
