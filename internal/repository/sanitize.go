package repository

import (
	"log"

	"gm-economy-api/internal/model"
)

// sanitizeWallets drops null wallet entries and repairs missing item
// lists. Hand-edited or partially written store content may carry null
// records; a null record has no identity left to repair, so it is
// dropped and logged like any other corrupt payload.
func sanitizeWallets(backend string, wallets model.Wallets) model.Wallets {
	for id, wallet := range wallets {
		if wallet == nil {
			log.Printf("[%s] Dropping null wallet entry %q", backend, id)
			delete(wallets, id)
			continue
		}
		if wallet.Items == nil {
			wallet.Items = []string{}
		}
	}
	return wallets
}

// sanitizeCatalog drops null item entries and repairs a missing item
// map, so every item reachable from a loaded catalog is non-nil.
func sanitizeCatalog(backend, catalogID string, catalog *model.Catalog) *model.Catalog {
	if catalog.Items == nil {
		catalog.Items = map[string]*model.Item{}
	}
	for id, item := range catalog.Items {
		if item == nil {
			log.Printf("[%s] Dropping null item %q in catalog %s", backend, id, catalogID)
			delete(catalog.Items, id)
		}
	}
	return catalog
}
