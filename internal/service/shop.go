package service

import (
	"context"
	"fmt"
	"log"

	"gm-economy-api/internal/model"
	"gm-economy-api/internal/repository"
)

// ShopService handles catalog edits and item lookups. Edits take the
// catalog lock; the display resync they trigger runs after the lock is
// released.
type ShopService struct {
	repo    repository.EconomyRepository
	display *DisplayService
	locks   *CatalogLocks
}

// NewShopService creates a new shop service.
func NewShopService(repo repository.EconomyRepository, display *DisplayService, locks *CatalogLocks) *ShopService {
	return &ShopService{
		repo:    repo,
		display: display,
		locks:   locks,
	}
}

// UpsertItemInput carries the editable item fields. A nil RoleStock
// preserves whatever role pools the item already has, so re-adding an
// item does not wipe its per-role stock.
type UpsertItemInput struct {
	Name        string
	Description string
	Price       int64
	Stock       model.StockAmount
	PublicStock bool
	RoleStock   map[string]model.StockAmount
}

// FindItem looks the item up in the primary catalog first, then the
// black market. Returns the owning catalog ID with the item.
func (s *ShopService) FindItem(ctx context.Context, itemID string) (string, *model.Item, error) {
	for _, catalogID := range model.CatalogIDs {
		catalog, err := s.repo.LoadCatalog(ctx, catalogID)
		if err != nil {
			return "", nil, err
		}
		if item, ok := catalog.Items[itemID]; ok {
			return catalogID, item, nil
		}
	}
	return "", nil, ErrItemNotFound
}

// UpsertItem creates or replaces an item in the catalog and resyncs its
// listing. Returns whether the item was newly created.
func (s *ShopService) UpsertItem(ctx context.Context, catalogID, itemID string, input UpsertItemInput) (bool, error) {
	if !model.IsValidCatalog(catalogID) {
		return false, ErrUnknownCatalog
	}
	if input.Price < 0 {
		return false, fmt.Errorf("price cannot be negative")
	}

	created, err := s.upsertLocked(ctx, catalogID, itemID, input)
	if err != nil {
		return false, err
	}

	s.resync(ctx, catalogID)
	return created, nil
}

func (s *ShopService) upsertLocked(ctx context.Context, catalogID, itemID string, input UpsertItemInput) (bool, error) {
	lock := s.locks.Lock(catalogID)
	lock.Lock()
	defer lock.Unlock()

	catalog, err := s.repo.LoadCatalog(ctx, catalogID)
	if err != nil {
		return false, err
	}

	previous, exists := catalog.Items[itemID]

	item := &model.Item{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		PublicStock: model.YesNo(input.PublicStock),
		RoleStock:   input.RoleStock,
	}
	if item.RoleStock == nil && exists {
		item.RoleStock = previous.RoleStock
	}
	catalog.Items[itemID] = item

	if err := s.repo.SaveCatalog(ctx, catalogID, catalog); err != nil {
		return false, err
	}
	return !exists, nil
}

// RemoveItem deletes an item from the catalog and resyncs its listing.
func (s *ShopService) RemoveItem(ctx context.Context, catalogID, itemID string) error {
	if !model.IsValidCatalog(catalogID) {
		return ErrUnknownCatalog
	}

	if err := s.removeLocked(ctx, catalogID, itemID); err != nil {
		return err
	}

	s.resync(ctx, catalogID)
	return nil
}

func (s *ShopService) removeLocked(ctx context.Context, catalogID, itemID string) error {
	lock := s.locks.Lock(catalogID)
	lock.Lock()
	defer lock.Unlock()

	catalog, err := s.repo.LoadCatalog(ctx, catalogID)
	if err != nil {
		return err
	}

	if _, ok := catalog.Items[itemID]; !ok {
		return ErrItemNotFound
	}
	delete(catalog.Items, itemID)

	return s.repo.SaveCatalog(ctx, catalogID, catalog)
}

// ConfigureCatalog sets the catalog's display channel and optional title
// and intro overrides, then resyncs the listing. Empty title or intro
// keeps the current value, so re-pointing the channel does not wipe the
// overrides.
func (s *ShopService) ConfigureCatalog(ctx context.Context, catalogID string, channelID int64, title, intro string) error {
	if !model.IsValidCatalog(catalogID) {
		return ErrUnknownCatalog
	}

	lock := s.locks.Lock(catalogID)
	lock.Lock()

	catalog, err := s.repo.LoadCatalog(ctx, catalogID)
	if err != nil {
		lock.Unlock()
		return err
	}

	catalog.ChannelID = channelID
	if title != "" {
		catalog.Title = title
	}
	if intro != "" {
		catalog.Intro = intro
	}

	if err := s.repo.SaveCatalog(ctx, catalogID, catalog); err != nil {
		lock.Unlock()
		return err
	}
	lock.Unlock()

	s.resync(ctx, catalogID)
	return nil
}

// resync refreshes the catalog's listing, logging failures. Catalog state
// is already saved at this point; the next sync will self-heal.
func (s *ShopService) resync(ctx context.Context, catalogID string) {
	if s.display == nil {
		return
	}
	if err := s.display.Sync(ctx, catalogID); err != nil {
		log.Printf("[ShopService] Display resync failed for %s: %v", catalogID, err)
	}
}
