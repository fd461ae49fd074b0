package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gm-economy-api/internal/cache"
	"gm-economy-api/internal/gateway"
	"gm-economy-api/internal/model"
	"gm-economy-api/internal/repository"
)

const displayMemoCachePrefix = "display:last:"

// Stock indicator tokens shown to buyers.
const (
	StockHidden    = "unknown"
	StockUnlimited = "unlimited"
)

// DisplayService renders shop catalogs into their channel listings and
// keeps the rendered messages reconciled with catalog state. Syncs are
// idempotent: when the rendered payload already matches the surface, the
// surface is not touched.
type DisplayService struct {
	repo            repository.EconomyRepository
	surface         gateway.DisplaySurface
	cache           cache.Cache
	memoTTL         time.Duration
	currency        string
	announceChannel int64
	hostPing        string
}

// DisplayConfig holds display service settings.
type DisplayConfig struct {
	Currency        string
	AnnounceChannel int64
	HostPing        string
	MemoTTL         time.Duration
}

// NewDisplayService creates a new display service. cache may be nil to
// disable the render memo; the surface comparison alone keeps syncs
// idempotent.
func NewDisplayService(repo repository.EconomyRepository, surface gateway.DisplaySurface, memo cache.Cache, cfg DisplayConfig) *DisplayService {
	if cfg.Currency == "" {
		cfg.Currency = "DM"
	}
	if cfg.MemoTTL == 0 {
		cfg.MemoTTL = time.Minute
	}
	return &DisplayService{
		repo:            repo,
		surface:         surface,
		cache:           memo,
		memoTTL:         cfg.MemoTTL,
		currency:        cfg.Currency,
		announceChannel: cfg.AnnounceChannel,
		hostPing:        cfg.HostPing,
	}
}

// Sync reconciles one catalog's channel listing with its current state.
// Catalogs without a configured channel are silently skipped.
func (s *DisplayService) Sync(ctx context.Context, catalogID string) error {
	return s.sync(ctx, catalogID, true)
}

func (s *DisplayService) sync(ctx context.Context, catalogID string, useMemo bool) error {
	catalog, err := s.repo.LoadCatalog(ctx, catalogID)
	if err != nil {
		return err
	}

	if catalog.ChannelID == 0 {
		log.Printf("[DisplayService] Catalog %s has no display channel, skipping sync", catalogID)
		return nil
	}

	payload := s.Render(catalogID, catalog)

	// The memo only proves the service itself saw this payload last;
	// reconcile passes skip it and check the surface directly.
	if useMemo && s.cache != nil {
		if memo, err := s.cache.Get(ctx, displayMemoCachePrefix+catalogID); err == nil && string(memo) == payload {
			return nil
		}
	}

	latest, err := s.surface.FetchLatestSystemMessage(ctx, catalog.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to fetch current listing for %s: %w", catalogID, err)
	}

	switch {
	case latest == nil:
		if _, err := s.surface.Post(ctx, catalog.ChannelID, payload); err != nil {
			return fmt.Errorf("failed to post listing for %s: %w", catalogID, err)
		}
	case latest.Content != payload:
		if err := s.surface.Edit(ctx, latest.Ref, payload); err != nil {
			return fmt.Errorf("failed to update listing for %s: %w", catalogID, err)
		}
	default:
		// Listing already matches; nothing to do.
	}

	s.memoize(ctx, catalogID, payload)
	return nil
}

// SyncAll reconciles every catalog, logging failures instead of stopping.
// Returns the last error encountered.
func (s *DisplayService) SyncAll(ctx context.Context) error {
	return s.syncAll(ctx, true)
}

// ReconcileAll re-checks every catalog against the live surface,
// bypassing the render memo. Scheduled self-heal passes use this so a
// listing edited out-of-band is repaired on the next tick rather than
// after the memo expires.
func (s *DisplayService) ReconcileAll(ctx context.Context) error {
	return s.syncAll(ctx, false)
}

func (s *DisplayService) syncAll(ctx context.Context, useMemo bool) error {
	var lastErr error
	for _, catalogID := range model.CatalogIDs {
		if err := s.sync(ctx, catalogID, useMemo); err != nil {
			log.Printf("[DisplayService] Sync failed for %s: %v", catalogID, err)
			lastErr = err
		}
	}
	return lastErr
}

func (s *DisplayService) memoize(ctx context.Context, catalogID, payload string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, displayMemoCachePrefix+catalogID, []byte(payload), s.memoTTL)
}

// Render builds the canonical listing text for a catalog: title line,
// intro line, then one block per item in stable key order.
func (s *DisplayService) Render(catalogID string, catalog *model.Catalog) string {
	title := catalog.Title
	if title == "" {
		title = defaultTitle(catalogID)
	}
	intro := catalog.Intro
	if intro == "" {
		intro = fmt.Sprintf("Spend your %s here. Buy with the item ID below.", s.currency)
	}

	var b strings.Builder
	b.WriteString("**" + title + "**\n")
	b.WriteString(intro + "\n")

	for _, itemID := range catalog.ItemIDs() {
		item := catalog.Items[itemID]
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("**%s** (`%s`)\n", item.Name, itemID))
		if item.Description != "" {
			b.WriteString(item.Description + "\n")
		}
		b.WriteString(fmt.Sprintf("Price: %d %s\n", item.Price, s.currency))
		b.WriteString(fmt.Sprintf("Stock: %s\n", StockIndicator(item)))
	}

	return b.String()
}

func defaultTitle(catalogID string) string {
	switch catalogID {
	case model.CatalogBlackMarket:
		return "The Black Market"
	default:
		return "The Market"
	}
}

// StockIndicator computes the remaining-quantity marker shown to buyers.
// Items with hidden stock always show "unknown". Role-pooled items show
// the maximum amount available across all pools; a pool with unlimited
// stock makes the whole indicator "unlimited".
func StockIndicator(item *model.Item) string {
	if !bool(item.PublicStock) {
		return StockHidden
	}

	if item.RolePooled() {
		var max int64
		for _, amount := range item.RoleStock {
			if amount.Unlimited {
				return StockUnlimited
			}
			if amount.Count > max {
				max = amount.Count
			}
		}
		return strconv.FormatInt(max, 10)
	}

	if item.Stock.Unlimited {
		return StockUnlimited
	}
	return strconv.FormatInt(item.Stock.Count, 10)
}

// AnnouncePurchase posts the purchase event to the announce channel.
// Announce failures never fail the purchase; they are logged and dropped.
func (s *DisplayService) AnnouncePurchase(ctx context.Context, receipt *model.Receipt) {
	if s.announceChannel == 0 {
		return
	}

	content := fmt.Sprintf("**%s** bought **%s** for %d %s!", receipt.BuyerName, receipt.ItemName, receipt.Price, s.currency)
	if s.hostPing != "" {
		content += " " + s.hostPing
	}

	if _, err := s.surface.Post(ctx, s.announceChannel, content); err != nil {
		log.Printf("[DisplayService] Failed to announce purchase %s: %v", receipt.ReceiptID, err)
	}
}
