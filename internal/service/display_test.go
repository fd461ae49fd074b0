package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gm-economy-api/internal/cache"
	"gm-economy-api/internal/gateway"
	"gm-economy-api/internal/model"
	"gm-economy-api/internal/repository"
)

func TestSyncUnconfiguredCatalogIsNoop(t *testing.T) {
	repo := newMemRepo()
	surface := newFakeSurface()
	display := NewDisplayService(repo, surface, nil, DisplayConfig{})

	err := display.Sync(context.Background(), model.CatalogMarket)
	require.NoError(t, err)
	assert.Empty(t, surface.posts)
}

func TestSyncPostsThenEditsThenNoops(t *testing.T) {
	repo := newMemRepo()
	repo.catalogs[model.CatalogMarket].ChannelID = 100
	repo.catalogs[model.CatalogMarket].Items["potion"] = &model.Item{
		Name:        "Healing Potion",
		Price:       50,
		Stock:       model.CountedStock(2),
		PublicStock: true,
	}
	surface := newFakeSurface()
	display := NewDisplayService(repo, surface, nil, DisplayConfig{})
	ctx := context.Background()

	// First sync posts a fresh listing.
	require.NoError(t, display.Sync(ctx, model.CatalogMarket))
	assert.Len(t, surface.posts, 1)
	assert.Contains(t, surface.latest[100].Content, "Healing Potion")

	// Re-syncing unchanged state touches nothing.
	require.NoError(t, display.Sync(ctx, model.CatalogMarket))
	assert.Len(t, surface.posts, 1)
	assert.Empty(t, surface.edits)

	// State changed: the existing message is edited, not reposted.
	repo.catalogs[model.CatalogMarket].Items["potion"].Stock = model.CountedStock(1)
	require.NoError(t, display.Sync(ctx, model.CatalogMarket))
	assert.Len(t, surface.posts, 1)
	assert.Len(t, surface.edits, 1)
	assert.Contains(t, surface.latest[100].Content, "Stock: 1")
}

func TestRenderStableOrderAndDefaults(t *testing.T) {
	repo := newMemRepo()
	display := NewDisplayService(repo, newFakeSurface(), nil, DisplayConfig{Currency: "GP"})

	catalog := model.NewCatalog()
	catalog.Items["zeta"] = &model.Item{Name: "Zeta", Price: 1, Stock: model.UnlimitedStock()}
	catalog.Items["alpha"] = &model.Item{Name: "Alpha", Price: 2, Stock: model.UnlimitedStock()}

	payload := display.Render(model.CatalogBlackMarket, catalog)
	assert.Contains(t, payload, "The Black Market")
	assert.Contains(t, payload, "GP")
	// Items render in sorted ID order regardless of insertion order.
	assert.Less(t, strings.Index(payload, "Alpha"), strings.Index(payload, "Zeta"))

	// Configured title and intro win over the defaults.
	catalog.Title = "Night Bazaar"
	catalog.Intro = "No refunds."
	payload = display.Render(model.CatalogBlackMarket, catalog)
	assert.Contains(t, payload, "Night Bazaar")
	assert.Contains(t, payload, "No refunds.")
}

func TestStockIndicator(t *testing.T) {
	// Hidden stock always reads unknown, whatever the real amount.
	item := &model.Item{Stock: model.CountedStock(7)}
	assert.Equal(t, StockHidden, StockIndicator(item))

	item.PublicStock = true
	assert.Equal(t, "7", StockIndicator(item))

	item.Stock = model.UnlimitedStock()
	assert.Equal(t, StockUnlimited, StockIndicator(item))

	// Role-pooled items show the best pool.
	item.RoleStock = map[string]model.StockAmount{
		"r1": model.CountedStock(2),
		"r2": model.CountedStock(5),
	}
	assert.Equal(t, "5", StockIndicator(item))

	item.RoleStock["r3"] = model.UnlimitedStock()
	assert.Equal(t, StockUnlimited, StockIndicator(item))
}

func TestSyncToleratesNullStoreEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "market.json"),
		[]byte(`{"channel_id":100,"items":{"ghost":null,"potion":{"name":"Healing Potion","price":50,"stock":"2","public_stock":"y"}}}`), 0o644))

	repo, err := repository.NewJSONFileEconomyRepository(dir)
	require.NoError(t, err)
	surface := newFakeSurface()
	display := NewDisplayService(repo, surface, nil, DisplayConfig{})

	// A hand-edited null entry must not take the listing down.
	require.NoError(t, display.Sync(context.Background(), model.CatalogMarket))
	require.NotNil(t, surface.latest[100])
	assert.Contains(t, surface.latest[100].Content, "Healing Potion")
	assert.NotContains(t, surface.latest[100].Content, "ghost")
}

func TestReconcileHealsOutOfBandEdits(t *testing.T) {
	repo := newMemRepo()
	repo.catalogs[model.CatalogMarket].ChannelID = 100
	repo.catalogs[model.CatalogMarket].Items["potion"] = &model.Item{
		Name:        "Healing Potion",
		Price:       50,
		Stock:       model.CountedStock(2),
		PublicStock: true,
	}
	surface := newFakeSurface()
	memo := cache.NewMemoryCache()
	defer memo.Close()
	display := NewDisplayService(repo, surface, memo, DisplayConfig{})
	ctx := context.Background()

	require.NoError(t, display.Sync(ctx, model.CatalogMarket))
	require.Len(t, surface.posts, 1)
	want := surface.latest[100].Content

	// Someone rewrites the listing message directly on the surface.
	surface.latest[100] = &gateway.Message{Ref: surface.latest[100].Ref, Content: "tampered"}

	// A memoized sync trusts the memo and does not notice.
	require.NoError(t, display.Sync(ctx, model.CatalogMarket))
	assert.Empty(t, surface.edits)

	// The reconcile pass checks the surface itself and repairs it.
	require.NoError(t, display.ReconcileAll(ctx))
	require.Len(t, surface.edits, 1)
	assert.Equal(t, want, surface.latest[100].Content)
}

func TestAnnouncePurchaseDisabledWithoutChannel(t *testing.T) {
	surface := newFakeSurface()
	display := NewDisplayService(newMemRepo(), surface, nil, DisplayConfig{})

	display.AnnouncePurchase(context.Background(), &model.Receipt{
		BuyerName: "Alice",
		ItemName:  "Potion",
		Price:     50,
	})
	assert.Empty(t, surface.posts)
}
