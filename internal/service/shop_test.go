package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gm-economy-api/internal/model"
)

func newShopFixture() (*memRepo, *fakeSurface, *ShopService) {
	repo := newMemRepo()
	surface := newFakeSurface()
	display := NewDisplayService(repo, surface, nil, DisplayConfig{})
	shop := NewShopService(repo, display, NewCatalogLocks())
	return repo, surface, shop
}

func TestUpsertItemCreateAndReplace(t *testing.T) {
	repo, _, shop := newShopFixture()
	ctx := context.Background()

	created, err := shop.UpsertItem(ctx, model.CatalogMarket, "potion", UpsertItemInput{
		Name:  "Healing Potion",
		Price: 50,
		Stock: model.CountedStock(3),
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = shop.UpsertItem(ctx, model.CatalogMarket, "potion", UpsertItemInput{
		Name:  "Healing Potion",
		Price: 60,
		Stock: model.CountedStock(5),
	})
	require.NoError(t, err)
	assert.False(t, created)

	catalog, err := repo.LoadCatalog(ctx, model.CatalogMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(60), catalog.Items["potion"].Price)
	assert.Equal(t, int64(5), catalog.Items["potion"].Stock.Count)
}

func TestUpsertItemPreservesRolePools(t *testing.T) {
	repo, _, shop := newShopFixture()
	ctx := context.Background()

	_, err := shop.UpsertItem(ctx, model.CatalogMarket, "badge", UpsertItemInput{
		Name:  "Guild Badge",
		Price: 10,
		RoleStock: map[string]model.StockAmount{
			"r1": model.CountedStock(4),
		},
	})
	require.NoError(t, err)

	// Re-adding without role stock keeps the existing pools.
	_, err = shop.UpsertItem(ctx, model.CatalogMarket, "badge", UpsertItemInput{
		Name:  "Guild Badge",
		Price: 15,
	})
	require.NoError(t, err)

	catalog, err := repo.LoadCatalog(ctx, model.CatalogMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(4), catalog.Items["badge"].RoleStock["r1"].Count)

	// An explicit empty map replaces them.
	_, err = shop.UpsertItem(ctx, model.CatalogMarket, "badge", UpsertItemInput{
		Name:      "Guild Badge",
		Price:     15,
		RoleStock: map[string]model.StockAmount{},
	})
	require.NoError(t, err)

	catalog, err = repo.LoadCatalog(ctx, model.CatalogMarket)
	require.NoError(t, err)
	assert.Empty(t, catalog.Items["badge"].RoleStock)
}

func TestUpsertItemRejectsBadInput(t *testing.T) {
	_, _, shop := newShopFixture()
	ctx := context.Background()

	_, err := shop.UpsertItem(ctx, "bazaar", "potion", UpsertItemInput{Name: "Potion"})
	assert.ErrorIs(t, err, ErrUnknownCatalog)

	_, err = shop.UpsertItem(ctx, model.CatalogMarket, "potion", UpsertItemInput{Name: "Potion", Price: -1})
	assert.Error(t, err)
}

func TestRemoveItem(t *testing.T) {
	repo, _, shop := newShopFixture()
	ctx := context.Background()

	_, err := shop.UpsertItem(ctx, model.CatalogMarket, "potion", UpsertItemInput{Name: "Potion", Price: 1})
	require.NoError(t, err)

	require.NoError(t, shop.RemoveItem(ctx, model.CatalogMarket, "potion"))

	catalog, err := repo.LoadCatalog(ctx, model.CatalogMarket)
	require.NoError(t, err)
	assert.Empty(t, catalog.Items)

	err = shop.RemoveItem(ctx, model.CatalogMarket, "potion")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestConfigureCatalogTriggersSync(t *testing.T) {
	repo, surface, shop := newShopFixture()
	ctx := context.Background()

	err := shop.ConfigureCatalog(ctx, model.CatalogBlackMarket, 200, "Night Bazaar", "No refunds.")
	require.NoError(t, err)

	catalog, err := repo.LoadCatalog(ctx, model.CatalogBlackMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(200), catalog.ChannelID)
	assert.Equal(t, "Night Bazaar", catalog.Title)

	require.NotNil(t, surface.latest[200])
	assert.Contains(t, surface.latest[200].Content, "Night Bazaar")
}

func TestConfigureCatalogKeepsOverridesWhenOmitted(t *testing.T) {
	repo, _, shop := newShopFixture()
	ctx := context.Background()

	require.NoError(t, shop.ConfigureCatalog(ctx, model.CatalogBlackMarket, 200, "Night Bazaar", "No refunds."))

	// Re-pointing the channel without title or intro keeps both.
	require.NoError(t, shop.ConfigureCatalog(ctx, model.CatalogBlackMarket, 201, "", ""))

	catalog, err := repo.LoadCatalog(ctx, model.CatalogBlackMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(201), catalog.ChannelID)
	assert.Equal(t, "Night Bazaar", catalog.Title)
	assert.Equal(t, "No refunds.", catalog.Intro)
}

func TestFindItemSearchesMarketFirst(t *testing.T) {
	repo, _, shop := newShopFixture()
	ctx := context.Background()

	repo.catalogs[model.CatalogMarket].Items["potion"] = &model.Item{Name: "Market Potion"}
	repo.catalogs[model.CatalogBlackMarket].Items["potion"] = &model.Item{Name: "Shady Potion"}

	catalogID, item, err := shop.FindItem(ctx, "potion")
	require.NoError(t, err)
	assert.Equal(t, model.CatalogMarket, catalogID)
	assert.Equal(t, "Market Potion", item.Name)

	_, _, err = shop.FindItem(ctx, "nothing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}
