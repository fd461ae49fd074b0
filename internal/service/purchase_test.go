package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gm-economy-api/internal/gateway"
	"gm-economy-api/internal/model"
)

type purchaseFixture struct {
	repo      *memRepo
	surface   *fakeSurface
	identity  *fakeIdentity
	ledger    *LedgerService
	display   *DisplayService
	shop      *ShopService
	purchases *PurchaseService
}

func newPurchaseFixture() *purchaseFixture {
	repo := newMemRepo()
	surface := newFakeSurface()
	identity := &fakeIdentity{
		members: map[string]*gateway.MemberProfile{
			"p1": {ID: "p1", DisplayName: "Alice", RoleIDs: []string{"r1"}},
		},
	}
	locks := NewCatalogLocks()
	ledger := NewLedgerService(repo, nil, 0)
	display := NewDisplayService(repo, surface, nil, DisplayConfig{
		AnnounceChannel: 999,
		HostPing:        "@host",
	})
	shop := NewShopService(repo, display, locks)
	purchases := NewPurchaseService(shop, ledger, display, identity, locks)
	return &purchaseFixture{
		repo:      repo,
		surface:   surface,
		identity:  identity,
		ledger:    ledger,
		display:   display,
		shop:      shop,
		purchases: purchases,
	}
}

func (f *purchaseFixture) seedItem(catalogID, itemID string, item *model.Item) {
	f.repo.catalogs[catalogID].Items[itemID] = item
	f.repo.catalogs[catalogID].ChannelID = 100
}

func TestPurchaseHappyPath(t *testing.T) {
	f := newPurchaseFixture()
	ctx := context.Background()
	f.seedItem(model.CatalogMarket, "potion", &model.Item{
		Name:        "Healing Potion",
		Price:       50,
		Stock:       model.CountedStock(2),
		PublicStock: true,
	})
	_, err := f.ledger.CreditDebit(ctx, "p1", 100, "Alice")
	require.NoError(t, err)

	receipt, err := f.purchases.Purchase(ctx, "p1", "potion", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", receipt.BuyerName)
	assert.Equal(t, model.CatalogMarket, receipt.CatalogID)
	assert.Equal(t, "Healing Potion", receipt.ItemName)
	assert.Equal(t, int64(50), receipt.Price)
	assert.Equal(t, int64(50), receipt.NewBalance)
	assert.Equal(t, "1", receipt.StockLeft)
	assert.NotEmpty(t, receipt.ReceiptID)

	// Stock decrement persisted.
	catalog, err := f.repo.LoadCatalog(ctx, model.CatalogMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(1), catalog.Items["potion"].Stock.Count)

	// Item landed in the wallet.
	view, err := f.ledger.View(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "potion", view.Items[0].ItemID)
	assert.Equal(t, int64(50), view.Money)

	// Announcement went out with the host ping, and the listing resynced.
	require.NotEmpty(t, f.surface.posts)
	announced := false
	for _, post := range f.surface.posts {
		if strings.Contains(post, "Alice") && strings.Contains(post, "@host") {
			announced = true
		}
	}
	assert.True(t, announced)
	assert.NotNil(t, f.surface.latest[100])
	assert.Contains(t, f.surface.latest[100].Content, "Stock: 1")
}

func TestPurchaseSecondaryCatalogLookup(t *testing.T) {
	f := newPurchaseFixture()
	ctx := context.Background()
	f.seedItem(model.CatalogBlackMarket, "relic", &model.Item{
		Name:  "Cursed Relic",
		Price: 10,
		Stock: model.UnlimitedStock(),
	})
	_, err := f.ledger.CreditDebit(ctx, "p1", 10, "Alice")
	require.NoError(t, err)

	receipt, err := f.purchases.Purchase(ctx, "p1", "relic", nil, "")
	require.NoError(t, err)
	assert.Equal(t, model.CatalogBlackMarket, receipt.CatalogID)
	assert.Equal(t, int64(0), receipt.NewBalance)
}

func TestPurchaseUnknownItem(t *testing.T) {
	f := newPurchaseFixture()

	_, err := f.purchases.Purchase(context.Background(), "p1", "nothing", nil, "")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestPurchaseSoldOut(t *testing.T) {
	f := newPurchaseFixture()
	ctx := context.Background()
	f.seedItem(model.CatalogMarket, "potion", &model.Item{
		Name:  "Healing Potion",
		Price: 50,
		Stock: model.CountedStock(0),
	})
	_, err := f.ledger.CreditDebit(ctx, "p1", 100, "Alice")
	require.NoError(t, err)

	_, err = f.purchases.Purchase(ctx, "p1", "potion", nil, "")
	assert.ErrorIs(t, err, ErrSoldOut)

	// Nothing changed.
	view, err := f.ledger.View(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), view.Money)
	assert.Empty(t, view.Items)
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	f := newPurchaseFixture()
	ctx := context.Background()
	f.seedItem(model.CatalogMarket, "potion", &model.Item{
		Name:  "Healing Potion",
		Price: 50,
		Stock: model.CountedStock(2),
	})
	_, err := f.ledger.CreditDebit(ctx, "p1", 49, "Alice")
	require.NoError(t, err)

	_, err = f.purchases.Purchase(ctx, "p1", "potion", nil, "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	catalog, err := f.repo.LoadCatalog(ctx, model.CatalogMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(2), catalog.Items["potion"].Stock.Count)
}

func TestPurchaseRoleRestricted(t *testing.T) {
	f := newPurchaseFixture()
	ctx := context.Background()
	f.seedItem(model.CatalogMarket, "badge", &model.Item{
		Name:  "Guild Badge",
		Price: 10,
		Stock: model.UnlimitedStock(),
		RoleStock: map[string]model.StockAmount{
			"r1": model.CountedStock(1),
		},
	})
	_, err := f.ledger.CreditDebit(ctx, "p1", 100, "Alice")
	require.NoError(t, err)

	// A buyer without the role is refused even though global stock is
	// unlimited.
	_, err = f.purchases.Purchase(ctx, "p1", "badge", []string{"other"}, "Alice")
	assert.ErrorIs(t, err, ErrSoldOut)

	// The role holder drains the pool, then hits the empty pool.
	receipt, err := f.purchases.Purchase(ctx, "p1", "badge", []string{"r1"}, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(90), receipt.NewBalance)

	_, err = f.purchases.Purchase(ctx, "p1", "badge", []string{"r1"}, "Alice")
	assert.ErrorIs(t, err, ErrSoldOut)
}

func TestPurchaseConcurrentOversell(t *testing.T) {
	f := newPurchaseFixture()
	ctx := context.Background()
	f.seedItem(model.CatalogMarket, "potion", &model.Item{
		Name:        "Healing Potion",
		Price:       10,
		Stock:       model.CountedStock(3),
		PublicStock: true,
	})

	const buyers = 8
	for i := 0; i < buyers; i++ {
		id := "b" + string(rune('0'+i))
		_, err := f.ledger.CreditDebit(ctx, id, 100, "Buyer")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := "b" + string(rune('0'+n))
			_, results[n] = f.purchases.Purchase(ctx, id, "potion", []string{}, "Buyer")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, err == ErrSoldOut || err == ErrLostRace, "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, succeeded)

	catalog, err := f.repo.LoadCatalog(ctx, model.CatalogMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(0), catalog.Items["potion"].Stock.Count)
}

func TestPurchaseLedgerCommitRetries(t *testing.T) {
	f := newPurchaseFixture()
	ctx := context.Background()
	f.seedItem(model.CatalogMarket, "potion", &model.Item{
		Name:  "Healing Potion",
		Price: 50,
		Stock: model.CountedStock(2),
	})
	_, err := f.ledger.CreditDebit(ctx, "p1", 100, "Alice")
	require.NoError(t, err)

	// Two transient write failures; the third attempt lands.
	f.repo.saveWalletErrs = 2

	receipt, err := f.purchases.Purchase(ctx, "p1", "potion", nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(50), receipt.NewBalance)

	// The stock decrement was applied exactly once despite the retries.
	catalog, err := f.repo.LoadCatalog(ctx, model.CatalogMarket)
	require.NoError(t, err)
	assert.Equal(t, int64(1), catalog.Items["potion"].Stock.Count)
}
