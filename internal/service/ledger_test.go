package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gm-economy-api/internal/gateway"
	"gm-economy-api/internal/model"
)

func TestEnsureCreatesOnce(t *testing.T) {
	repo := newMemRepo()
	ledger := NewLedgerService(repo, nil, 0)
	ctx := context.Background()

	created, err := ledger.Ensure(ctx, "p1", "Alice")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = ledger.Ensure(ctx, "p1", "Alice")
	require.NoError(t, err)
	assert.False(t, created)

	view, err := ledger.View(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.Name)
	assert.Equal(t, int64(0), view.Money)
	assert.True(t, view.Known)
}

func TestEnsureResyncsNameWithoutTouchingBalance(t *testing.T) {
	repo := newMemRepo()
	ledger := NewLedgerService(repo, nil, 0)
	ctx := context.Background()

	_, err := ledger.Ensure(ctx, "p1", "Alice")
	require.NoError(t, err)
	_, err = ledger.CreditDebit(ctx, "p1", 100, "")
	require.NoError(t, err)

	created, err := ledger.Ensure(ctx, "p1", "Alicia")
	require.NoError(t, err)
	assert.False(t, created)

	view, err := ledger.View(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", view.Name)
	assert.Equal(t, int64(100), view.Money)
}

func TestViewUnknownPlayerIsPlaceholder(t *testing.T) {
	repo := newMemRepo()
	ledger := NewLedgerService(repo, nil, 0)

	view, err := ledger.View(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, view.Known)
	assert.Equal(t, model.PlaceholderName, view.Name)
	assert.Equal(t, int64(0), view.Money)
	assert.Empty(t, view.Items)

	// Viewing must not create a record.
	wallets, err := repo.LoadWallets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestViewResolvesItemNames(t *testing.T) {
	repo := newMemRepo()
	repo.catalogs[model.CatalogBlackMarket].Items["potion"] = &model.Item{Name: "Healing Potion"}
	ledger := NewLedgerService(repo, nil, 0)
	ctx := context.Background()

	require.NoError(t, ledger.GrantItem(ctx, "p1", "potion"))
	require.NoError(t, ledger.GrantItem(ctx, "p1", "relic"))

	view, err := ledger.View(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Healing Potion", view.Items[0].Name)
	// No catalog lists the item; the raw ID is shown.
	assert.Equal(t, "relic", view.Items[1].Name)
}

func TestCreditDebitClampsAtZero(t *testing.T) {
	repo := newMemRepo()
	ledger := NewLedgerService(repo, nil, 0)
	ctx := context.Background()

	balance, err := ledger.CreditDebit(ctx, "p1", 50, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	balance, err = ledger.CreditDebit(ctx, "p1", -80, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestChargeDebitsAndGrants(t *testing.T) {
	repo := newMemRepo()
	ledger := NewLedgerService(repo, nil, 0)
	ctx := context.Background()

	_, err := ledger.CreditDebit(ctx, "p1", 100, "Alice")
	require.NoError(t, err)

	balance, err := ledger.Charge(ctx, "p1", "Alice", 30, "sword")
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)

	view, err := ledger.View(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "sword", view.Items[0].ItemID)
}

func TestBulkOperations(t *testing.T) {
	repo := newMemRepo()
	ledger := NewLedgerService(repo, nil, 0)
	ctx := context.Background()

	targets := []*gateway.MemberProfile{
		{ID: "p1", DisplayName: "Alice"},
		{ID: "p2", DisplayName: "Bob"},
		{ID: "p3", DisplayName: "Cora"},
	}

	// p1 already exists with a balance.
	_, err := ledger.CreditDebit(ctx, "p1", 42, "Alice")
	require.NoError(t, err)

	result, err := ledger.EnsureAll(ctx, targets)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Touched)
	assert.Equal(t, 2, result.Affected)

	// Ensure left the existing balance alone.
	view, err := ledger.View(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), view.Money)

	result, err = ledger.ResetAll(ctx, targets)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Touched)
	assert.Equal(t, 3, result.Affected)

	view, err = ledger.View(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.Money)

	result, err = ledger.DeleteAll(ctx, targets[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, result.Touched)
	assert.Equal(t, 2, result.Affected)

	// Deleting again affects nothing.
	result, err = ledger.DeleteAll(ctx, targets[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, result.Touched)
	assert.Equal(t, 0, result.Affected)
}

func TestBulkOperationsEmptyTargets(t *testing.T) {
	repo := newMemRepo()
	ledger := NewLedgerService(repo, nil, 0)

	result, err := ledger.ResetAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Touched)
	assert.Equal(t, 0, result.Affected)
}
