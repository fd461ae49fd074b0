package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gm-economy-api/internal/gateway"
	"gm-economy-api/internal/model"
	"gm-economy-api/pkg/uid"
)

// ledgerCommitRetries bounds retries of the ledger commit after a stock
// decrement has landed. The commit is retried on infrastructure errors
// but the decrement itself is never re-applied.
const ledgerCommitRetries = 3

// PurchaseService executes buy transactions: item lookup, eligibility,
// affordability, stock commit, ledger commit, then announcement and
// display resync. A transaction has no externally observable effect
// unless it reaches the ledger commit.
type PurchaseService struct {
	shop     *ShopService
	ledger   *LedgerService
	display  *DisplayService
	identity gateway.IdentityService
	locks    *CatalogLocks
}

// NewPurchaseService creates a new purchase service.
func NewPurchaseService(shop *ShopService, ledger *LedgerService, display *DisplayService, identity gateway.IdentityService, locks *CatalogLocks) *PurchaseService {
	return &PurchaseService{
		shop:     shop,
		ledger:   ledger,
		display:  display,
		identity: identity,
		locks:    locks,
	}
}

// Purchase runs one buy transaction for the given buyer and item.
//
// buyerRoles must be the buyer's roles in their own order; when nil, the
// roles (and the display name, when empty) are resolved through the
// identity service. Failures return the sentinel errors of this package
// and leave all state unchanged.
func (p *PurchaseService) Purchase(ctx context.Context, buyerID, itemID string, buyerRoles []string, buyerName string) (*model.Receipt, error) {
	if buyerRoles == nil || buyerName == "" {
		profile, err := p.identity.ResolveMember(ctx, buyerID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve buyer %s: %w", buyerID, err)
		}
		if buyerRoles == nil {
			buyerRoles = profile.RoleIDs
		}
		if buyerName == "" {
			buyerName = profile.DisplayName
		}
	}

	// LookupItem: primary catalog first, then the black market.
	catalogID, item, err := p.shop.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	price := item.Price

	// CheckEligibility: read-only pre-check, no lock held yet.
	if !ResolveStock(item, buyerRoles).Available {
		return nil, ErrSoldOut
	}

	// CheckAffordability.
	view, err := p.ledger.View(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if view.Money < price {
		return nil, ErrInsufficientFunds
	}

	// CommitStock + CommitLedger run under the catalog lock; stock state
	// may have moved since the pre-check, so resolution is re-verified
	// against a fresh read before anything is decremented.
	receipt, err := p.commit(ctx, catalogID, itemID, buyerID, buyerName, buyerRoles, price)
	if err != nil {
		return nil, err
	}

	// Announce and resync both catalogs outside the lock: these are
	// external calls and must not extend the critical section.
	p.display.AnnouncePurchase(ctx, receipt)
	if err := p.display.SyncAll(ctx); err != nil {
		log.Printf("[PurchaseService] Display resync after purchase %s failed: %v", receipt.ReceiptID, err)
	}

	return receipt, nil
}

func (p *PurchaseService) commit(ctx context.Context, catalogID, itemID, buyerID, buyerName string, buyerRoles []string, price int64) (*model.Receipt, error) {
	lock := p.locks.Lock(catalogID)
	lock.Lock()
	defer lock.Unlock()

	catalog, err := p.shop.repo.LoadCatalog(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	item, ok := catalog.Items[itemID]
	if !ok {
		// The item vanished between lookup and commit.
		return nil, ErrLostRace
	}

	// Only stock state is re-read here. Role membership is taken as
	// resolved at transaction entry: no external call may run while the
	// catalog lock is held.
	decision := ResolveStock(item, buyerRoles)
	if !decision.Available {
		return nil, ErrLostRace
	}

	if decision.Pool != PoolNone {
		CommitStockDecision(item, decision)
		if err := p.shop.repo.SaveCatalog(ctx, catalogID, catalog); err != nil {
			// Nothing was persisted; the transaction aborts cleanly.
			return nil, fmt.Errorf("failed to commit stock: %w", err)
		}
	}

	// From here the stock decrement is durable: the ledger commit must
	// complete or the decrement is leaked. Retry locally, never touching
	// stock again.
	var balance int64
	for attempt := 1; ; attempt++ {
		balance, err = p.ledger.Charge(ctx, buyerID, buyerName, price, itemID)
		if err == nil {
			break
		}
		if attempt >= ledgerCommitRetries {
			log.Printf("[PurchaseService] Ledger commit failed after %d attempts, stock decrement for %s/%s may be leaked: %v",
				attempt, catalogID, itemID, err)
			return nil, fmt.Errorf("failed to commit ledger: %w", err)
		}
		log.Printf("[PurchaseService] Ledger commit attempt %d failed, retrying: %v", attempt, err)
	}

	return &model.Receipt{
		ReceiptID:   uid.New(),
		BuyerID:     buyerID,
		BuyerName:   buyerName,
		CatalogID:   catalogID,
		ItemID:      itemID,
		ItemName:    item.Name,
		Price:       price,
		NewBalance:  balance,
		StockLeft:   StockIndicator(item),
		PurchasedAt: time.Now().UTC(),
	}, nil
}
