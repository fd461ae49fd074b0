package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gm-economy-api/internal/cache"
	"gm-economy-api/internal/gateway"
	"gm-economy-api/internal/model"
	"gm-economy-api/internal/repository"
)

const walletViewCachePrefix = "wallet:view:"

// BulkOperation is the shape shared by EnsureAll, ResetAll and DeleteAll.
type BulkOperation func(ctx context.Context, targets []*gateway.MemberProfile) (model.BulkResult, error)

// LedgerService owns all wallet mutations. Every read-modify-write of the
// wallet collection happens under one in-process mutex; reads served from
// the view cache may be slightly stale, which is acceptable for views but
// never for the mutations themselves.
type LedgerService struct {
	repo    repository.EconomyRepository
	cache   cache.Cache
	viewTTL time.Duration
	mu      sync.Mutex
}

// NewLedgerService creates a new ledger service. cache may be nil to
// disable wallet view caching.
func NewLedgerService(repo repository.EconomyRepository, viewCache cache.Cache, viewTTL time.Duration) *LedgerService {
	if viewTTL == 0 {
		viewTTL = 30 * time.Second
	}
	return &LedgerService{
		repo:    repo,
		cache:   viewCache,
		viewTTL: viewTTL,
	}
}

// Ensure creates a zero-balance wallet for the player if absent, or
// resyncs the stored display name if it changed. Balance and items on
// existing wallets are never touched. Returns whether a wallet was created.
func (s *LedgerService) Ensure(ctx context.Context, playerID, displayName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets, err := s.repo.LoadWallets(ctx)
	if err != nil {
		return false, err
	}

	wallet, ok := wallets[playerID]
	if !ok {
		wallets[playerID] = model.NewWallet(displayName)
		if err := s.repo.SaveWallets(ctx, wallets); err != nil {
			return false, err
		}
		s.invalidateView(ctx, playerID)
		return true, nil
	}

	if displayName != "" && wallet.Name != displayName {
		wallet.Name = displayName
		if err := s.repo.SaveWallets(ctx, wallets); err != nil {
			return false, err
		}
		s.invalidateView(ctx, playerID)
	}
	return false, nil
}

// View returns the player's wallet view, or a zero-value placeholder for
// unknown players. The placeholder is never persisted. Item IDs are
// paired with their catalog display names where one exists.
func (s *LedgerService) View(ctx context.Context, playerID string) (*model.WalletView, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, walletViewCachePrefix+playerID); err == nil {
			var view model.WalletView
			if jsonErr := json.Unmarshal(data, &view); jsonErr == nil {
				return &view, nil
			}
		}
	}

	view, err := s.buildView(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(view); err == nil {
			_ = s.cache.Set(ctx, walletViewCachePrefix+playerID, data, s.viewTTL)
		}
	}
	return view, nil
}

func (s *LedgerService) buildView(ctx context.Context, playerID string) (*model.WalletView, error) {
	wallets, err := s.repo.LoadWallets(ctx)
	if err != nil {
		return nil, err
	}

	wallet, ok := wallets[playerID]
	if !ok {
		return &model.WalletView{
			PlayerID: playerID,
			Name:     model.PlaceholderName,
			Money:    0,
			Items:    []model.WalletItemView{},
			Known:    false,
		}, nil
	}

	items := make([]model.WalletItemView, 0, len(wallet.Items))
	for _, itemID := range wallet.Items {
		items = append(items, model.WalletItemView{
			ItemID: itemID,
			Name:   s.resolveItemName(ctx, itemID),
		})
	}

	return &model.WalletView{
		PlayerID: playerID,
		Name:     wallet.Name,
		Money:    wallet.Money,
		Items:    items,
		Known:    true,
	}, nil
}

// resolveItemName looks up the pretty name for an item ID in either
// catalog, falling back to the raw ID.
func (s *LedgerService) resolveItemName(ctx context.Context, itemID string) string {
	for _, catalogID := range model.CatalogIDs {
		catalog, err := s.repo.LoadCatalog(ctx, catalogID)
		if err != nil {
			continue
		}
		if item, ok := catalog.Items[itemID]; ok {
			return item.Name
		}
	}
	return itemID
}

// CreditDebit applies delta to the player's balance, clamping the floor
// at zero, and resyncs the display name. The wallet is created if absent.
// Returns the resulting balance.
func (s *LedgerService) CreditDebit(ctx context.Context, playerID string, delta int64, displayName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets, err := s.repo.LoadWallets(ctx)
	if err != nil {
		return 0, err
	}

	wallet := touchWallet(wallets, playerID, displayName)
	balance := wallet.Apply(delta)

	if err := s.repo.SaveWallets(ctx, wallets); err != nil {
		return 0, err
	}
	s.invalidateView(ctx, playerID)
	return balance, nil
}

// GrantItem appends the item to the player's inventory. Items stack:
// duplicates are allowed. The wallet is created if absent.
func (s *LedgerService) GrantItem(ctx context.Context, playerID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets, err := s.repo.LoadWallets(ctx)
	if err != nil {
		return err
	}

	wallet := touchWallet(wallets, playerID, "")
	wallet.Items = append(wallet.Items, itemID)

	if err := s.repo.SaveWallets(ctx, wallets); err != nil {
		return err
	}
	s.invalidateView(ctx, playerID)
	return nil
}

// Charge debits the price and grants the item in a single persisted
// write, resyncing the display name. It is the commit step of a purchase:
// the debit clamps at zero rather than failing, so a successful stock
// commit is always followed by a completed ledger commit.
func (s *LedgerService) Charge(ctx context.Context, playerID, displayName string, price int64, itemID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets, err := s.repo.LoadWallets(ctx)
	if err != nil {
		return 0, err
	}

	wallet := touchWallet(wallets, playerID, displayName)
	balance := wallet.Apply(-price)
	wallet.Items = append(wallet.Items, itemID)

	if err := s.repo.SaveWallets(ctx, wallets); err != nil {
		return 0, err
	}
	s.invalidateView(ctx, playerID)
	return balance, nil
}

// EnsureAll creates or name-resyncs wallets for every target.
// Affected counts newly created wallets only.
func (s *LedgerService) EnsureAll(ctx context.Context, targets []*gateway.MemberProfile) (model.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets, err := s.repo.LoadWallets(ctx)
	if err != nil {
		return model.BulkResult{}, err
	}

	result := model.BulkResult{Touched: len(targets)}
	for _, target := range targets {
		if _, ok := wallets[target.ID]; ok {
			if target.DisplayName != "" && wallets[target.ID].Name != target.DisplayName {
				wallets[target.ID].Name = target.DisplayName
			}
			continue
		}
		wallets[target.ID] = model.NewWallet(target.DisplayName)
		result.Affected++
	}

	if err := s.saveAndInvalidate(ctx, wallets, targets); err != nil {
		return model.BulkResult{}, err
	}
	return result, nil
}

// ResetAll zeroes balances and clears items for every target, creating
// wallets that do not exist yet. Both paths count as an effect.
func (s *LedgerService) ResetAll(ctx context.Context, targets []*gateway.MemberProfile) (model.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets, err := s.repo.LoadWallets(ctx)
	if err != nil {
		return model.BulkResult{}, err
	}

	result := model.BulkResult{Touched: len(targets)}
	for _, target := range targets {
		wallet := touchWallet(wallets, target.ID, target.DisplayName)
		wallet.Reset()
		result.Affected++
	}

	if err := s.saveAndInvalidate(ctx, wallets, targets); err != nil {
		return model.BulkResult{}, err
	}
	return result, nil
}

// DeleteAll removes wallet records for every target. Affected counts
// records that actually existed.
func (s *LedgerService) DeleteAll(ctx context.Context, targets []*gateway.MemberProfile) (model.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets, err := s.repo.LoadWallets(ctx)
	if err != nil {
		return model.BulkResult{}, err
	}

	result := model.BulkResult{Touched: len(targets)}
	for _, target := range targets {
		if _, ok := wallets[target.ID]; !ok {
			continue
		}
		delete(wallets, target.ID)
		result.Affected++
	}

	if err := s.saveAndInvalidate(ctx, wallets, targets); err != nil {
		return model.BulkResult{}, err
	}
	return result, nil
}

func (s *LedgerService) saveAndInvalidate(ctx context.Context, wallets model.Wallets, targets []*gateway.MemberProfile) error {
	if err := s.repo.SaveWallets(ctx, wallets); err != nil {
		return fmt.Errorf("failed to save wallets: %w", err)
	}
	for _, target := range targets {
		s.invalidateView(ctx, target.ID)
	}
	return nil
}

func (s *LedgerService) invalidateView(ctx context.Context, playerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, walletViewCachePrefix+playerID); err != nil {
		log.Printf("[LedgerService] Failed to invalidate view cache for %s: %v", playerID, err)
	}
}

// touchWallet returns the player's wallet, creating it if absent and
// resyncing the stored display name when one is supplied.
func touchWallet(wallets model.Wallets, playerID, displayName string) *model.Wallet {
	wallet, ok := wallets[playerID]
	if !ok {
		wallet = model.NewWallet(displayName)
		wallets[playerID] = wallet
		return wallet
	}
	if displayName != "" && wallet.Name != displayName {
		wallet.Name = displayName
	}
	return wallet
}
