package model

// Wallet is the persisted economy record for a single player.
// Money never goes below zero: debits that would overdraw clamp to 0.
type Wallet struct {
	Name  string   `json:"name"`
	Money int64    `json:"money"`
	Items []string `json:"items"`
}

// NewWallet creates an empty wallet for the given display name.
func NewWallet(name string) *Wallet {
	return &Wallet{
		Name:  name,
		Money: 0,
		Items: []string{},
	}
}

// Apply adds delta to the balance, clamping the floor at zero.
// Returns the resulting balance.
func (w *Wallet) Apply(delta int64) int64 {
	w.Money += delta
	if w.Money < 0 {
		w.Money = 0
	}
	return w.Money
}

// Reset zeroes the balance and clears all items, keeping identity.
func (w *Wallet) Reset() {
	w.Money = 0
	w.Items = []string{}
}

// Wallets is the persisted wallet collection keyed by player ID.
type Wallets map[string]*Wallet

// WalletView is what callers see when inspecting a wallet. Unknown players
// get a zero-value placeholder that is never persisted.
type WalletView struct {
	PlayerID string           `json:"player_id"`
	Name     string           `json:"name"`
	Money    int64            `json:"money"`
	Items    []WalletItemView `json:"items"`
	Known    bool             `json:"known"`
}

// WalletItemView pairs an owned item ID with its resolved display name.
// The name falls back to the raw ID when no catalog lists the item.
type WalletItemView struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
}

// PlaceholderName is the display name used for players without a wallet.
const PlaceholderName = "Unknown"
