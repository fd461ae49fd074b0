package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Catalog identifiers for the two shops. The primary market is searched
// before the black market when looking up an item by ID.
const (
	CatalogMarket      = "market"
	CatalogBlackMarket = "blackmarket"
)

// CatalogIDs lists the catalogs in lookup order.
var CatalogIDs = []string{CatalogMarket, CatalogBlackMarket}

// IsValidCatalog reports whether id names one of the two shop catalogs.
func IsValidCatalog(id string) bool {
	return id == CatalogMarket || id == CatalogBlackMarket
}

// StockAmount is a tagged quantity: either unlimited or a non-negative
// count. The persisted encoding is the legacy string form, "-" for
// unlimited and a decimal-digit string otherwise; that encoding lives only
// here, at the serialization boundary.
type StockAmount struct {
	Unlimited bool
	Count     int64
}

// UnlimitedStock returns the unlimited stock amount.
func UnlimitedStock() StockAmount {
	return StockAmount{Unlimited: true}
}

// CountedStock returns a counted stock amount, clamping negatives to zero.
func CountedStock(n int64) StockAmount {
	if n < 0 {
		n = 0
	}
	return StockAmount{Count: n}
}

// Available reports whether at least one unit can be taken.
func (s StockAmount) Available() bool {
	return s.Unlimited || s.Count > 0
}

// Decrement consumes one unit. Unlimited amounts are unchanged.
func (s StockAmount) Decrement() StockAmount {
	if s.Unlimited || s.Count == 0 {
		return s
	}
	return StockAmount{Count: s.Count - 1}
}

// String renders the persisted token form.
func (s StockAmount) String() string {
	if s.Unlimited {
		return "-"
	}
	return strconv.FormatInt(s.Count, 10)
}

// MarshalJSON encodes the legacy "-"/digit string token.
func (s StockAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the legacy token. Bare JSON numbers are accepted
// too, so hand-edited files keep working.
func (s *StockAmount) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var n int64
		if numErr := json.Unmarshal(data, &n); numErr == nil {
			*s = CountedStock(n)
			return nil
		}
		return fmt.Errorf("invalid stock amount %s: %w", data, err)
	}
	if raw == "-" {
		*s = UnlimitedStock()
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid stock amount %q: %w", raw, err)
	}
	*s = CountedStock(n)
	return nil
}

// YesNo is the persisted "y"/"n" boolean used by the public_stock field.
type YesNo bool

// MarshalJSON encodes "y" or "n".
func (b YesNo) MarshalJSON() ([]byte, error) {
	if b {
		return json.Marshal("y")
	}
	return json.Marshal("n")
}

// UnmarshalJSON accepts "y"/"n" plus plain JSON booleans.
func (b *YesNo) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var v bool
		if boolErr := json.Unmarshal(data, &v); boolErr == nil {
			*b = YesNo(v)
			return nil
		}
		return fmt.Errorf("invalid yes/no value %s: %w", data, err)
	}
	*b = raw == "y"
	return nil
}

// Item is a single purchasable catalog entry.
//
// An item is in exactly one stock mode: role pools when RoleStock is
// non-empty, otherwise the global Stock amount (which may be unlimited).
// Role pools are tracked independently per role and never merge into the
// global count.
type Item struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Price       int64                  `json:"price"`
	Stock       StockAmount            `json:"stock"`
	PublicStock YesNo                  `json:"public_stock"`
	RoleStock   map[string]StockAmount `json:"role_stock,omitempty"`
}

// RolePooled reports whether the item uses per-role stock pools.
func (i *Item) RolePooled() bool {
	return len(i.RoleStock) > 0
}

// Catalog is one shop: its display configuration plus its item map.
// ChannelID 0 means the shop has no display surface configured and
// display sync is a no-op.
type Catalog struct {
	ChannelID int64            `json:"channel_id"`
	Title     string           `json:"title,omitempty"`
	Intro     string           `json:"intro,omitempty"`
	Items     map[string]*Item `json:"items"`
}

// NewCatalog creates an empty, unconfigured catalog.
func NewCatalog() *Catalog {
	return &Catalog{Items: map[string]*Item{}}
}

// ItemIDs returns the item identifiers in stable (sorted) order, the
// iteration order used when rendering the shop listing.
func (c *Catalog) ItemIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
