package service

import "gm-economy-api/internal/model"

// StockPool identifies which pool a purchase consumes from.
type StockPool int

const (
	// PoolNone means no pool is decremented (unlimited stock).
	PoolNone StockPool = iota
	// PoolGlobal means the item's global count is decremented.
	PoolGlobal
	// PoolRole means a specific role pool is decremented.
	PoolRole
)

// StockDecision is the outcome of resolving an item's stock against a
// buyer's roles. Resolution never mutates; callers apply the decision
// with CommitStockDecision once they hold the catalog lock, after
// re-resolving against fresh state.
type StockDecision struct {
	Available bool
	Pool      StockPool
	RoleID    string
}

// ResolveStock decides whether one unit of the item is available to a
// buyer with the given roles, and which pool a sale would consume.
//
// Role pools take priority over everything else and are scanned in the
// buyer's own role order, first match wins. A matched role pool with zero
// stock is a hard stop: it does not fall through to other matching roles
// or to the global count.
func ResolveStock(item *model.Item, buyerRoles []string) StockDecision {
	if item.RolePooled() {
		for _, roleID := range buyerRoles {
			amount, ok := item.RoleStock[roleID]
			if !ok {
				continue
			}
			if amount.Unlimited {
				return StockDecision{Available: true, Pool: PoolNone}
			}
			if amount.Count > 0 {
				return StockDecision{Available: true, Pool: PoolRole, RoleID: roleID}
			}
			return StockDecision{}
		}
		// No buyer role is eligible; role pools never fall back to global.
		return StockDecision{}
	}

	if item.Stock.Unlimited {
		return StockDecision{Available: true, Pool: PoolNone}
	}
	if item.Stock.Count > 0 {
		return StockDecision{Available: true, Pool: PoolGlobal}
	}
	return StockDecision{}
}

// CommitStockDecision applies a decision's decrement to the item.
// The caller must hold the catalog lock and must have obtained the
// decision from ResolveStock against the item's current state.
func CommitStockDecision(item *model.Item, decision StockDecision) {
	if !decision.Available {
		return
	}
	switch decision.Pool {
	case PoolGlobal:
		item.Stock = item.Stock.Decrement()
	case PoolRole:
		item.RoleStock[decision.RoleID] = item.RoleStock[decision.RoleID].Decrement()
	}
}
