package model

import "time"

// Receipt is returned to the caller after a successful purchase.
type Receipt struct {
	ReceiptID  string `json:"receipt_id"`
	BuyerID    string `json:"buyer_id"`
	BuyerName  string `json:"buyer_name"`
	CatalogID  string `json:"catalog_id"`
	ItemID     string `json:"item_id"`
	ItemName   string `json:"item_name"`
	Price      int64  `json:"price"`
	NewBalance int64  `json:"new_balance"`
	// StockLeft is the indicator shown to buyers after the sale:
	// a number, "unlimited", or "unknown" when stock is not public.
	StockLeft   string    `json:"stock_left"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// BulkResult reports the outcome of a bulk wallet operation.
// Touched counts every resolved target; Affected counts only the records
// actually created, reset, or deleted.
type BulkResult struct {
	Touched  int `json:"touched"`
	Affected int `json:"affected"`
}
