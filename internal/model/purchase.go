// Package model defines the core domain types shared across the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseItem is a single SKU-level purchase row as stored in the
// purchase_items table. One transaction from a provider may fan out into
// several items.
type PurchaseItem struct {
	Time              time.Time       `json:"date"`
	ID                string          `json:"id"`
	UserID            string          `json:"-"`
	ItemName          string          `json:"item"`
	Merchant          string          `json:"merchant,omitempty"`
	Category          string          `json:"category"`
	KnotTransactionID string          `json:"-"`
	KnotProductID     string          `json:"-"`
	Price             decimal.Decimal `json:"amount"`
}

// PurchaseRecord is the minimal read-only shape the prediction engine
// consumes. Missing values from the store are normalized to zero values:
// an empty ItemName or zero Timestamp marks the record as unusable and the
// engine skips it; an empty Category is a valid group key.
type PurchaseRecord struct {
	Timestamp time.Time
	ItemName  string
	Category  string
}

// Record projects a stored item into the prediction engine's input shape.
func (p *PurchaseItem) Record() PurchaseRecord {
	return PurchaseRecord{
		ItemName:  p.ItemName,
		Category:  p.Category,
		Timestamp: p.Time,
	}
}
