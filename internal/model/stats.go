package model

import "github.com/shopspring/decimal"

// CategoryStat aggregates a user's spend within one category over a window.
type CategoryStat struct {
	Category      string          `json:"category"`
	PurchaseCount int             `json:"purchase_count"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	AveragePrice  decimal.Decimal `json:"average_price"`
}

// MerchantStat aggregates a user's spend at one merchant over a window.
type MerchantStat struct {
	Merchant      string          `json:"merchant"`
	Category      string          `json:"category"`
	PurchaseCount int             `json:"purchase_count"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
}
