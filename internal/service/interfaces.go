// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/balanceiq/balanceiq/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Purchase item operations
	SaveItems(ctx context.Context, items []model.PurchaseItem) (int, error)
	PurchaseHistory(ctx context.Context, userID string) ([]model.PurchaseRecord, error)
	RecentItems(ctx context.Context, userID string, limit int) ([]model.PurchaseItem, error)
	ItemsSince(ctx context.Context, userID string, since time.Time) ([]model.PurchaseItem, error)
	SearchItems(ctx context.Context, userID, query string, limit int) ([]model.PurchaseItem, error)

	// Aggregates
	CategoryStats(ctx context.Context, userID string, days int) ([]model.CategoryStat, error)
	MerchantSummary(ctx context.Context, userID string, days int) ([]model.MerchantStat, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for external API calls.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// TransactionSource fetches raw purchase items from an external provider.
type TransactionSource interface {
	FetchItems(ctx context.Context, userID string) ([]model.PurchaseItem, error)
}
