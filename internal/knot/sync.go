package knot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/classification"
	"github.com/balanceiq/balanceiq/internal/model"
	"github.com/balanceiq/balanceiq/internal/service"
)

// transactionAPI is the slice of Client the syncer depends on.
type transactionAPI interface {
	AccountTransactions(ctx context.Context, userID string) ([]Transaction, error)
}

// Syncer pulls transactions from Knot, expands them into per-item purchase
// records and persists them.
type Syncer struct {
	api    transactionAPI
	store  service.Storage
	logger *slog.Logger
}

var _ service.TransactionSource = (*Syncer)(nil)

// SyncResult summarizes one sync run.
type SyncResult struct {
	UserID            string `json:"user_id"`
	TransactionsCount int    `json:"knot_transactions_count"`
	ItemsTransformed  int    `json:"items_transformed"`
	ItemsSaved        int    `json:"items_saved"`
	Success           bool   `json:"success"`
}

// NewSyncer creates a syncer over the Knot client and the store.
func NewSyncer(client *Client, store service.Storage) *Syncer {
	return &Syncer{
		api:    client,
		store:  store,
		logger: slog.Default().With("component", "knot_sync"),
	}
}

// FetchItems pulls and transforms all transactions for the user without
// persisting them.
func (s *Syncer) FetchItems(ctx context.Context, userID string) ([]model.PurchaseItem, error) {
	transactions, err := s.api.AccountTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	var items []model.PurchaseItem
	for _, txn := range transactions {
		items = append(items, TransformTransaction(txn, userID)...)
	}
	return items, nil
}

// SyncUser runs a full fetch-transform-save cycle for one user.
func (s *Syncer) SyncUser(ctx context.Context, userID string) (*SyncResult, error) {
	s.logger.Info("starting Knot sync", "user_id", userID)

	transactions, err := s.api.AccountTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Knot transactions: %w", err)
	}

	var items []model.PurchaseItem
	for _, txn := range transactions {
		items = append(items, TransformTransaction(txn, userID)...)
	}

	saved, err := s.store.SaveItems(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("failed to save synced items: %w", err)
	}

	s.logger.Info("Knot sync complete",
		"user_id", userID,
		"transactions", len(transactions),
		"items", len(items),
		"saved", saved)

	return &SyncResult{
		UserID:            userID,
		TransactionsCount: len(transactions),
		ItemsTransformed:  len(items),
		ItemsSaved:        saved,
		Success:           saved > 0,
	}, nil
}

// TransformTransaction expands a Knot transaction into purchase items, one
// row per unit so repeat quantities feed the frequency analysis. A
// transaction without product lines becomes a single merchant-level item.
func TransformTransaction(txn Transaction, userID string) []model.PurchaseItem {
	occurredAt := parseDateTime(txn.DateTime)

	var items []model.PurchaseItem
	for _, product := range txn.Products {
		name := product.Name
		if name == "" {
			name = "Unknown Item"
		}
		quantity := product.Quantity
		if quantity < 1 {
			quantity = 1
		}

		price := parsePrice(product.Price)
		if quantity > 1 {
			price = price.Div(decimal.NewFromInt(int64(quantity)))
		}
		category := classification.Categorize(name, txn.Merchant)

		for i := 0; i < quantity; i++ {
			items = append(items, model.PurchaseItem{
				ID:                ulid.Make().String(),
				UserID:            userID,
				ItemName:          name,
				Merchant:          txn.Merchant,
				Category:          category,
				Price:             price,
				Time:              occurredAt,
				KnotTransactionID: txn.ID,
				KnotProductID:     product.ExternalID,
			})
		}
	}

	if len(items) == 0 {
		items = append(items, model.PurchaseItem{
			ID:                ulid.Make().String(),
			UserID:            userID,
			ItemName:          "Purchase from " + txn.Merchant,
			Merchant:          txn.Merchant,
			Category:          classification.Categorize(txn.Merchant, txn.Merchant),
			Price:             parsePrice(txn.Price),
			Time:              occurredAt,
			KnotTransactionID: txn.ID,
		})
	}

	return items
}

func parsePrice(p Price) decimal.Decimal {
	raw := p.Total
	if raw == "" {
		raw = p.UnitPrice
	}
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func parseDateTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Now().UTC()
}
