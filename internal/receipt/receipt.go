// Package receipt turns parsed receipt payloads (store, line items, total)
// into categorized purchase items and persists them.
package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/classification"
	"github.com/balanceiq/balanceiq/internal/common"
	"github.com/balanceiq/balanceiq/internal/model"
	"github.com/balanceiq/balanceiq/internal/service"
)

// Receipt is the parsed receipt payload submitted by the frontend after
// image extraction.
type Receipt struct {
	UserID   string          `json:"user_id"`
	Store    string          `json:"store"`
	Location string          `json:"location"`
	Items    []LineItem      `json:"items"`
	Total    decimal.Decimal `json:"total"`
}

// LineItem is one itemized row on a receipt.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// SavedTransaction echoes one persisted row back to the caller.
type SavedTransaction struct {
	Item     string          `json:"item"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

// Result summarizes a processed receipt.
type Result struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Transactions []SavedTransaction `json:"transactions"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
}

// Processor converts receipts into purchase items and stores them.
type Processor struct {
	store  service.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewProcessor creates a receipt processor over the store.
func NewProcessor(store service.Storage) *Processor {
	return &Processor{
		store:  store,
		logger: slog.Default().With("component", "receipt"),
		now:    time.Now,
	}
}

// Process saves a receipt's line items as purchase items. Itemized receipts
// produce one row per line item (quantity folded into the row total);
// receipts without line items fall back to a single store-level row.
func (p *Processor) Process(ctx context.Context, receipt Receipt) (*Result, error) {
	if receipt.UserID == "" {
		return nil, common.NewUserError("user_id is required", nil)
	}

	store := receipt.Store
	if store == "" {
		store = "Unknown Store"
	}
	occurredAt := p.now().UTC()

	var items []model.PurchaseItem
	var transactions []SavedTransaction

	if len(receipt.Items) > 0 {
		for _, line := range receipt.Items {
			name := line.Name
			if name == "" {
				name = "Unknown Item"
			}
			quantity := line.Quantity
			if quantity < 1 {
				quantity = 1
			}

			lineTotal := line.Price.Mul(decimal.NewFromInt(int64(quantity)))
			category := classification.Categorize(name, store)

			description := store + " · " + name
			if quantity > 1 {
				description = fmt.Sprintf("%s · %s x%d", store, name, quantity)
			}

			items = append(items, model.PurchaseItem{
				ID:       receiptID(),
				UserID:   receipt.UserID,
				ItemName: name,
				Merchant: store,
				Category: category,
				Price:    lineTotal,
				Time:     occurredAt,
			})
			transactions = append(transactions, SavedTransaction{
				Item:     description,
				Amount:   lineTotal,
				Category: category,
			})
		}
	} else {
		category := classification.Categorize(store, store)
		items = append(items, model.PurchaseItem{
			ID:       receiptID(),
			UserID:   receipt.UserID,
			ItemName: store,
			Merchant: store,
			Category: category,
			Price:    receipt.Total,
			Time:     occurredAt,
		})
		transactions = append(transactions, SavedTransaction{
			Item:     store,
			Amount:   receipt.Total,
			Category: category,
		})
	}

	saved, err := p.store.SaveItems(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("failed to save receipt items: %w", err)
	}

	total := decimal.Zero
	for _, txn := range transactions {
		total = total.Add(txn.Amount)
	}

	p.logger.Info("receipt processed",
		"user_id", receipt.UserID,
		"store", store,
		"items", len(items),
		"saved", saved)

	return &Result{
		Success:      true,
		Message:      fmt.Sprintf("Saved %d transaction(s) to database", len(transactions)),
		Transactions: transactions,
		TotalAmount:  total,
	}, nil
}

// receiptID generates a receipt-scoped item id.
func receiptID() string {
	return "rcpt_" + strings.ToLower(ulid.Make().String())
}
