package storage

import (
	"context"
	"fmt"

	"github.com/balanceiq/balanceiq/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return nil
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateItems(items []model.PurchaseItem) error {
	for i := range items {
		if items[i].ID == "" {
			return fmt.Errorf("item %d: id is required", i)
		}
		if items[i].UserID == "" {
			return fmt.Errorf("item %d: user id is required", i)
		}
	}
	return nil
}
