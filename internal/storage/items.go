package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/model"
)

// SaveItems inserts purchase items, skipping rows whose id already exists.
// Returns the number of rows actually inserted.
func (s *Store) SaveItems(ctx context.Context, items []model.PurchaseItem) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateItems(items); err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO purchase_items (
			item_id, user_id, item_name, merchant, price, ts, category,
			knot_transaction_id, knot_product_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	saved := 0
	for _, item := range items {
		res, execErr := stmt.ExecContext(ctx,
			item.ID,
			item.UserID,
			item.ItemName,
			item.Merchant,
			item.Price.String(),
			item.Time,
			item.Category,
			item.KnotTransactionID,
			item.KnotProductID,
		)
		if execErr != nil {
			return saved, fmt.Errorf("failed to insert item %s: %w", item.ID, execErr)
		}
		if n, raErr := res.RowsAffected(); raErr == nil {
			saved += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return saved, nil
}

// PurchaseHistory returns the full purchase history for one user, oldest
// first, in the shape the prediction engine consumes. NULL item names and
// timestamps come back as zero values (the engine skips those records);
// NULL categories are normalized to "" so they group with empty ones.
func (s *Store) PurchaseHistory(ctx context.Context, userID string) ([]model.PurchaseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_name, category, ts
		FROM purchase_items
		WHERE user_id = ?
		ORDER BY ts ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PurchaseRecord
	for rows.Next() {
		var name, category sql.NullString
		var ts sql.NullTime

		if err := rows.Scan(&name, &category, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		records = append(records, model.PurchaseRecord{
			ItemName:  name.String,
			Category:  category.String,
			Timestamp: ts.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}

	return records, nil
}

// RecentItems returns the user's most recent purchases, newest first.
func (s *Store) RecentItems(ctx context.Context, userID string, limit int) ([]model.PurchaseItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, user_id, COALESCE(item_name, merchant, ''), COALESCE(merchant, ''),
		       price, ts, COALESCE(category, '')
		FROM purchase_items
		WHERE user_id = ?
		ORDER BY ts DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

// ItemsSince returns purchases on or after the given time, newest first.
// A zero time returns everything with a usable timestamp.
func (s *Store) ItemsSince(ctx context.Context, userID string, since time.Time) ([]model.PurchaseItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, user_id, COALESCE(item_name, merchant, ''), COALESCE(merchant, ''),
		       price, ts, COALESCE(category, '')
		FROM purchase_items
		WHERE user_id = ? AND ts >= ?
		ORDER BY ts DESC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

// SearchItems performs a case-insensitive text search over item names,
// merchants and categories, newest first.
func (s *Store) SearchItems(ctx context.Context, userID, query string, limit int) ([]model.PurchaseItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(query, "query"); err != nil {
		return nil, err
	}

	like := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, user_id, COALESCE(item_name, merchant, ''), COALESCE(merchant, ''),
		       price, ts, COALESCE(category, '')
		FROM purchase_items
		WHERE user_id = ?
		  AND (item_name LIKE ? OR merchant LIKE ? OR category LIKE ?)
		ORDER BY ts DESC
		LIMIT ?
	`, userID, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

// CategoryStats aggregates spend per category over the trailing window.
func (s *Store) CategoryStats(ctx context.Context, userID string, days int) ([]model.CategoryStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(category, ''), COUNT(*), COALESCE(SUM(price), 0), COALESCE(AVG(price), 0)
		FROM purchase_items
		WHERE user_id = ? AND ts >= ?
		GROUP BY COALESCE(category, '')
		ORDER BY SUM(price) DESC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []model.CategoryStat
	for rows.Next() {
		var stat model.CategoryStat
		var total, avg float64

		if err := rows.Scan(&stat.Category, &stat.PurchaseCount, &total, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		stat.TotalSpent = decimal.NewFromFloat(total).Round(2)
		stat.AveragePrice = decimal.NewFromFloat(avg).Round(2)
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read category stats: %w", err)
	}

	return stats, nil
}

// MerchantSummary aggregates spend per merchant over the trailing window,
// biggest spend first.
func (s *Store) MerchantSummary(ctx context.Context, userID string, days int) ([]model.MerchantStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(merchant, ''), COALESCE(MAX(category), ''), COUNT(*), COALESCE(SUM(price), 0)
		FROM purchase_items
		WHERE user_id = ? AND ts >= ?
		GROUP BY COALESCE(merchant, '')
		ORDER BY SUM(price) DESC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []model.MerchantStat
	for rows.Next() {
		var stat model.MerchantStat
		var total float64

		if err := rows.Scan(&stat.Merchant, &stat.Category, &stat.PurchaseCount, &total); err != nil {
			return nil, fmt.Errorf("failed to scan merchant stat: %w", err)
		}
		stat.TotalSpent = decimal.NewFromFloat(total).Round(2)
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read merchant stats: %w", err)
	}

	return stats, nil
}

func scanItems(rows *sql.Rows) ([]model.PurchaseItem, error) {
	var items []model.PurchaseItem
	for rows.Next() {
		var item model.PurchaseItem
		var ts sql.NullTime

		if err := rows.Scan(&item.ID, &item.UserID, &item.ItemName, &item.Merchant,
			&item.Price, &ts, &item.Category); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Time = ts.Time
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}
