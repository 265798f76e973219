// Package seed loads a deterministic demo dataset: a month of realistic
// purchase history shaped to light up every analysis feature (daily coffee,
// weekly groceries, streaming overlap, delivery habit).
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/model"
	"github.com/balanceiq/balanceiq/internal/service"
)

// DefaultUser is the demo account the dataset belongs to.
const DefaultUser = "u_demo_min"

type row struct {
	id        string
	itemName  string
	merchant  string
	category  string
	price     float64
	dayOffset int
}

var demoRows = []row{
	// Netflix, charged but barely watched.
	{"t_netflix_001", "Netflix", "Netflix", "Entertainment", 15.49, -28},
	{"t_netflix_002", "Netflix", "Netflix", "Entertainment", 15.49, -58},

	// Disney+ and Hulu paid separately.
	{"t_disney_001", "Disney+", "Disney+", "Entertainment", 13.99, -25},
	{"t_disney_002", "Disney+", "Disney+", "Entertainment", 13.99, -55},
	{"t_hulu_001", "Hulu", "Hulu", "Entertainment", 17.99, -22},
	{"t_hulu_002", "Hulu", "Hulu", "Entertainment", 17.99, -52},

	// Weekly Trader Joe's stock-up orders.
	{"t_tj_001", "Trader Joes", "Trader Joe's", "Groceries", 127.45, -5},
	{"t_tj_002", "Trader Joes", "Trader Joe's", "Groceries", 143.20, -12},
	{"t_tj_003", "Trader Joes", "Trader Joe's", "Groceries", 156.80, -19},
	{"t_tj_004", "Trader Joes", "Trader Joe's", "Groceries", 134.95, -26},

	// Near-daily Starbucks habit.
	{"t_sb_001", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -1},
	{"t_sb_002", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -2},
	{"t_sb_003", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -3},
	{"t_sb_004", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -4},
	{"t_sb_005", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -5},
	{"t_sb_006", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -6},
	{"t_sb_007", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -8},
	{"t_sb_008", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -9},
	{"t_sb_009", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -10},
	{"t_sb_010", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -11},
	{"t_sb_011", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -12},
	{"t_sb_012", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -13},
	{"t_sb_013", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -15},
	{"t_sb_014", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -16},
	{"t_sb_015", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -17},
	{"t_sb_016", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -18},
	{"t_sb_017", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -19},
	{"t_sb_018", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -20},
	{"t_sb_019", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -22},
	{"t_sb_020", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -23},
	{"t_sb_021", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -24},
	{"t_sb_022", "Starbucks · Coffee", "Starbucks", "Coffee", 7.25, -25},

	// Frequent DoorDash delivery.
	{"t_dd_001", "DoorDash · Chipotle", "DoorDash", "Food", 28.50, -2},
	{"t_dd_002", "DoorDash · Panda Express", "DoorDash", "Food", 24.75, -5},
	{"t_dd_003", "DoorDash · Thai Food", "DoorDash", "Food", 32.90, -8},
	{"t_dd_004", "DoorDash · Pizza", "DoorDash", "Food", 31.25, -11},
	{"t_dd_005", "DoorDash · Sushi", "DoorDash", "Food", 45.80, -14},
	{"t_dd_006", "DoorDash · Mexican", "DoorDash", "Food", 27.60, -17},
	{"t_dd_007", "DoorDash · Burger", "DoorDash", "Food", 22.45, -20},
	{"t_dd_008", "DoorDash · Italian", "DoorDash", "Food", 38.90, -23},

	// Assorted Amazon orders.
	{"t_amz_001", "Amazon · Electronics", "Amazon", "Shopping", 89.99, -7},
	{"t_amz_002", "Amazon · Books", "Amazon", "Shopping", 34.50, -14},
	{"t_amz_003", "Amazon · Home Goods", "Amazon", "Shopping", 67.25, -21},

	// Gym membership, barely used.
	{"t_gym_001", "Planet Fitness", "Planet Fitness", "Health", 24.99, -15},
	{"t_gym_002", "Planet Fitness", "Planet Fitness", "Health", 24.99, -45},

	// Spotify stays; music is a need.
	{"t_spot_001", "Spotify Premium", "Spotify", "Entertainment", 10.99, -10},
	{"t_spot_002", "Spotify Premium", "Spotify", "Entertainment", 10.99, -40},

	// Target household runs.
	{"t_tgt_001", "Target", "Target", "Shopping", 76.45, -6},
	{"t_tgt_002", "Target", "Target", "Shopping", 52.30, -18},
}

// Items builds the demo dataset for a user with timestamps anchored to now.
func Items(userID string, now time.Time) []model.PurchaseItem {
	items := make([]model.PurchaseItem, 0, len(demoRows))
	for _, r := range demoRows {
		items = append(items, model.PurchaseItem{
			ID:       r.id,
			UserID:   userID,
			ItemName: r.itemName,
			Merchant: r.merchant,
			Category: r.category,
			Price:    decimal.NewFromFloat(r.price),
			Time:     now.AddDate(0, 0, r.dayOffset),
		})
	}
	return items
}

// Run seeds the demo dataset into the store, reporting progress on stderr
// when showProgress is set. Re-running is safe: rows keep stable ids and
// duplicates are ignored.
func Run(ctx context.Context, store service.Storage, userID string, showProgress bool) (int, error) {
	if userID == "" {
		userID = DefaultUser
	}
	items := Items(userID, time.Now().UTC())

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(items)), "seeding demo data")
	}

	const chunkSize = 10
	saved := 0
	for start := 0; start < len(items); start += chunkSize {
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}

		n, err := store.SaveItems(ctx, items[start:end])
		if err != nil {
			return saved, fmt.Errorf("failed to seed demo data: %w", err)
		}
		saved += n
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}

	return saved, nil
}
