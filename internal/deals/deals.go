// Package deals suggests cheaper alternatives for merchants the user
// already shops at, with estimated monthly savings based on their actual
// trailing spend.
package deals

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/model"
)

// DefaultLimit is the number of deals returned when the caller does not
// specify one.
const DefaultLimit = 10

// alternativeStores maps known merchants to cheaper options. PriceDiff is
// the percentage discount relative to the current merchant; the first entry
// is the headline alternative.
var alternativeStores = []struct {
	merchant     string
	alternatives []model.Alternative
}{
	{"Starbucks", []model.Alternative{
		{Name: "Dunkin", PriceDiff: -40, Emoji: "☕"},
		{Name: "Home Brew", PriceDiff: -80, Emoji: "🏠"},
		{Name: "McDonald's", PriceDiff: -50, Emoji: "🍟"},
	}},
	{"Trader Joe's", []model.Alternative{
		{Name: "Aldi", PriceDiff: -30, Emoji: "🛒"},
		{Name: "Costco", PriceDiff: -25, Emoji: "📦"},
		{Name: "Walmart", PriceDiff: -20, Emoji: "🏪"},
	}},
	{"Target", []model.Alternative{
		{Name: "Walmart", PriceDiff: -15, Emoji: "🏪"},
		{Name: "Costco (Bulk)", PriceDiff: -25, Emoji: "📦"},
		{Name: "Amazon", PriceDiff: -10, Emoji: "📦"},
	}},
	{"Amazon", []model.Alternative{
		{Name: "Walmart", PriceDiff: -12, Emoji: "🏪"},
		{Name: "Target", PriceDiff: -8, Emoji: "🎯"},
		{Name: "AliExpress", PriceDiff: -50, Emoji: "🌍"},
	}},
	{"Whole Foods", []model.Alternative{
		{Name: "Trader Joe's", PriceDiff: -35, Emoji: "🛒"},
		{Name: "Sprouts", PriceDiff: -25, Emoji: "🥬"},
		{Name: "Regular Grocery", PriceDiff: -40, Emoji: "🏪"},
	}},
	{"DoorDash", []model.Alternative{
		{Name: "Pickup Instead", PriceDiff: -60, Emoji: "🚗"},
		{Name: "Cook at Home", PriceDiff: -70, Emoji: "👨‍🍳"},
		{Name: "Uber Eats (promo)", PriceDiff: -20, Emoji: "🍔"},
	}},
	{"Disney+", []model.Alternative{
		{Name: "Disney+Hulu Bundle", PriceDiff: -35, Emoji: "🎬"},
		{Name: "Family Plan Split", PriceDiff: -50, Emoji: "👨‍👩‍👧"},
	}},
	{"Hulu", []model.Alternative{
		{Name: "Disney+Hulu Bundle", PriceDiff: -35, Emoji: "🎬"},
		{Name: "Hulu (w/ads)", PriceDiff: -45, Emoji: "📺"},
	}},
	{"Netflix", []model.Alternative{
		{Name: "Share with Family", PriceDiff: -60, Emoji: "👨‍👩‍👧"},
		{Name: "Cancel & Rotate", PriceDiff: -100, Emoji: "🔄"},
		{Name: "Basic Plan", PriceDiff: -40, Emoji: "📺"},
	}},
	{"Planet Fitness", []model.Alternative{
		{Name: "Home Workouts", PriceDiff: -90, Emoji: "🏠"},
		{Name: "YouTube Fitness", PriceDiff: -100, Emoji: "📱"},
		{Name: "Community Rec Center", PriceDiff: -70, Emoji: "🏊"},
	}},
}

// Generate matches the user's merchant spend against the known-alternative
// table and returns deals sorted by monthly savings, highest first. Stats
// are expected to cover the trailing month; each merchant yields at most
// one deal.
func Generate(stats []model.MerchantStat, limit int) []model.Deal {
	if limit <= 0 {
		limit = DefaultLimit
	}

	suggested := make(map[string]bool)
	var deals []model.Deal

	for _, stat := range stats {
		if stat.Merchant == "" || suggested[stat.Merchant] {
			continue
		}

		lower := strings.ToLower(stat.Merchant)
		for _, entry := range alternativeStores {
			if !strings.Contains(lower, strings.ToLower(entry.merchant)) {
				continue
			}
			suggested[stat.Merchant] = true

			best := entry.alternatives[0]
			savingsPercent := -best.PriceDiff
			monthly := stat.TotalSpent.Mul(decimal.New(int64(savingsPercent), -2))

			deals = append(deals, model.Deal{
				CurrentStore:     stat.Merchant,
				CurrentSpending:  stat.TotalSpent,
				AlternativeStore: best.Name,
				Emoji:            best.Emoji,
				SavingsPercent:   savingsPercent,
				MonthlySavings:   monthly,
				PurchaseCount:    stat.PurchaseCount,
				Category:         stat.Category,
				AllAlternatives:  entry.alternatives,
			})
			break
		}
	}

	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].MonthlySavings.GreaterThan(deals[j].MonthlySavings)
	})
	if len(deals) > limit {
		deals = deals[:limit]
	}
	return deals
}
