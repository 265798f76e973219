// Package tips generates rule-based savings tips from a user's spending
// patterns. Rules are deliberately specific: named merchants and categories
// with concrete thresholds, not generic "spend less" advice.
package tips

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/model"
)

// DefaultLimit is the number of tips returned when the caller does not
// specify one.
const DefaultLimit = 6

type aggregate struct {
	count int
	total decimal.Decimal
}

// Generate analyzes purchase items and returns savings tips sorted by
// potential savings, highest first, truncated to limit.
func Generate(items []model.PurchaseItem, limit int) []model.Tip {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(items) == 0 {
		return []model.Tip{}
	}

	merchants := make(map[string]*aggregate)
	categories := make(map[string]*aggregate)
	for _, item := range items {
		addAggregate(merchants, item.Merchant, item.Price)
		addAggregate(categories, item.Category, item.Price)
	}

	var tips []model.Tip
	tips = appendRideTips(tips, merchants)
	tips = appendDeliveryTips(tips, merchants)
	tips = appendStreamingTips(tips, merchants)
	tips = appendCategoryTips(tips, categories)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Savings.GreaterThan(tips[j].Savings)
	})
	if len(tips) > limit {
		tips = tips[:limit]
	}
	return tips
}

func addAggregate(m map[string]*aggregate, key string, price decimal.Decimal) {
	agg, ok := m[key]
	if !ok {
		agg = &aggregate{}
		m[key] = agg
	}
	agg.count++
	agg.total = agg.total.Add(price)
}

func lookup(m map[string]*aggregate, key string) (int, decimal.Decimal) {
	if agg, ok := m[key]; ok {
		return agg.count, agg.total
	}
	return 0, decimal.Zero
}

func pct(d decimal.Decimal, percent int64) decimal.Decimal {
	return d.Mul(decimal.New(percent, -2))
}

func appendRideTips(tips []model.Tip, merchants map[string]*aggregate) []model.Tip {
	count, total := lookup(merchants, "Uber")
	if count >= 5 && total.GreaterThan(decimal.NewFromInt(100)) {
		tips = append(tips, model.Tip{
			Icon:     "🚗",
			Title:    "Too Many Uber Rides",
			Subtitle: fmt.Sprintf("%d rides costing $%s", count, total.StringFixed(2)),
			Description: fmt.Sprintf(
				"You took %d Uber rides this month. Try NJ Transit bus or TigerTransit (free Princeton shuttle) to save money!", count),
			Savings:  pct(total, 85),
			Action:   "Try Transit",
			Category: "Transport",
		})
	}
	return tips
}

func appendDeliveryTips(tips []model.Tip, merchants map[string]*aggregate) []model.Tip {
	count, total := lookup(merchants, "Uber Eats")
	if count >= 10 && total.GreaterThan(decimal.NewFromInt(50)) {
		tips = append(tips, model.Tip{
			Icon:     "🍔",
			Title:    "Uber Eats Every Day",
			Subtitle: fmt.Sprintf("%d orders costing $%s", count, total.StringFixed(2)),
			Description: fmt.Sprintf(
				"You ordered food %d times this month. Shop at Aldi and cook at home to save big money!", count),
			Savings:  pct(total, 70),
			Action:   "Cook More",
			Category: "Food",
		})
	}
	return tips
}

func appendStreamingTips(tips []model.Tip, merchants map[string]*aggregate) []model.Tip {
	_, huluTotal := lookup(merchants, "Hulu")
	_, hasHulu := merchants["Hulu"]
	_, hasDisney := merchants["Disney+"]
	if !hasDisney {
		_, hasDisney = merchants["Disney Plus"]
	}

	if hasHulu && !hasDisney && huluTotal.GreaterThan(decimal.NewFromInt(15)) {
		tips = append(tips, model.Tip{
			Icon:        "🎬",
			Title:       "Get Disney+ Hulu Bundle",
			Subtitle:    fmt.Sprintf("Currently paying $%s/mo for just Hulu", huluTotal.StringFixed(2)),
			Description: "The Disney+Hulu bundle costs $19.99/mo and includes both services. Better value than Hulu alone!",
			Savings:     pct(huluTotal, 35),
			Action:      "Bundle",
			Category:    "Entertainment",
		})
	}

	if hasHulu && hasDisney {
		_, disneyTotal := lookup(merchants, "Disney+")
		if disneyTotal.IsZero() {
			_, disneyTotal = lookup(merchants, "Disney Plus")
		}
		combined := huluTotal.Add(disneyTotal)
		bundlePrice := decimal.NewFromFloat(19.99)
		if combined.GreaterThan(decimal.NewFromInt(25)) {
			tips = append(tips, model.Tip{
				Icon:     "🎬",
				Title:    "Switch to Disney+Hulu Bundle",
				Subtitle: fmt.Sprintf("Paying $%s/mo separately", combined.StringFixed(2)),
				Description: fmt.Sprintf(
					"You're paying for Hulu and Disney+ separately ($%s/mo). The bundle is only $19.99/mo - save money!", combined.StringFixed(2)),
				Savings:  combined.Sub(bundlePrice),
				Action:   "Bundle Now",
				Category: "Entertainment",
			})
		}
	}

	netflixCount, netflixTotal := lookup(merchants, "Netflix")
	if netflixCount > 0 && netflixCount <= 3 && netflixTotal.GreaterThan(decimal.NewFromInt(20)) {
		tips = append(tips, model.Tip{
			Icon:     "📺",
			Title:    "Netflix Not Watching Much?",
			Subtitle: fmt.Sprintf("Paying $%s/mo", netflixTotal.StringFixed(2)),
			Description: fmt.Sprintf(
				"Only saw %d charges this month. If you're barely watching, maybe cancel it and rotate subscriptions?", netflixCount),
			Savings:  netflixTotal,
			Action:   "Review",
			Category: "Entertainment",
		})
	}

	// Spotify is deliberately never flagged.
	return tips
}

func appendCategoryTips(tips []model.Tip, categories map[string]*aggregate) []model.Tip {
	transportCount, transportTotal := lookup(categories, "Transport")
	if transportTotal.GreaterThan(decimal.NewFromInt(150)) && transportCount >= 5 {
		tips = append(tips, model.Tip{
			Icon:     "🚌",
			Title:    "High Transport Costs",
			Subtitle: fmt.Sprintf("$%s on rides this month", transportTotal.StringFixed(2)),
			Description: fmt.Sprintf(
				"Spent $%s on %d rides. Princeton's TigerTransit is FREE, and NJ Transit is way cheaper than Uber!",
				transportTotal.StringFixed(2), transportCount),
			Savings:  pct(transportTotal, 80),
			Action:   "Go Public",
			Category: "Transport",
		})
	}

	foodCount, foodTotal := lookup(categories, "Food")
	if foodTotal.GreaterThan(decimal.NewFromInt(100)) && foodCount >= 15 {
		tips = append(tips, model.Tip{
			Icon:     "👨‍🍳",
			Title:    "Too Much Food Delivery",
			Subtitle: fmt.Sprintf("%d deliveries = $%s", foodCount, foodTotal.StringFixed(2)),
			Description: fmt.Sprintf(
				"You ordered food %d times! Hit up Aldi on Nassau St for groceries and meal prep to save tons of money.", foodCount),
			Savings:  pct(foodTotal, 65),
			Action:   "Meal Prep",
			Category: "Food",
		})
	}
	return tips
}
