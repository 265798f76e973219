package deals

import (
	"sort"

	"github.com/balanceiq/balanceiq/internal/model"
)

// DefaultPromoLimit is the number of promo deals returned when the caller
// does not specify one.
const DefaultPromoLimit = 2

// topCategories caps how many of the user's categories drive promo
// selection.
const topCategories = 3

// promoTemplates holds curated offers per spending category.
var promoTemplates = map[string][]model.PromoDeal{
	"Coffee": {
		{
			Title:       "Starbucks Rewards",
			Subtitle:    "2% cashback on all purchases",
			Description: "Use your Chase Freedom card at Starbucks and earn 2% cashback. On your $5 daily coffee, that's $3/month back!",
			Savings:     3,
			Category:    "Coffee",
			CTA:         "Learn More",
		},
		{
			Title:       "Dunkin' Perks Deal",
			Subtitle:    "Free drink after 5 purchases",
			Description: "Join DD Perks program. Buy 5, get 1 free. Based on your coffee habit, you'll get 2 free drinks per month!",
			Savings:     6,
			Category:    "Coffee",
			CTA:         "Sign Up",
		},
	},
	"Groceries": {
		{
			Title:       "Target Circle Cashback",
			Subtitle:    "5% off with RedCard",
			Description: "Get 5% off every Target trip with RedCard debit card. On $80/week groceries, save $16/month!",
			Savings:     16,
			Category:    "Groceries",
			CTA:         "Apply Now",
		},
		{
			Title:       "Walmart+ Membership",
			Subtitle:    "Free delivery, gas discount",
			Description: "Get free grocery delivery + 10¢/gal gas discount. Save $12/month vs paying delivery fees.",
			Savings:     12,
			Category:    "Groceries",
			CTA:         "Try Free",
		},
	},
	"Food": {
		{
			Title:       "DoorDash DashPass",
			Subtitle:    "$0 delivery fees",
			Description: "Order 3x/month? DashPass ($9.99/mo) saves you $5/order in delivery fees. Net savings: $5/month.",
			Savings:     5,
			Category:    "Food",
			CTA:         "Subscribe",
		},
		{
			Title:       "Student Dining Discount",
			Subtitle:    "15% off local restaurants",
			Description: "Show student ID at participating restaurants. Save 15% on your next 3 meals out.",
			Savings:     8,
			Category:    "Food",
			CTA:         "View List",
		},
	},
	"Transport": {
		{
			Title:       "Uber Pass Student",
			Subtitle:    "$4.99/mo, save on rides",
			Description: "Get $5 off 2 rides/month. If you Uber 2x monthly, this pays for itself + $5 extra savings.",
			Savings:     5,
			Category:    "Transport",
			CTA:         "Get Pass",
		},
		{
			Title:       "Campus Bike Share",
			Subtitle:    "First month free",
			Description: "Princeton bike share: $8/month after free trial. Replace 4 Uber rides and save $12/month.",
			Savings:     12,
			Category:    "Transport",
			CTA:         "Sign Up",
		},
	},
	"Entertainment": {
		{
			Title:       "Black Friday: Hulu + Disney+",
			Subtitle:    "$1.99/month for 12 months",
			Description: "Early Black Friday deal! Hulu + Disney+ bundle for just $1.99/mo (normally $9.99). Save $8/month!",
			Savings:     8,
			Category:    "Entertainment",
			CTA:         "Grab Deal",
		},
		{
			Title:       "Spotify Student Discount",
			Subtitle:    "50% off with .edu email",
			Description: "Get Spotify Premium for $5.99/mo (normally $10.99). Includes Hulu. Save $5/month.",
			Savings:     5,
			Category:    "Entertainment",
			CTA:         "Verify Now",
		},
	},
	"Shopping": {
		{
			Title:       "Amazon Student Prime",
			Subtitle:    "6 months free, then $7.49/mo",
			Description: "Free 2-day shipping + Prime Video. Save on shipping costs vs paying per order.",
			Savings:     10,
			Category:    "Shopping",
			CTA:         "Start Trial",
		},
		{
			Title:       "Rakuten Cashback",
			Subtitle:    "1-5% back on purchases",
			Description: "Get cashback when shopping online. On $100/month purchases, earn $2-5 back automatically.",
			Savings:     4,
			Category:    "Shopping",
			CTA:         "Install Free",
		},
	},
}

// fallbackPromos fills remaining slots when the user's categories don't
// cover the requested count.
var fallbackPromos = []model.PromoDeal{
	{
		Title:       "Black Friday: Disney+ Bundle",
		Subtitle:    "$1.99/mo for 12 months",
		Description: "Limited time! Disney+ with ads for just $1.99/month. Save $8/month vs regular price.",
		Savings:     8,
		Category:    "Streaming",
		CTA:         "Get Deal",
	},
	{
		Title:       "Student Spotify Premium",
		Subtitle:    "50% off with student email",
		Description: "Spotify Premium + Hulu for $5.99/month. Save $5/month with .edu email verification.",
		Savings:     5,
		Category:    "Music",
		CTA:         "Verify Student",
	},
	{
		Title:       "Target Circle App",
		Subtitle:    "Extra 5% off clearance",
		Description: "Download Target app for exclusive deals. Save an extra 5% on clearance items every week.",
		Savings:     7,
		Category:    "Retail",
		CTA:         "Download",
	},
	{
		Title:       "Chipotle Rewards",
		Subtitle:    "Free entree after 10 visits",
		Description: "Join rewards program. Get a free burrito bowl ($10 value) after every 10 purchases.",
		Savings:     10,
		Category:    "Dining",
		CTA:         "Sign Up",
	},
	{
		Title:       "Netflix Student Discount",
		Subtitle:    "Basic plan at $6.99/mo",
		Description: "Get Netflix Basic for $6.99/month (save $3/mo). Verify with your .edu email address.",
		Savings:     3,
		Category:    "Streaming",
		CTA:         "Verify Now",
	},
	{
		Title:       "Gas Buddy Rewards",
		Subtitle:    "Save 5¢/gallon",
		Description: "Link your debit card and save 5¢ per gallon. On 10 gallons/week, save $2.60/month.",
		Savings:     3,
		Category:    "Gas",
		CTA:         "Link Card",
	},
	{
		Title:       "Campus Bookstore Sale",
		Subtitle:    "20% off used textbooks",
		Description: "Buy used textbooks and save 20% vs new. Resell at end of semester for even more savings.",
		Savings:     15,
		Category:    "Books",
		CTA:         "Shop Now",
	},
	{
		Title:       "Planet Fitness Student",
		Subtitle:    "$10/month, no commitment",
		Description: "Get gym membership for just $10/month with student ID. Cancel anytime, no annual fee.",
		Savings:     20,
		Category:    "Fitness",
		CTA:         "Join Now",
	},
}

// Promos selects promotional deals matched to the user's busiest spending
// categories, then tops up with popular fallback offers. Stats are ranked by
// purchase count; only the top three categories drive selection.
func Promos(stats []model.CategoryStat, limit int) []model.PromoDeal {
	if limit <= 0 {
		limit = DefaultPromoLimit
	}

	ranked := make([]model.CategoryStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PurchaseCount > ranked[j].PurchaseCount
	})
	if len(ranked) > topCategories {
		ranked = ranked[:topCategories]
	}

	perCategory := 1
	if len(ranked) > 0 && limit/len(ranked) > 1 {
		perCategory = limit / len(ranked)
	}

	promos := make([]model.PromoDeal, 0, limit)
	for _, stat := range ranked {
		templates := promoTemplates[stat.Category]
		if len(templates) > perCategory {
			templates = templates[:perCategory]
		}
		for _, deal := range templates {
			if len(promos) >= limit {
				break
			}
			promos = append(promos, deal)
		}
	}

	for _, deal := range fallbackPromos {
		if len(promos) >= limit {
			break
		}
		promos = append(promos, deal)
	}

	return promos
}
