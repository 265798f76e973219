// Package classification assigns spending categories to purchase items using
// merchant and item-name keyword rules.
package classification

import "strings"

// CategoryOther is the fallback when no rule matches.
const CategoryOther = "Shopping"

// rule maps a set of keywords to a category. Keywords are matched as
// case-insensitive substrings of the merchant name or item name, in order;
// the first matching rule wins.
type rule struct {
	category string
	keywords []string
}

var rules = []rule{
	{category: "Coffee", keywords: []string{"starbucks", "coffee", "dunkin", "cafe", "latte", "espresso"}},
	{category: "Groceries", keywords: []string{"target", "walmart", "amazon", "trader", "grocery", "whole foods", "aldi", "wegmans", "costco"}},
	{category: "Food", keywords: []string{"doordash", "uber eats", "grubhub", "chipotle", "restaurant", "food", "pizza", "burger", "sandwich"}},
	{category: "Transport", keywords: []string{"uber", "lyft", "zipcar", "transport", "taxi", "transit", "gas", "shell", "exxon"}},
	{category: "Entertainment", keywords: []string{"netflix", "spotify", "hulu", "disney", "entertainment", "music", "movie", "theater", "cinema"}},
}

// Categorize returns the spending category for an item, using the merchant
// name for context. "uber eats" must be checked before "uber", which the rule
// order guarantees.
func Categorize(itemName, merchantName string) string {
	item := strings.ToLower(itemName)
	merchant := strings.ToLower(merchantName)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(merchant, kw) || strings.Contains(item, kw) {
				return r.category
			}
		}
	}
	return CategoryOther
}

// Categories returns all categories the categorizer can produce.
func Categories() []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.category)
	}
	return append(out, CategoryOther)
}
