package model

import "github.com/shopspring/decimal"

// Tip is a rule-based savings recommendation derived from a user's spending
// patterns.
type Tip struct {
	Icon        string          `json:"icon"`
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle"`
	Description string          `json:"description"`
	Action      string          `json:"action"`
	Category    string          `json:"category"`
	Savings     decimal.Decimal `json:"savings"`
}

// Deal suggests a cheaper alternative for a merchant the user frequents.
type Deal struct {
	CurrentStore     string          `json:"current_store"`
	AlternativeStore string          `json:"alternative_store"`
	Emoji            string          `json:"emoji"`
	Category         string          `json:"category"`
	CurrentSpending  decimal.Decimal `json:"current_spending"`
	MonthlySavings   decimal.Decimal `json:"monthly_savings"`
	SavingsPercent   int             `json:"savings_percent"`
	PurchaseCount    int             `json:"purchase_count"`
	AllAlternatives  []Alternative   `json:"all_alternatives"`
}

// Alternative is one entry in a deal's list of cheaper options. PriceDiff is
// the relative price difference in percent; always negative for a cheaper
// option.
type Alternative struct {
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	PriceDiff int    `json:"price_diff"`
}

// PromoDeal is a promotional offer matched to the categories a user spends
// most in. Savings is the estimated monthly amount in whole dollars.
type PromoDeal struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Savings     int    `json:"savings"`
	Category    string `json:"category"`
	CTA         string `json:"cta"`
}
