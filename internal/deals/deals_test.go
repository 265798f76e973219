package deals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balanceiq/balanceiq/internal/model"
)

func stat(merchant, category string, count int, total float64) model.MerchantStat {
	return model.MerchantStat{
		Merchant:      merchant,
		Category:      category,
		PurchaseCount: count,
		TotalSpent:    decimal.NewFromFloat(total),
	}
}

func TestGenerate(t *testing.T) {
	stats := []model.MerchantStat{
		stat("Starbucks", "Coffee", 12, 60),
		stat("Trader Joe's", "Groceries", 4, 200),
		stat("Local Diner", "Food", 2, 30),
	}

	deals := Generate(stats, 10)
	require.Len(t, deals, 2, "unknown merchants yield no deal")

	// Trader Joe's saves 30% of $200 = $60, Starbucks 40% of $60 = $24.
	assert.Equal(t, "Trader Joe's", deals[0].CurrentStore)
	assert.Equal(t, "Aldi", deals[0].AlternativeStore)
	assert.Equal(t, 30, deals[0].SavingsPercent)
	assert.True(t, deals[0].MonthlySavings.Equal(decimal.NewFromInt(60)), "got %s", deals[0].MonthlySavings)

	assert.Equal(t, "Starbucks", deals[1].CurrentStore)
	assert.Equal(t, "Dunkin", deals[1].AlternativeStore)
	assert.True(t, deals[1].MonthlySavings.Equal(decimal.NewFromInt(24)))
	assert.Len(t, deals[1].AllAlternatives, 3)
}

func TestGenerate_SubstringMatch(t *testing.T) {
	deals := Generate([]model.MerchantStat{stat("Starbucks Coffee #4821", "Coffee", 3, 18)}, 10)
	require.Len(t, deals, 1)
	assert.Equal(t, "Starbucks Coffee #4821", deals[0].CurrentStore)
	assert.Equal(t, "Dunkin", deals[0].AlternativeStore)
}

func TestGenerate_OneDealPerMerchant(t *testing.T) {
	stats := []model.MerchantStat{
		stat("Netflix", "Entertainment", 1, 22.99),
		stat("Netflix", "Entertainment", 1, 22.99),
	}

	deals := Generate(stats, 10)
	assert.Len(t, deals, 1)
}

func TestGenerate_Limit(t *testing.T) {
	stats := []model.MerchantStat{
		stat("Starbucks", "Coffee", 12, 60),
		stat("Netflix", "Entertainment", 1, 22.99),
		stat("Hulu", "Entertainment", 1, 17.99),
	}

	deals := Generate(stats, 2)
	require.Len(t, deals, 2)
	assert.True(t, deals[0].MonthlySavings.GreaterThanOrEqual(deals[1].MonthlySavings))
}

func TestGenerate_Empty(t *testing.T) {
	assert.Empty(t, Generate(nil, 10))
	assert.Empty(t, Generate([]model.MerchantStat{stat("", "Other", 1, 10)}, 10))
}
