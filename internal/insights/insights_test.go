package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balanceiq/balanceiq/internal/model"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func item(merchant, category, name string, price float64) model.PurchaseItem {
	return model.PurchaseItem{
		ID:       merchant + name,
		UserID:   "u1",
		ItemName: name,
		Merchant: merchant,
		Category: category,
		Price:    decimal.NewFromFloat(price),
		Time:     time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func habitHistory() []model.PurchaseItem {
	var items []model.PurchaseItem
	for i := 0; i < 5; i++ {
		items = append(items, item("Starbucks", "Coffee", "Latte", 5.25))
	}
	items = append(items,
		item("Trader Joe's", "Groceries", "Weekly Haul", 140),
		item("Trader Joe's", "Groceries", "Weekly Haul", 150),
		item("Trader Joe's", "Groceries", "Weekly Haul", 160),
	)
	return items
}

func TestGenerate_Empty(t *testing.T) {
	graph := NewGenerator(nil).Generate(context.Background(), nil)

	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
	assert.Empty(t, graph.Insights.All)
	assert.Zero(t, graph.Stats.TotalTransactions)
}

func TestGenerate_FallbackInsights(t *testing.T) {
	graph := NewGenerator(nil).Generate(context.Background(), habitHistory())

	require.NotEmpty(t, graph.Insights.Location)
	assert.Equal(t, "Starbucks - Nassau Street/Frist", graph.Insights.Location[0].Title)
	assert.Contains(t, graph.Insights.Location[0].Description, "5 visits")
	assert.Equal(t, "Trader Joe's - Nassau Street", graph.Insights.Location[1].Title)

	require.NotEmpty(t, graph.Insights.Frequency)
	assert.Equal(t, "Frequent Starbucks Visits", graph.Insights.Frequency[0].Title)
	assert.Equal(t, "Weekly Grocery Shopping", graph.Insights.Frequency[1].Title)
	assert.Contains(t, graph.Insights.Frequency[1].Description, "$150")

	require.NotEmpty(t, graph.Insights.Preferences)
	assert.Equal(t, "Groceries-Focused", graph.Insights.Preferences[0].Title)
	assert.Equal(t, "Cooking at Home", graph.Insights.Preferences[1].Title)

	total := len(graph.Insights.Location) + len(graph.Insights.Frequency) + len(graph.Insights.Preferences)
	assert.Len(t, graph.Insights.All, total)
}

func TestGenerate_Stats(t *testing.T) {
	graph := NewGenerator(nil).Generate(context.Background(), habitHistory())

	assert.Equal(t, 8, graph.Stats.TotalTransactions)
	assert.Equal(t, 2, graph.Stats.UniqueMerchants)
	// 5 * 5.25 + 140 + 150 + 160
	assert.True(t, graph.Stats.TotalSpent.Equal(decimal.NewFromFloat(476.25)), "got %s", graph.Stats.TotalSpent)
}

func TestGenerate_LLMInsights(t *testing.T) {
	client := &fakeLLM{response: `Here you go:
{
  "location": [{"title": "Starbucks on Nassau Street", "description": "Near Palmer Square"}],
  "frequency": [{"title": "Daily Coffee Routine", "description": "Almost every day"}],
  "preferences": [{"title": "Groceries-Focused Spender", "description": "Cooks at home"}]
}`}

	graph := NewGenerator(client).Generate(context.Background(), habitHistory())

	assert.Equal(t, 1, client.calls)
	require.Len(t, graph.Insights.Location, 1)
	assert.Equal(t, "Starbucks on Nassau Street", graph.Insights.Location[0].Title)
	assert.Len(t, graph.Insights.All, 3)
}

func TestGenerate_LLMErrorFallsBack(t *testing.T) {
	client := &fakeLLM{err: errors.New("rate limited")}

	graph := NewGenerator(client).Generate(context.Background(), habitHistory())

	assert.Equal(t, 1, client.calls)
	require.NotEmpty(t, graph.Insights.Location)
	assert.Equal(t, "Starbucks - Nassau Street/Frist", graph.Insights.Location[0].Title)
}

func TestGenerate_LLMGarbageFallsBack(t *testing.T) {
	client := &fakeLLM{response: "I cannot help with that."}

	graph := NewGenerator(client).Generate(context.Background(), habitHistory())

	require.NotEmpty(t, graph.Insights.Frequency)
	assert.Equal(t, "Frequent Starbucks Visits", graph.Insights.Frequency[0].Title)
}

func TestGenerate_GraphLayout(t *testing.T) {
	graph := NewGenerator(nil).Generate(context.Background(), habitHistory())

	byID := make(map[string]model.Node)
	for _, node := range graph.Nodes {
		byID[node.ID] = node
	}

	require.Contains(t, byID, "piggy")
	assert.Equal(t, model.Position{X: 600, Y: 400}, byID["piggy"].Position)
	assert.Equal(t, model.Position{X: 150, Y: 200}, byID["category_location"].Position)
	assert.Equal(t, model.Position{X: 600, Y: 100}, byID["category_frequency"].Position)
	assert.Equal(t, model.Position{X: 1050, Y: 200}, byID["category_preferences"].Position)

	// Insight rows fan out on a fixed grid.
	assert.Equal(t, model.Position{X: 50, Y: 500}, byID["location_0"].Position)
	assert.Equal(t, model.Position{X: 330, Y: 500}, byID["location_1"].Position)
	assert.Equal(t, model.Position{X: 400, Y: 0}, byID["frequency_0"].Position)
	assert.Equal(t, model.Position{X: 700, Y: 0}, byID["frequency_1"].Position)
	assert.Equal(t, model.Position{X: 900, Y: 500}, byID["preference_0"].Position)

	// One trunk edge per branch plus one edge per insight node.
	assert.Len(t, graph.Edges, 3+len(graph.Insights.All))

	animated := 0
	for _, edge := range graph.Edges {
		if edge.Animated {
			animated++
			assert.Equal(t, 3, edge.Style.StrokeWidth)
		} else {
			assert.Equal(t, 2, edge.Style.StrokeWidth)
		}
	}
	assert.Equal(t, 3, animated)
}
