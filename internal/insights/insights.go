// Package insights builds the spending-habits graph: merchant and category
// analysis, narrative insights (LLM-backed with a deterministic rule-based
// fallback), and a fixed-position node layout for the frontend renderer.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/llm"
	"github.com/balanceiq/balanceiq/internal/model"
)

// frequentVisitFloor is the visit count at which a merchant counts as a
// habit rather than a one-off.
const frequentVisitFloor = 4

// largeOrderFloor marks a grocery purchase as a stock-up order.
var largeOrderFloor = decimal.NewFromInt(100)

// Generator builds spending graphs. The LLM client is optional; without one
// the generator always uses rule-based insights.
type Generator struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewGenerator creates a graph generator. client may be nil.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{
		llm:    client,
		logger: slog.Default().With("component", "insights"),
	}
}

type largeOrder struct {
	merchant string
	item     string
	amount   decimal.Decimal
}

// summary is the aggregate view the insight rules and the LLM prompt share.
type summary struct {
	merchantCounts map[string]int
	merchantOrder  []string
	categoryTotals map[string]decimal.Decimal
	categoryOrder  []string
	largeOrders    []largeOrder
	total          int
}

func summarize(items []model.PurchaseItem) *summary {
	s := &summary{
		merchantCounts: make(map[string]int),
		categoryTotals: make(map[string]decimal.Decimal),
		total:          len(items),
	}
	for _, item := range items {
		merchant := item.Merchant
		if merchant == "" {
			merchant = "Unknown"
		}
		category := item.Category
		if category == "" {
			category = "Other"
		}

		if _, seen := s.merchantCounts[merchant]; !seen {
			s.merchantOrder = append(s.merchantOrder, merchant)
		}
		s.merchantCounts[merchant]++

		if _, seen := s.categoryTotals[category]; !seen {
			s.categoryOrder = append(s.categoryOrder, category)
		}
		s.categoryTotals[category] = s.categoryTotals[category].Add(item.Price)

		if category == "Groceries" && item.Price.GreaterThan(largeOrderFloor) {
			s.largeOrders = append(s.largeOrders, largeOrder{
				merchant: merchant,
				item:     item.ItemName,
				amount:   item.Price,
			})
		}
	}
	return s
}

// frequentMerchants returns merchants with at least frequentVisitFloor
// visits, in first-seen order.
func (s *summary) frequentMerchants() []string {
	var out []string
	for _, merchant := range s.merchantOrder {
		if s.merchantCounts[merchant] >= frequentVisitFloor {
			out = append(out, merchant)
		}
	}
	return out
}

// topMerchant returns the most-visited merchant among candidates. Ties go
// to the earlier-seen merchant.
func (s *summary) topMerchant(candidates []string) (string, int) {
	best, bestCount := "", 0
	for _, merchant := range candidates {
		if s.merchantCounts[merchant] > bestCount {
			best, bestCount = merchant, s.merchantCounts[merchant]
		}
	}
	return best, bestCount
}

// topCategory returns the category with the highest spend. Ties go to the
// earlier-seen category.
func (s *summary) topCategory() (string, decimal.Decimal) {
	best, bestTotal := "", decimal.Zero
	for _, category := range s.categoryOrder {
		if s.categoryTotals[category].GreaterThan(bestTotal) {
			best, bestTotal = category, s.categoryTotals[category]
		}
	}
	return best, bestTotal
}

func (s *summary) avgLargeOrder() decimal.Decimal {
	if len(s.largeOrders) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, order := range s.largeOrders {
		total = total.Add(order.amount)
	}
	return total.Div(decimal.NewFromInt(int64(len(s.largeOrders))))
}

func (s *summary) totalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, category := range s.categoryOrder {
		total = total.Add(s.categoryTotals[category])
	}
	return total
}

// Generate builds the full spending graph for the given purchase history.
// An empty history yields an empty graph.
func (g *Generator) Generate(ctx context.Context, items []model.PurchaseItem) model.Graph {
	if len(items) == 0 {
		return model.Graph{
			Nodes: []model.Node{},
			Edges: []model.Edge{},
			Insights: model.InsightSet{
				Location:    []model.Insight{},
				Frequency:   []model.Insight{},
				Preferences: []model.Insight{},
				All:         []model.Insight{},
			},
		}
	}

	s := summarize(items)

	var set model.InsightSet
	if g.llm == nil {
		set = fallbackInsights(s)
	} else if parsed, err := g.llmInsights(ctx, s); err != nil {
		g.logger.Warn("LLM insight generation failed, using fallback", "error", err)
		set = fallbackInsights(s)
	} else {
		set = parsed
	}
	set.All = append(append(append([]model.Insight{}, set.Location...), set.Frequency...), set.Preferences...)

	return model.Graph{
		Insights: set,
		Nodes:    buildNodes(set),
		Edges:    buildEdges(set),
		Stats: model.GraphStats{
			TotalTransactions: s.total,
			UniqueMerchants:   len(s.merchantCounts),
			TotalSpent:        s.totalSpent().Round(2),
		},
	}
}

func (g *Generator) llmInsights(ctx context.Context, s *summary) (model.InsightSet, error) {
	content, err := g.llm.Complete(ctx, insightSystemPrompt, buildInsightPrompt(s))
	if err != nil {
		return model.InsightSet{}, err
	}

	raw, ok := llm.ExtractJSON(content)
	if !ok {
		return model.InsightSet{}, fmt.Errorf("no JSON object in LLM response")
	}

	var parsed struct {
		Location    []model.Insight `json:"location"`
		Frequency   []model.Insight `json:"frequency"`
		Preferences []model.Insight `json:"preferences"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return model.InsightSet{}, fmt.Errorf("failed to parse LLM insights: %w", err)
	}

	return model.InsightSet{
		Location:    parsed.Location,
		Frequency:   parsed.Frequency,
		Preferences: parsed.Preferences,
	}, nil
}

const insightSystemPrompt = "You are analyzing spending patterns for a Princeton University student/resident. " +
	"Be EXTREMELY specific about Princeton campus locations."

func buildInsightPrompt(s *summary) string {
	var merchants []string
	for _, merchant := range s.frequentMerchants() {
		merchants = append(merchants, fmt.Sprintf("%s (%dx)", merchant, s.merchantCounts[merchant]))
	}

	type categorySpend struct {
		name  string
		total decimal.Decimal
	}
	cats := make([]categorySpend, 0, len(s.categoryOrder))
	for _, category := range s.categoryOrder {
		cats = append(cats, categorySpend{category, s.categoryTotals[category]})
	}
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].total.GreaterThan(cats[j].total) })
	if len(cats) > 3 {
		cats = cats[:3]
	}
	var topCategories []string
	for _, c := range cats {
		topCategories = append(topCategories, fmt.Sprintf("%s: $%s", c.name, c.total.StringFixed(0)))
	}

	var b strings.Builder
	b.WriteString("Spending Data:\n")
	fmt.Fprintf(&b, "- %d transactions\n", s.total)
	fmt.Fprintf(&b, "- Frequent merchants: %s\n", strings.Join(merchants, ", "))
	fmt.Fprintf(&b, "- Top categories: %s\n", strings.Join(topCategories, ", "))
	fmt.Fprintf(&b, "- Average grocery order: $%s\n", s.avgLargeOrder().StringFixed(0))
	b.WriteString(`
Generate insights in THREE categories. For each category, provide 2-3 specific insights in exact JSON format:

{
  "location": [{"title": "...", "description": "..."}],
  "frequency": [{"title": "...", "description": "..."}],
  "preferences": [{"title": "...", "description": "..."}]
}

CRITICAL REQUIREMENTS:
- For locations: Be SPECIFIC to Princeton University campus (Nassau Street, Palmer Square, Frist Center, Prospect Avenue, etc.)
- For frequency: Analyze patterns (daily, weekly, situational)
- For preferences: Infer lifestyle choices (cooking vs dining hall, convenience vs cost)
- NO emojis anywhere
- Be precise and actionable`)
	return b.String()
}

// fallbackInsights produces deterministic insights when the LLM is
// unavailable or returns something unparseable.
func fallbackInsights(s *summary) model.InsightSet {
	var set model.InsightSet
	frequent := s.frequentMerchants()

	if count, ok := s.merchantCounts["Starbucks"]; ok && count >= frequentVisitFloor {
		set.Location = append(set.Location, model.Insight{
			Title:       "Starbucks - Nassau Street/Frist",
			Description: fmt.Sprintf("%d visits - Likely Palmer Square or Frist Campus Center location", count),
		})
	}
	for _, merchant := range s.merchantOrder {
		if strings.Contains(merchant, "Trader Joe") {
			set.Location = append(set.Location, model.Insight{
				Title:       "Trader Joe's - Nassau Street",
				Description: "Near Princeton Shopping Center on Nassau Street",
			})
			break
		}
	}

	if top, count := s.topMerchant(frequent); top != "" {
		set.Frequency = append(set.Frequency, model.Insight{
			Title:       fmt.Sprintf("Frequent %s Visits", top),
			Description: fmt.Sprintf("%d visits in 30 days - Almost daily routine", count),
		})
	}
	if len(s.largeOrders) >= 2 {
		set.Frequency = append(set.Frequency, model.Insight{
			Title:       "Weekly Grocery Shopping",
			Description: fmt.Sprintf("Large $%s orders suggest weekly meal planning", s.avgLargeOrder().StringFixed(0)),
		})
	}

	if top, total := s.topCategory(); top != "" {
		set.Preferences = append(set.Preferences, model.Insight{
			Title:       fmt.Sprintf("%s-Focused", top),
			Description: fmt.Sprintf("$%s spent indicates strong preference for %s", total.StringFixed(0), strings.ToLower(top)),
		})
	}
	if groceries, ok := s.categoryTotals["Groceries"]; ok && groceries.GreaterThan(decimal.NewFromInt(400)) {
		set.Preferences = append(set.Preferences, model.Insight{
			Title:       "Cooking at Home",
			Description: "High grocery spending suggests cooking rather than dining halls",
		})
	}

	return set
}
