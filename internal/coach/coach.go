// Package coach turns a user's recent spending and predicted purchases into
// a short, friendly coaching message via the LLM.
package coach

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/llm"
	"github.com/balanceiq/balanceiq/internal/model"
)

// promptDataLimit caps how much serialized history goes into the prompt.
const promptDataLimit = 4000

const systemPrompt = "You are a friendly financial coach for a budgeting app with a cute mascot. " +
	"The mascot gets happier when the user saves money or stays on track, and sadder when " +
	"they overspend. You must be supportive, non-judgmental, and very concise."

// unconfiguredMessage keeps the endpoint usable when no LLM key is set.
const unconfiguredMessage = "Hi! Your AI coach is not fully configured yet on the server. " +
	"Set the LLM API key in the backend config so I can generate smarter, personalized coaching messages."

// TransactionSummary is the compact transaction shape fed to the LLM and
// echoed back to the caller.
type TransactionSummary struct {
	Item      string          `json:"item"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Timestamp string          `json:"timestamp"`
}

// Result is the coach response: the message plus the raw data that drove it.
type Result struct {
	Message            string               `json:"message"`
	Predictions        []model.Prediction   `json:"predictions"`
	RecentTransactions []TransactionSummary `json:"recent_transactions"`
}

// Coach generates coaching messages. The LLM client is optional; without
// one every call returns a fixed not-configured message.
type Coach struct {
	llm    llm.Client
	logger *slog.Logger
}

// New creates a coach. client may be nil.
func New(client llm.Client) *Coach {
	return &Coach{
		llm:    client,
		logger: slog.Default().With("component", "coach"),
	}
}

// Summarize converts purchase items into the compact prompt shape.
func Summarize(items []model.PurchaseItem) []TransactionSummary {
	summaries := make([]TransactionSummary, 0, len(items))
	for _, item := range items {
		name := item.ItemName
		if name == "" {
			name = item.Merchant
		}
		ts := ""
		if !item.Time.IsZero() {
			ts = item.Time.Format("2006-01-02T15:04:05Z07:00")
		}
		summaries = append(summaries, TransactionSummary{
			Item:      name,
			Amount:    item.Price,
			Category:  item.Category,
			Timestamp: ts,
		})
	}
	return summaries
}

// Advise builds the coaching prompt from predictions and recent purchases
// and returns the LLM's message alongside the inputs.
func (c *Coach) Advise(ctx context.Context, predictions []model.Prediction, recent []model.PurchaseItem) Result {
	summaries := Summarize(recent)
	result := Result{
		Message:            unconfiguredMessage,
		Predictions:        predictions,
		RecentTransactions: summaries,
	}

	if c.llm == nil {
		return result
	}

	message, err := c.llm.Complete(ctx, systemPrompt, buildPrompt(summaries, predictions))
	if err != nil {
		c.logger.Warn("coach completion failed", "error", err)
		result.Message = "Your AI coach ran into a problem generating advice. Please try again later."
		return result
	}

	result.Message = message
	return result
}

func buildPrompt(summaries []TransactionSummary, predictions []model.Prediction) string {
	return "Here is this user's recent spending history and predicted upcoming purchases.\n\n" +
		"Recent transactions (JSON):\n" + marshalTruncated(summaries) + "\n\n" +
		"Predicted upcoming purchases (JSON):\n" + marshalTruncated(predictions) + "\n\n" +
		"1. Briefly summarize their spending patterns.\n" +
		"2. Suggest ONE or TWO concrete, realistic actions to save money in the next week.\n" +
		"3. Mention how the mascot will feel (happier/sadder) if they follow or ignore the advice.\n" +
		"Answer in 3 short sentences max."
}

// marshalTruncated serializes v and hard-caps the result so oversized
// histories cannot blow the prompt budget.
func marshalTruncated(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	if len(data) > promptDataLimit {
		data = data[:promptDataLimit]
	}
	return string(data)
}
