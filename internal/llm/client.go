// Package llm provides the hosted LLM client used for coaching messages and
// spending insights.
package llm

import (
	"context"
	"strings"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds LLM provider configuration.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// ExtractJSON returns the first top-level JSON object embedded in content.
// Models wrap JSON in prose or markdown fences often enough that callers
// should never unmarshal the raw completion directly.
func ExtractJSON(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return content[start : end+1], true
}
