// Package llm implements the reasoning-service fallback strategy: provider
// clients, the accounting rule context, response parsing and the cascade
// matcher that ties them together.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledgermap/ledgermap/internal/model"
)

// Request is what the reasoning service receives: the line item, the
// business-domain preset and the governing accounting rules.
type Request struct {
	Text        string
	Domain      model.DomainContext
	RuleContext string
}

// Response is the parsed reasoning-service answer. Label is always one of
// the two valid categories; anything else fails parsing upstream.
type Response struct {
	Label      model.Label
	Rationale  string
	Confidence float64
}

// Client is a reasoning-service provider.
type Client interface {
	Classify(ctx context.Context, request Request) (Response, error)
}

// Config holds configuration for the reasoning-service clients.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewClient creates a provider client from configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
