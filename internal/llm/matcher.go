package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ledgermap/ledgermap/internal/common"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/service"
	"github.com/ledgermap/ledgermap/internal/storage"
)

// Stats reports reasoning-service usage for cost accounting.
type Stats struct {
	Calls     int64
	CacheSize int
}

// Matcher is the cascade's last-resort strategy. It sends the query with
// the accounting rule context to a reasoning service, retries transient
// failures with backoff, and treats malformed responses as "did not pass"
// rather than propagating them.
type Matcher struct {
	client    Client
	cache     *responseCache
	retryOpts service.RetryOptions
	calls     atomic.Int64
}

// NewMatcher creates the LLM fallback strategy.
func NewMatcher(client Client, cfg Config) *Matcher {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Matcher{
		client:    client,
		cache:     newResponseCache(cfg.CacheTTL),
		retryOpts: retryOpts,
	}
}

// Method identifies the strategy.
func (m *Matcher) Method() model.Method {
	return model.MethodLLM
}

// Attempt asks the reasoning service to classify the query. A valid parse is
// a pass regardless of confidence; the review threshold is the
// orchestrator's concern.
func (m *Matcher) Attempt(ctx context.Context, query model.Query, _ *storage.TrainingStore) model.MatchOutcome {
	outcome := model.MatchOutcome{Method: model.MethodLLM, Attempted: true}

	if m.client == nil {
		outcome.Detail = "no reasoning service configured"
		return outcome
	}

	cacheKey := query.Normalized + "|" + string(query.Domain)
	if cached, found := m.cache.get(cacheKey); found {
		slog.Debug("LLM cache hit", "query", query.Normalized)
		return m.fill(outcome, cached)
	}

	request := Request{
		Text:        query.Raw,
		Domain:      query.Domain,
		RuleContext: RuleContext(query.Domain),
	}

	var response Response
	err := common.WithRetry(ctx, func() error {
		// Counted before the call: cost accrues for failed invocations too.
		m.calls.Add(1)

		resp, callErr := m.client.Classify(ctx, request)
		if callErr != nil {
			var invalidErr *InvalidResponseError
			if errors.As(callErr, &invalidErr) {
				// Protocol violation, retrying won't help.
				return &common.RetryableError{Err: callErr, Retryable: false}
			}
			slog.Warn("LLM classification attempt failed",
				"query", query.Normalized,
				"error", callErr)
			return &common.RetryableError{Err: callErr, Retryable: true}
		}

		response = resp
		return nil
	}, m.retryOpts)

	if err != nil {
		var invalidErr *InvalidResponseError
		if errors.As(err, &invalidErr) {
			outcome.Detail = invalidErr.Error()
			return outcome
		}
		// Transient failures exhausted their retries; the strategy
		// degrades to "could not run".
		outcome.Detail = fmt.Sprintf("reasoning service unavailable: %v", err)
		slog.Warn("LLM strategy degraded", "query", query.Normalized, "error", err)
		return outcome
	}

	m.cache.set(cacheKey, response)

	slog.Info("LLM classification",
		"query", query.Normalized,
		"label", response.Label,
		"confidence", response.Confidence)

	return m.fill(outcome, response)
}

func (m *Matcher) fill(outcome model.MatchOutcome, response Response) model.MatchOutcome {
	outcome.Score = response.Confidence
	outcome.HasScore = true
	outcome.Passed = true
	outcome.Candidate = response.Label
	outcome.Detail = response.Rationale
	return outcome
}

// Stats returns usage counters for the current session.
func (m *Matcher) Stats() Stats {
	return Stats{
		Calls:     m.calls.Load(),
		CacheSize: m.cache.size(),
	}
}

// Close releases cache resources.
func (m *Matcher) Close() error {
	m.cache.Close()
	return nil
}
