// Package engine implements the cascade orchestrator and the resumable
// batch runner.
package engine

import (
	"context"
	"log/slog"

	"github.com/ledgermap/ledgermap/internal/match"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/storage"
)

// DefaultReviewThreshold flags results whose final confidence falls below it.
const DefaultReviewThreshold = 0.70

// Engine runs the matching cascade for single line items. Strategies are
// attempted strictly in the order given; the first one to pass its threshold
// wins. Adding, removing or reordering strategies never touches the loop.
type Engine struct {
	store           *storage.TrainingStore
	matchers        []match.Matcher
	reviewThreshold float64
}

// New creates a cascade engine over the given store and ordered strategies.
func New(store *storage.TrainingStore, matchers []match.Matcher, reviewThreshold float64) *Engine {
	if reviewThreshold <= 0 {
		reviewThreshold = DefaultReviewThreshold
	}
	return &Engine{
		store:           store,
		matchers:        matchers,
		reviewThreshold: reviewThreshold,
	}
}

// Classify normalizes the request once, walks the cascade and returns the
// result with its full decision trail. It never fails: strategy-level
// problems degrade inside their MatchOutcome.
func (e *Engine) Classify(ctx context.Context, request model.ClassificationRequest) model.ClassificationResult {
	domain := request.Domain
	if domain == "" {
		domain = model.DomainGeneral
	}

	query := model.Query{
		Raw:        request.Text,
		Normalized: storage.Normalize(request.Text),
		Domain:     domain,
	}

	trail := make([]model.MatchOutcome, 0, len(e.matchers))

	for _, matcher := range e.matchers {
		outcome := matcher.Attempt(ctx, query, e.store)
		trail = append(trail, outcome)

		if outcome.Passed {
			result := e.resolved(outcome, trail)
			slog.Debug("Classification resolved",
				"text", request.Text,
				"label", result.Label,
				"method", result.Method,
				"confidence", result.Confidence,
				"attempts", len(trail))
			return result
		}
	}

	result := e.unresolved(trail)
	slog.Debug("Classification unresolved",
		"text", request.Text,
		"label", result.Label,
		"method", result.Method,
		"confidence", result.Confidence)
	return result
}

// ReviewThreshold returns the configured review threshold.
func (e *Engine) ReviewThreshold() float64 {
	return e.reviewThreshold
}

func (e *Engine) resolved(winner model.MatchOutcome, trail []model.MatchOutcome) model.ClassificationResult {
	result := model.ClassificationResult{
		Label:       winner.Candidate,
		Confidence:  winner.Score,
		Method:      winner.Method,
		MatchedRow:  winner.MatchedRow,
		Resolved:    true,
		Trail:       trail,
		NeedsReview: winner.Score < e.reviewThreshold,
	}
	if result.NeedsReview {
		result.Alternative = bestCandidate(trail, len(trail)-1)
	}
	return result
}

func (e *Engine) unresolved(trail []model.MatchOutcome) model.ClassificationResult {
	result := model.ClassificationResult{
		// Nothing produced a comparable score: fall back to the more common
		// category with zero confidence, which is always flagged for review.
		Label: model.LabelProfitAndLoss,
		Trail: trail,
	}

	bestIdx := bestOutcomeIndex(trail, -1)
	if bestIdx >= 0 {
		best := trail[bestIdx]
		result.Label = best.Candidate
		result.Confidence = best.Score
		result.Method = best.Method
		result.MatchedRow = best.MatchedRow
		result.Alternative = bestCandidate(trail, bestIdx)
	}

	result.NeedsReview = result.Confidence < e.reviewThreshold
	return result
}

// bestOutcomeIndex finds the highest-scoring candidate-bearing outcome,
// excluding the given index. Ties resolve to the earlier strategy.
func bestOutcomeIndex(trail []model.MatchOutcome, exclude int) int {
	bestIdx := -1
	bestScore := 0.0
	for i, outcome := range trail {
		if i == exclude || !outcome.HasScore || outcome.Candidate == "" {
			continue
		}
		if bestIdx < 0 || outcome.Score > bestScore {
			bestIdx = i
			bestScore = outcome.Score
		}
	}
	return bestIdx
}

func bestCandidate(trail []model.MatchOutcome, exclude int) *model.Candidate {
	idx := bestOutcomeIndex(trail, exclude)
	if idx < 0 {
		return nil
	}
	outcome := trail[idx]
	return &model.Candidate{
		Label:      outcome.Candidate,
		Score:      outcome.Score,
		Method:     outcome.Method,
		MatchedRow: outcome.MatchedRow,
	}
}
