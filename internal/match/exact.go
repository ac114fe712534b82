package match

import (
	"context"

	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/storage"
)

// ExactMatcher resolves the normalized query against the store's exact
// index. Exactness is binary: a hit scores 1.0 and always passes, a miss
// produces no score at all.
type ExactMatcher struct{}

// NewExactMatcher creates the exact-lookup strategy.
func NewExactMatcher() *ExactMatcher {
	return &ExactMatcher{}
}

// Method identifies the strategy.
func (m *ExactMatcher) Method() model.Method {
	return model.MethodExact
}

// Attempt looks the query up in the exact index.
func (m *ExactMatcher) Attempt(_ context.Context, query model.Query, store *storage.TrainingStore) model.MatchOutcome {
	outcome := model.MatchOutcome{Method: model.MethodExact, Attempted: true}

	example, ok := store.LookupExact(query.Normalized)
	if !ok {
		return outcome
	}

	outcome.Score = 1.0
	outcome.HasScore = true
	outcome.Passed = true
	outcome.Candidate = example.Label
	outcome.MatchedRow = example
	return outcome
}
