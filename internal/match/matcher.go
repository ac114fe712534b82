// Package match implements the cascade's matching strategies. Each strategy
// is a uniform Matcher; the orchestrator iterates them in fixed order and
// stops at the first one that passes its threshold.
package match

import (
	"context"

	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/storage"
)

// Matcher is one strategy in the cascade. Attempt never fails: a strategy
// that cannot run reports an outcome with Attempted=true and no score.
type Matcher interface {
	// Method identifies the strategy in trails and results.
	Method() model.Method
	// Attempt scores the already-normalized query against the store.
	Attempt(ctx context.Context, query model.Query, store *storage.TrainingStore) model.MatchOutcome
}

// scoreFunc computes a similarity for one example, or reports that no score
// could be produced for it.
type scoreFunc func(example model.TrainingExample) (float64, bool)

// bestExample scans the examples in insertion order and returns the index of
// the highest-scoring one. The strictly-greater comparison makes ties
// resolve to the smallest insertion index, the deterministic rule shared by
// every scanning strategy.
func bestExample(examples []model.TrainingExample, score scoreFunc) (int, float64, bool) {
	bestIdx := -1
	bestScore := 0.0
	for i, example := range examples {
		s, ok := score(example)
		if !ok {
			continue
		}
		if bestIdx < 0 || s > bestScore {
			bestIdx = i
			bestScore = s
		}
	}
	return bestIdx, bestScore, bestIdx >= 0
}
