package match

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/storage"
)

// DefaultFuzzyThreshold is the minimum token-sort ratio for a fuzzy pass.
const DefaultFuzzyThreshold = 0.85

// FuzzyMatcher scores string similarity with a token-order-insensitive
// ratio: both sides are tokenized, sorted and rejoined before computing a
// normalized Levenshtein ratio in [0,1].
type FuzzyMatcher struct {
	threshold float64
}

// NewFuzzyMatcher creates the fuzzy strategy with the given threshold.
func NewFuzzyMatcher(threshold float64) *FuzzyMatcher {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &FuzzyMatcher{threshold: threshold}
}

// Method identifies the strategy.
func (m *FuzzyMatcher) Method() model.Method {
	return model.MethodFuzzy
}

// Attempt scans every example and keeps the best ratio, first-inserted on
// ties. Passes iff the best score meets the threshold.
func (m *FuzzyMatcher) Attempt(_ context.Context, query model.Query, store *storage.TrainingStore) model.MatchOutcome {
	outcome := model.MatchOutcome{Method: model.MethodFuzzy, Attempted: true}

	examples := store.Examples()
	if len(examples) == 0 {
		outcome.Detail = "no training examples"
		return outcome
	}

	sortedQuery := tokenSort(query.Normalized)
	idx, score, ok := bestExample(examples, func(example model.TrainingExample) (float64, bool) {
		return ratio(sortedQuery, tokenSort(example.NormalizedText)), true
	})
	if !ok {
		return outcome
	}

	outcome.Score = score
	outcome.HasScore = true
	outcome.Passed = score >= m.threshold
	outcome.Candidate = examples[idx].Label
	outcome.MatchedRow = &examples[idx]
	return outcome
}

// tokenSort rebuilds a normalized string with its tokens in sorted order,
// making the ratio insensitive to word order.
func tokenSort(normalized string) string {
	tokens := storage.Tokens(normalized)
	if len(tokens) < 2 {
		return normalized
	}
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// ratio converts an edit distance into a similarity in [0,1].
func ratio(a, b string) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}
