package match

import (
	"context"

	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/storage"
)

// DefaultSemanticThreshold is the minimum cosine similarity for a semantic pass.
const DefaultSemanticThreshold = 0.80

// SemanticMatcher compares average-of-word-vector representations of the
// query and every example. Out-of-vocabulary tokens are ignored in the
// average; when all tokens of either side are out of vocabulary the strategy
// reports that it could not run instead of returning a meaningless number.
type SemanticMatcher struct {
	lexicon   *Lexicon
	threshold float64
}

// NewSemanticMatcher creates the lexical-semantic strategy.
func NewSemanticMatcher(lexicon *Lexicon, threshold float64) *SemanticMatcher {
	if threshold <= 0 {
		threshold = DefaultSemanticThreshold
	}
	return &SemanticMatcher{lexicon: lexicon, threshold: threshold}
}

// Method identifies the strategy.
func (m *SemanticMatcher) Method() model.Method {
	return model.MethodSemantic
}

// Attempt scores every example by cosine similarity of averaged word
// vectors, first-inserted on ties.
func (m *SemanticMatcher) Attempt(_ context.Context, query model.Query, store *storage.TrainingStore) model.MatchOutcome {
	outcome := model.MatchOutcome{Method: model.MethodSemantic, Attempted: true}

	if m.lexicon == nil || m.lexicon.Size() == 0 {
		outcome.Detail = "no word vectors available"
		return outcome
	}

	examples := store.Examples()
	if len(examples) == 0 {
		outcome.Detail = "no training examples"
		return outcome
	}

	queryVec, ok := m.lexicon.Average(storage.Tokens(query.Normalized))
	if !ok {
		outcome.Detail = "query has no in-vocabulary tokens"
		return outcome
	}

	comparable := false
	idx, score, found := bestExample(examples, func(example model.TrainingExample) (float64, bool) {
		exampleVec, inVocab := m.lexicon.Average(storage.Tokens(example.NormalizedText))
		if !inVocab {
			return 0, false
		}
		comparable = true
		return cosine(queryVec, exampleVec), true
	})
	if !found {
		if !comparable {
			outcome.Detail = "no example has in-vocabulary tokens"
		}
		return outcome
	}

	outcome.Score = score
	outcome.HasScore = true
	outcome.Passed = score >= m.threshold
	outcome.Candidate = examples[idx].Label
	outcome.MatchedRow = &examples[idx]
	return outcome
}
