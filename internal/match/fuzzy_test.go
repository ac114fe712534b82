package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermap/ledgermap/internal/model"
)

func TestFuzzyMatcherNearMatch(t *testing.T) {
	store := buildStore(t,
		[2]string{"electricity charges", "Profit & Loss"},
		[2]string{"cash in hand", "Balance Sheet"},
	)
	matcher := NewFuzzyMatcher(DefaultFuzzyThreshold)

	// One deletion in nineteen runes: ratio 1 - 1/19 ≈ 0.947.
	outcome := matcher.Attempt(context.Background(), query("electricty charges"), store)

	assert.True(t, outcome.Passed)
	assert.True(t, outcome.HasScore)
	assert.InDelta(t, 1.0-1.0/19.0, outcome.Score, 1e-9)
	assert.Equal(t, model.LabelProfitAndLoss, outcome.Candidate)
	require.NotNil(t, outcome.MatchedRow)
	assert.Equal(t, "electricity charges", outcome.MatchedRow.Text)
}

func TestFuzzyMatcherBelowThreshold(t *testing.T) {
	store := buildStore(t, [2]string{"electricity charges", "Profit & Loss"})
	matcher := NewFuzzyMatcher(DefaultFuzzyThreshold)

	outcome := matcher.Attempt(context.Background(), query("sundry debtors"), store)

	assert.False(t, outcome.Passed)
	assert.True(t, outcome.HasScore, "the best score is reported even when it fails the threshold")
	assert.Less(t, outcome.Score, DefaultFuzzyThreshold)
	assert.NotNil(t, outcome.MatchedRow, "the best candidate is kept for the unresolved fallback")
}

func TestFuzzyMatcherThresholdBoundary(t *testing.T) {
	// Exactly at the threshold passes; just under does not. With a
	// twenty-rune example, three edits give exactly 0.85.
	store := buildStore(t, [2]string{"abcdefghijklmnopqrst", "Balance Sheet"})

	tests := []struct {
		name  string
		query string
		pass  bool
	}{
		{name: "three edits of twenty is exactly 0.85", query: "abcdefghijklmnopq", pass: true},
		{name: "four edits of twenty is 0.80", query: "abcdefghijklmnop", pass: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := NewFuzzyMatcher(0.85)
			outcome := matcher.Attempt(context.Background(), query(tt.query), store)
			assert.Equal(t, tt.pass, outcome.Passed)
		})
	}
}

func TestFuzzyMatcherTokenOrderInsensitive(t *testing.T) {
	store := buildStore(t, [2]string{"rent office", "Profit & Loss"})
	matcher := NewFuzzyMatcher(DefaultFuzzyThreshold)

	outcome := matcher.Attempt(context.Background(), query("office rent"), store)

	assert.True(t, outcome.Passed)
	assert.Equal(t, 1.0, outcome.Score, "token sort makes word order irrelevant")
}

func TestFuzzyMatcherTieBreaksToFirstInserted(t *testing.T) {
	store := buildStore(t,
		[2]string{"bank charges", "Profit & Loss"},
		[2]string{"Bank Charges", "Balance Sheet"},
	)
	matcher := NewFuzzyMatcher(DefaultFuzzyThreshold)

	outcome := matcher.Attempt(context.Background(), query("bank charges"), store)

	require.NotNil(t, outcome.MatchedRow)
	assert.Equal(t, 0, outcome.MatchedRow.RowID)
	assert.Equal(t, model.LabelProfitAndLoss, outcome.Candidate)
}

func TestFuzzyMatcherEmptyStore(t *testing.T) {
	store := buildStore(t)
	matcher := NewFuzzyMatcher(DefaultFuzzyThreshold)

	outcome := matcher.Attempt(context.Background(), query("anything"), store)

	assert.True(t, outcome.Attempted)
	assert.False(t, outcome.Passed)
	assert.False(t, outcome.HasScore)
	assert.Equal(t, "no training examples", outcome.Detail)
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "rent", b: "rent", want: 1.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "one empty", a: "", b: "ab", want: 0.0},
		{name: "one edit of four", a: "rent", b: "rant", want: 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ratio(tt.a, tt.b), 1e-9)
		})
	}
}
