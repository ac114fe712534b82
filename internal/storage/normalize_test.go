package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases",
			input: "Salaries and Wages",
			want:  "salaries and wages",
		},
		{
			name:  "trims surrounding whitespace",
			input: "  Cash in Hand  ",
			want:  "cash in hand",
		},
		{
			name:  "collapses internal whitespace",
			input: "Office  \t Rent",
			want:  "office rent",
		},
		{
			name:  "strips trailing punctuation",
			input: "Sundry Debtors.",
			want:  "sundry debtors",
		},
		{
			name:  "strips stacked trailing punctuation",
			input: "Interest Payable?!",
			want:  "interest payable",
		},
		{
			name:  "keeps internal punctuation",
			input: "Profit & Loss b/f",
			want:  "profit & loss b/f",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "punctuation only",
			input: "...",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Salaries and Wages", "  Office  Rent. ", "GST Payable"}
	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "normalizing twice must not change %q", input)
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"office", "rent"}, Tokens("office rent"))
	assert.Equal(t, []string{"rent"}, Tokens("rent"))
	assert.Nil(t, Tokens(""))
}
