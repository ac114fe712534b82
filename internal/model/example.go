// Package model defines the domain types shared across the classifier:
// labels, training examples, match outcomes and batch jobs.
package model

import (
	"fmt"
	"strings"
)

// Label is a financial statement category. Exactly two values exist.
type Label string

// The two financial statement categories.
const (
	LabelBalanceSheet  Label = "Balance Sheet"
	LabelProfitAndLoss Label = "Profit & Loss"
)

// Valid reports whether the label is one of the two categories.
func (l Label) Valid() bool {
	return l == LabelBalanceSheet || l == LabelProfitAndLoss
}

// ParseLabel resolves a label string case-insensitively. The short forms BS
// and PL and the spelled-out "profit and loss" are accepted alongside the
// canonical names.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "balance sheet", "bs":
		return LabelBalanceSheet, nil
	case "profit & loss", "profit and loss", "pl", "p&l":
		return LabelProfitAndLoss, nil
	default:
		return "", fmt.Errorf("invalid label: %q", s)
	}
}

// TrainingExample is one labeled line item. Immutable once created; the set
// is replaced wholesale on refresh or appended on add.
type TrainingExample struct {
	// Extra carries source columns beyond text and label, preserved opaquely
	// for round-tripping.
	Extra          map[string]string
	Text           string
	NormalizedText string
	Label          Label
	// RowID is the insertion index, stable for cache keying and tie-breaks.
	RowID int
}
