package model

import "fmt"

// Method identifies which matching strategy produced a result.
type Method string

// Matching strategies, in cascade order.
const (
	MethodExact     Method = "EXACT"
	MethodFuzzy     Method = "FUZZY"
	MethodSemantic  Method = "SEMANTIC"
	MethodEmbedding Method = "EMBEDDING"
	MethodLLM       Method = "LLM"
)

// DomainContext is a business-domain preset. It only affects the LLM
// strategy, which folds domain-specific rules into its prompt.
type DomainContext string

// Recognized business domains.
const (
	DomainGeneral       DomainContext = "General Business"
	DomainSaaS          DomainContext = "SaaS / IT Services"
	DomainManufacturing DomainContext = "Manufacturing"
	DomainRetail        DomainContext = "Retail / E-commerce"
	DomainServices      DomainContext = "Services / Consulting"
)

// ParseDomainContext validates a domain preset name. An empty string maps to
// the general preset.
func ParseDomainContext(s string) (DomainContext, error) {
	if s == "" {
		return DomainGeneral, nil
	}
	switch DomainContext(s) {
	case DomainGeneral, DomainSaaS, DomainManufacturing, DomainRetail, DomainServices:
		return DomainContext(s), nil
	default:
		return "", fmt.Errorf("unknown domain context: %q", s)
	}
}

// ClassificationRequest asks for one line item to be classified.
type ClassificationRequest struct {
	Text   string
	Domain DomainContext
}

// Query is a request after one-time normalization by the orchestrator.
// Matchers never normalize themselves; they all see the same canonical text.
type Query struct {
	Raw        string
	Normalized string
	Domain     DomainContext
}

// MatchOutcome records a single strategy attempt for the decision trail.
type MatchOutcome struct {
	MatchedRow *TrainingExample
	Method     Method
	Candidate  Label
	// Detail carries a short degradation reason when the strategy could not
	// run cleanly (all tokens out of vocabulary, retries exhausted, ...).
	Detail    string
	Score     float64
	HasScore  bool
	Attempted bool
	Passed    bool
}

// Candidate is a non-winning scored label, kept for review context.
type Candidate struct {
	MatchedRow *TrainingExample
	Label      Label
	Method     Method
	Score      float64
}

// ClassificationResult is the outcome of running the full cascade for one
// line item.
type ClassificationResult struct {
	MatchedRow  *TrainingExample
	Alternative *Candidate
	Label       Label
	Method      Method
	Trail       []MatchOutcome
	Confidence  float64
	// Resolved is true when a strategy cleared its threshold; false means
	// the prediction is the best candidate seen across all five strategies.
	Resolved    bool
	NeedsReview bool
}
