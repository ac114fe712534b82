package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ledgermap/ledgermap/internal/common"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/service"
)

// TrainingStore holds the labeled examples and their derived indexes.
//
// Insertion order is significant: every matcher breaks score ties by the
// smallest insertion index. The revision counter strictly increases on any
// mutation (load, refresh, add); derived caches such as the embedding index
// are valid only for the revision they were computed under.
//
// Single-writer discipline: Load/Refresh/AddExample must not run concurrently
// with an in-flight batch. Reads are safe under the internal RWMutex.
type TrainingStore struct {
	exact    map[string]int
	examples []model.TrainingExample
	warnings []common.RowWarning
	revision uint64
	mu       sync.RWMutex
}

// NewTrainingStore returns an empty store at revision 0.
func NewTrainingStore() *TrainingStore {
	return &TrainingStore{exact: make(map[string]int)}
}

// Load replaces the entire example set from the source. A source-level
// failure returns a DataSourceError and leaves the store untouched.
// Malformed rows (empty text, label outside the two-value enum) are skipped
// with a recorded warning, never fatally.
func (s *TrainingStore) Load(ctx context.Context, source service.TrainingSource) error {
	rows, err := source.Rows(ctx)
	if err != nil {
		return common.NewDataSourceError(source.Name(), err)
	}

	examples := make([]model.TrainingExample, 0, len(rows))
	exact := make(map[string]int, len(rows))
	var warnings []common.RowWarning

	for i, row := range rows {
		text := strings.TrimSpace(row.Text)
		if text == "" {
			warnings = append(warnings, common.RowWarning{Row: i, Reason: "empty text"})
			continue
		}

		label, parseErr := model.ParseLabel(strings.TrimSpace(row.Label))
		if parseErr != nil {
			warnings = append(warnings, common.RowWarning{
				Row:    i,
				Text:   text,
				Reason: parseErr.Error(),
			})
			continue
		}

		example := model.TrainingExample{
			RowID:          len(examples),
			Text:           text,
			NormalizedText: Normalize(text),
			Label:          label,
			Extra:          row.Extra,
		}

		// First writer wins on duplicate normalized text.
		if _, exists := exact[example.NormalizedText]; !exists {
			exact[example.NormalizedText] = example.RowID
		}
		examples = append(examples, example)
	}

	for _, w := range warnings {
		slog.Warn("Skipped malformed training row",
			"source", source.Name(),
			"row", w.Row,
			"reason", w.Reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.examples = examples
	s.exact = exact
	s.warnings = warnings
	s.revision++

	slog.Info("Training data loaded",
		"source", source.Name(),
		"examples", len(examples),
		"skipped", len(warnings),
		"revision", s.revision)

	return nil
}

// Refresh re-loads from the source. The revision bump invalidates every
// derived cache.
func (s *TrainingStore) Refresh(ctx context.Context, source service.TrainingSource) error {
	return s.Load(ctx, source)
}

// AddExample appends one example, updates the exact index incrementally and
// bumps the revision.
func (s *TrainingStore) AddExample(text string, label model.Label) (model.TrainingExample, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.TrainingExample{}, fmt.Errorf("example text must not be empty")
	}
	if !label.Valid() {
		return model.TrainingExample{}, fmt.Errorf("invalid label: %q", label)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	example := model.TrainingExample{
		RowID:          len(s.examples),
		Text:           text,
		NormalizedText: Normalize(text),
		Label:          label,
	}

	if _, exists := s.exact[example.NormalizedText]; !exists {
		s.exact[example.NormalizedText] = example.RowID
	}
	s.examples = append(s.examples, example)
	s.revision++

	return example, nil
}

// LookupExact resolves a normalized query against the exact index.
func (s *TrainingStore) LookupExact(normalized string) (*model.TrainingExample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.exact[normalized]
	if !ok {
		return nil, false
	}
	example := s.examples[idx]
	return &example, true
}

// Examples returns the examples in insertion order. The slice is a snapshot;
// callers may iterate it freely.
func (s *TrainingStore) Examples() []model.TrainingExample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TrainingExample, len(s.examples))
	copy(out, s.examples)
	return out
}

// Search returns examples whose raw or normalized text contains the
// substring (case-insensitive). Read-only, no side effects.
func (s *TrainingStore) Search(substring string) []model.TrainingExample {
	needle := strings.ToLower(strings.TrimSpace(substring))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.TrainingExample
	for _, example := range s.examples {
		if strings.Contains(strings.ToLower(example.Text), needle) ||
			strings.Contains(example.NormalizedText, needle) {
			out = append(out, example)
		}
	}
	return out
}

// Len returns the number of examples.
func (s *TrainingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.examples)
}

// Revision returns the current store revision. Strictly increasing on
// mutation; 0 means nothing was ever loaded.
func (s *TrainingStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Warnings returns the row warnings recorded by the most recent load.
func (s *TrainingStore) Warnings() []common.RowWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.RowWarning, len(s.warnings))
	copy(out, s.warnings)
	return out
}
