// Package service defines cross-cutting contracts shared by the storage,
// matching, and engine layers.
package service

import (
	"context"
	"time"

	"github.com/ledgermap/ledgermap/internal/model"
)

// SourceRow is one raw training row before validation. Extra preserves any
// additional source columns opaquely for round-tripping.
type SourceRow struct {
	Extra map[string]string
	Text  string
	Label string
}

// TrainingSource supplies raw rows to the training store. Implementations
// cover CSV files and SQLite staging tables; the store owns validation.
type TrainingSource interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Rows reads every row. A source-level failure (missing file, bad
	// connection) is fatal to the load; row-level validation happens later.
	Rows(ctx context.Context) ([]SourceRow, error)
}

// RetryOptions configures retry behavior for transient failures.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// BatchStats aggregates the outcome of a batch run: counts per method and
// per needs-review state. Created per run and discarded with it; never
// process-wide state.
type BatchStats struct {
	ByMethod    map[model.Method]int
	Processed   int
	NeedsReview int
	Duration    time.Duration
}

// NewBatchStats returns an empty stats accumulator.
func NewBatchStats() BatchStats {
	return BatchStats{ByMethod: make(map[model.Method]int)}
}

// Record folds one classification outcome into the aggregate counts.
func (s *BatchStats) Record(method model.Method, needsReview bool) {
	s.Processed++
	s.ByMethod[method]++
	if needsReview {
		s.NeedsReview++
	}
}
