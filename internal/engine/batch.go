package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/service"
)

// DefaultCheckpointInterval is the number of items between checkpoint writes.
const DefaultCheckpointInterval = 10

// OutputRow is one line of the batch output schema, also the durable shape
// of a result inside a checkpoint.
type OutputRow struct {
	PrimaryGroup string  `json:"primary_group"`
	PredictedFS  string  `json:"predicted_fs"`
	MethodUsed   string  `json:"method_used"`
	MatchedRow   string  `json:"matched_training_row"`
	Alternative  string  `json:"low_confidence_alternative"`
	Confidence   float64 `json:"confidence"`
	NeedsReview  bool    `json:"needs_review"`
}

// NewOutputRow flattens a classification result into the output schema.
func NewOutputRow(text string, result model.ClassificationResult) OutputRow {
	row := OutputRow{
		PrimaryGroup: text,
		PredictedFS:  string(result.Label),
		Confidence:   result.Confidence,
		MethodUsed:   string(result.Method),
		NeedsReview:  result.NeedsReview,
	}
	if result.MatchedRow != nil {
		row.MatchedRow = result.MatchedRow.Text
	}
	if result.Alternative != nil {
		row.Alternative = fmt.Sprintf("%s (%s %.2f)",
			result.Alternative.Label, result.Alternative.Method, result.Alternative.Score)
	}
	return row
}

// CSVHeader returns the batch output column names, in order.
func CSVHeader() []string {
	return []string{
		"primary_group", "predicted_fs", "confidence", "method_used",
		"matched_training_row", "needs_review", "low_confidence_alternative",
	}
}

// CSVRecord renders the row for the batch output file.
func (r OutputRow) CSVRecord() []string {
	return []string{
		r.PrimaryGroup,
		r.PredictedFS,
		strconv.FormatFloat(r.Confidence, 'f', 4, 64),
		r.MethodUsed,
		r.MatchedRow,
		strconv.FormatBool(r.NeedsReview),
		r.Alternative,
	}
}

// BatchRunner drives the cascade over a whole job with checkpointed,
// resumable progress. Cancellation is cooperative: the context is checked
// between items, never mid-item.
type BatchRunner struct {
	engine         *Engine
	checkpointPath string
	// OnResult, when set, observes each freshly classified item. Used by the
	// CLI for progress display.
	OnResult func(index int, result model.ClassificationResult)
	interval int
}

// NewBatchRunner creates a runner. An empty checkpointPath disables
// persistence (and with it resume).
func NewBatchRunner(engine *Engine, checkpointPath string, interval int) *BatchRunner {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	return &BatchRunner{
		engine:         engine,
		checkpointPath: checkpointPath,
		interval:       interval,
	}
}

// Run processes the job from its cursor and returns the complete ordered
// output rows plus aggregate stats. If a checkpoint exists for the same job
// identity the runner resumes from its cursor instead of index 0; a
// checkpoint for a different job, or an internally inconsistent one, fails
// fast with a CheckpointCorruptionError.
func (r *BatchRunner) Run(ctx context.Context, job *model.BatchJob) ([]OutputRow, service.BatchStats, error) {
	start := time.Now()
	stats := service.NewBatchStats()

	rows, err := r.resume(job)
	if err != nil {
		return nil, stats, err
	}

	if job.Cursor > 0 {
		slog.Info("Resuming batch from checkpoint",
			"job_id", job.ID,
			"cursor", job.Cursor,
			"total", len(job.Requests))
	}

	sinceSave := 0
	for job.Cursor < len(job.Requests) {
		select {
		case <-ctx.Done():
			// Persist progress before surfacing the cancellation so the
			// next run continues where this one stopped.
			if saveErr := r.save(job, rows); saveErr != nil {
				slog.Error("Failed to save checkpoint on cancellation", "error", saveErr)
			}
			r.finish(&stats, rows, start)
			return rows, stats, ctx.Err()
		default:
		}

		request := job.Requests[job.Cursor]
		result := r.engine.Classify(ctx, request)

		rows = append(rows, NewOutputRow(request.Text, result))
		job.Results = append(job.Results, result)
		job.Cursor++
		sinceSave++

		if r.OnResult != nil {
			r.OnResult(job.Cursor-1, result)
		}

		if sinceSave >= r.interval {
			if saveErr := r.save(job, rows); saveErr != nil {
				return rows, stats, saveErr
			}
			sinceSave = 0
		}
	}

	if err := r.save(job, rows); err != nil {
		return rows, stats, err
	}

	r.finish(&stats, rows, start)

	slog.Info("Batch complete",
		"job_id", job.ID,
		"processed", stats.Processed,
		"needs_review", stats.NeedsReview,
		"duration", stats.Duration)

	return rows, stats, nil
}

// resume loads an existing checkpoint and fast-forwards the job to it.
func (r *BatchRunner) resume(job *model.BatchJob) ([]OutputRow, error) {
	if r.checkpointPath == "" {
		return nil, nil
	}

	checkpoint, err := ReadCheckpoint(r.checkpointPath)
	if err != nil {
		return nil, err
	}
	if checkpoint == nil {
		return nil, nil
	}

	if checkpoint.JobID != job.ID {
		return nil, &CheckpointCorruptionError{
			Path:   r.checkpointPath,
			Reason: fmt.Sprintf("checkpoint belongs to job %q, not %q", checkpoint.JobID, job.ID),
		}
	}
	if checkpoint.Cursor > len(job.Requests) {
		return nil, &CheckpointCorruptionError{
			Path:   r.checkpointPath,
			Reason: fmt.Sprintf("cursor %d beyond job size %d", checkpoint.Cursor, len(job.Requests)),
		}
	}

	job.Cursor = checkpoint.Cursor
	return checkpoint.Results, nil
}

func (r *BatchRunner) save(job *model.BatchJob, rows []OutputRow) error {
	if r.checkpointPath == "" {
		return nil
	}
	return WriteCheckpoint(r.checkpointPath, Checkpoint{
		JobID:   job.ID,
		Cursor:  job.Cursor,
		Results: rows,
	})
}

func (r *BatchRunner) finish(stats *service.BatchStats, rows []OutputRow, start time.Time) {
	for _, row := range rows {
		stats.Record(model.Method(row.MethodUsed), row.NeedsReview)
	}
	stats.Duration = time.Since(start)
}
