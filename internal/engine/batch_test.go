package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermap/ledgermap/internal/match"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/storage"
)

// tableMatcher resolves queries from a fixed answer table and counts the
// attempts per text, standing in for the whole cascade.
type tableMatcher struct {
	answers  map[string]model.MatchOutcome
	attempts map[string]int
}

func newTableMatcher() *tableMatcher {
	return &tableMatcher{
		answers:  make(map[string]model.MatchOutcome),
		attempts: make(map[string]int),
	}
}

func (m *tableMatcher) answer(text string, label model.Label, score float64) {
	m.answers[text] = model.MatchOutcome{
		Score:     score,
		HasScore:  true,
		Passed:    true,
		Candidate: label,
	}
}

func (m *tableMatcher) Method() model.Method { return model.MethodExact }

func (m *tableMatcher) Attempt(_ context.Context, query model.Query, _ *storage.TrainingStore) model.MatchOutcome {
	m.attempts[query.Raw]++
	outcome := m.answers[query.Raw]
	outcome.Method = model.MethodExact
	outcome.Attempted = true
	return outcome
}

func testJob(id string, texts ...string) *model.BatchJob {
	requests := make([]model.ClassificationRequest, len(texts))
	for i, text := range texts {
		requests[i] = model.ClassificationRequest{Text: text}
	}
	return &model.BatchJob{ID: id, Requests: requests}
}

func batchFixture() (*tableMatcher, *Engine) {
	matcher := newTableMatcher()
	matcher.answer("Salaries and Wages", model.LabelProfitAndLoss, 1.0)
	matcher.answer("Cash in Hand", model.LabelBalanceSheet, 1.0)
	matcher.answer("Office Rent", model.LabelProfitAndLoss, 0.9)
	matcher.answer("Mystery Item", model.LabelBalanceSheet, 0.5)
	eng := New(storage.NewTrainingStore(), []match.Matcher{matcher}, DefaultReviewThreshold)
	return matcher, eng
}

func TestBatchRunnerProcessesAllItems(t *testing.T) {
	_, eng := batchFixture()
	runner := NewBatchRunner(eng, "", DefaultCheckpointInterval)

	job := testJob("items.csv", "Salaries and Wages", "Cash in Hand", "Mystery Item")
	rows, stats, err := runner.Run(context.Background(), job)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "Salaries and Wages", rows[0].PrimaryGroup)
	assert.Equal(t, "Profit & Loss", rows[0].PredictedFS)
	assert.Equal(t, "Cash in Hand", rows[1].PrimaryGroup)
	assert.Equal(t, "Balance Sheet", rows[1].PredictedFS)
	assert.True(t, rows[2].NeedsReview)

	assert.True(t, job.Done())
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 1, stats.NeedsReview)
	assert.Equal(t, 3, stats.ByMethod[model.MethodExact])
	assert.Positive(t, stats.Duration)
}

func TestBatchRunnerResumesFromCheckpoint(t *testing.T) {
	matcher, eng := batchFixture()
	path := filepath.Join(t.TempDir(), "batch.checkpoint")

	require.NoError(t, WriteCheckpoint(path, Checkpoint{
		JobID:  "items.csv",
		Cursor: 2,
		Results: []OutputRow{
			{PrimaryGroup: "Salaries and Wages", PredictedFS: "Profit & Loss", MethodUsed: "EXACT", Confidence: 1.0},
			{PrimaryGroup: "Cash in Hand", PredictedFS: "Balance Sheet", MethodUsed: "EXACT", Confidence: 1.0},
		},
	}))

	runner := NewBatchRunner(eng, path, DefaultCheckpointInterval)
	job := testJob("items.csv", "Salaries and Wages", "Cash in Hand", "Office Rent", "Mystery Item")

	rows, stats, err := runner.Run(context.Background(), job)
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, "Office Rent", rows[2].PrimaryGroup)
	assert.Equal(t, "Mystery Item", rows[3].PrimaryGroup)

	// Already-checkpointed items are never reclassified.
	assert.Equal(t, 0, matcher.attempts["Salaries and Wages"])
	assert.Equal(t, 0, matcher.attempts["Cash in Hand"])
	assert.Equal(t, 1, matcher.attempts["Office Rent"])

	// Stats cover the whole job, resumed rows included.
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 1, stats.NeedsReview)
}

func TestBatchRunnerRejectsForeignCheckpoint(t *testing.T) {
	_, eng := batchFixture()
	path := filepath.Join(t.TempDir(), "batch.checkpoint")

	require.NoError(t, WriteCheckpoint(path, Checkpoint{JobID: "other.csv", Cursor: 0, Results: nil}))

	runner := NewBatchRunner(eng, path, DefaultCheckpointInterval)
	_, _, err := runner.Run(context.Background(), testJob("items.csv", "Cash in Hand"))

	var corruptErr *CheckpointCorruptionError
	require.ErrorAs(t, err, &corruptErr)
	assert.Contains(t, corruptErr.Reason, "other.csv")
}

func TestBatchRunnerRejectsOversizedCursor(t *testing.T) {
	_, eng := batchFixture()
	path := filepath.Join(t.TempDir(), "batch.checkpoint")

	require.NoError(t, WriteCheckpoint(path, Checkpoint{
		JobID:  "items.csv",
		Cursor: 2,
		Results: []OutputRow{
			{PrimaryGroup: "a"},
			{PrimaryGroup: "b"},
		},
	}))

	runner := NewBatchRunner(eng, path, DefaultCheckpointInterval)
	_, _, err := runner.Run(context.Background(), testJob("items.csv", "Cash in Hand"))

	var corruptErr *CheckpointCorruptionError
	require.ErrorAs(t, err, &corruptErr)
	assert.Contains(t, corruptErr.Reason, "beyond job size")
}

func TestBatchRunnerCancellationPersistsProgress(t *testing.T) {
	_, eng := batchFixture()
	path := filepath.Join(t.TempDir(), "batch.checkpoint")

	ctx, cancel := context.WithCancel(context.Background())
	runner := NewBatchRunner(eng, path, DefaultCheckpointInterval)
	runner.OnResult = func(index int, _ model.ClassificationResult) {
		if index == 0 {
			cancel()
		}
	}

	job := testJob("items.csv", "Salaries and Wages", "Cash in Hand", "Office Rent")
	rows, _, err := runner.Run(ctx, job)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, rows, 1)

	checkpoint, readErr := ReadCheckpoint(path)
	require.NoError(t, readErr)
	require.NotNil(t, checkpoint)
	assert.Equal(t, 1, checkpoint.Cursor)
	require.Len(t, checkpoint.Results, 1)
	assert.Equal(t, "Salaries and Wages", checkpoint.Results[0].PrimaryGroup)

	// A fresh run picks up where the cancelled one stopped.
	resumed := NewBatchRunner(eng, path, DefaultCheckpointInterval)
	finalRows, stats, err := resumed.Run(context.Background(), testJob("items.csv", "Salaries and Wages", "Cash in Hand", "Office Rent"))
	require.NoError(t, err)
	assert.Len(t, finalRows, 3)
	assert.Equal(t, 3, stats.Processed)
}

func TestBatchRunnerCheckpointsAtInterval(t *testing.T) {
	_, eng := batchFixture()
	path := filepath.Join(t.TempDir(), "batch.checkpoint")

	runner := NewBatchRunner(eng, path, 2)
	var cursorDuringRun int
	runner.OnResult = func(index int, _ model.ClassificationResult) {
		if index == 2 {
			// Two items were completed before this one, so an interval
			// checkpoint must already be on disk.
			checkpoint, err := ReadCheckpoint(path)
			require.NoError(t, err)
			require.NotNil(t, checkpoint)
			cursorDuringRun = checkpoint.Cursor
		}
	}

	job := testJob("items.csv", "Salaries and Wages", "Cash in Hand", "Office Rent", "Mystery Item")
	_, _, err := runner.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, 2, cursorDuringRun)

	final, err := ReadCheckpoint(path)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, 4, final.Cursor, "a final checkpoint always lands at job completion")
}

func TestOutputRowCSVRecordMatchesHeader(t *testing.T) {
	result := model.ClassificationResult{
		Label:       model.LabelProfitAndLoss,
		Confidence:  0.9375,
		Method:      model.MethodFuzzy,
		MatchedRow:  &model.TrainingExample{Text: "office rent"},
		NeedsReview: false,
	}
	row := NewOutputRow("Office Rent", result)

	record := row.CSVRecord()
	require.Len(t, record, len(CSVHeader()))
	assert.Equal(t, "Office Rent", record[0])
	assert.Equal(t, "Profit & Loss", record[1])
	assert.Equal(t, "0.9375", record[2])
	assert.Equal(t, "FUZZY", record[3])
	assert.Equal(t, "office rent", record[4])
	assert.Equal(t, "false", record[5])
	assert.Empty(t, record[6])
}

func TestNewOutputRowRendersAlternative(t *testing.T) {
	result := model.ClassificationResult{
		Label:       model.LabelBalanceSheet,
		Confidence:  0.55,
		Method:      model.MethodEmbedding,
		NeedsReview: true,
		Alternative: &model.Candidate{
			Label:  model.LabelProfitAndLoss,
			Method: model.MethodFuzzy,
			Score:  0.5,
		},
	}
	row := NewOutputRow("Mystery Item", result)

	assert.True(t, row.NeedsReview)
	assert.Equal(t, "Profit & Loss (FUZZY 0.50)", row.Alternative)
}
