package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermap/ledgermap/internal/common"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/service"
)

type stubSource struct {
	err  error
	name string
	rows []service.SourceRow
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Rows(_ context.Context) ([]service.SourceRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func validSource() *stubSource {
	return &stubSource{
		name: "test",
		rows: []service.SourceRow{
			{Text: "Salaries and Wages", Label: "Profit & Loss"},
			{Text: "Cash in Hand", Label: "Balance Sheet"},
			{Text: "Office Rent", Label: "Profit & Loss"},
		},
	}
}

func TestTrainingStoreLoad(t *testing.T) {
	store := NewTrainingStore()
	require.NoError(t, store.Load(context.Background(), validSource()))

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, uint64(1), store.Revision())
	assert.Empty(t, store.Warnings())

	example, ok := store.LookupExact("salaries and wages")
	require.True(t, ok)
	assert.Equal(t, model.LabelProfitAndLoss, example.Label)
	assert.Equal(t, 0, example.RowID)
	assert.Equal(t, "Salaries and Wages", example.Text)
}

func TestTrainingStoreLoadSourceFailure(t *testing.T) {
	store := NewTrainingStore()
	err := store.Load(context.Background(), &stubSource{name: "broken", err: errors.New("no such file")})

	var sourceErr *common.DataSourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, "broken", sourceErr.Source)

	// The store stays untouched on source-level failure.
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, uint64(0), store.Revision())
}

func TestTrainingStoreLoadSkipsMalformedRows(t *testing.T) {
	store := NewTrainingStore()
	source := &stubSource{
		name: "test",
		rows: []service.SourceRow{
			{Text: "Salaries and Wages", Label: "Profit & Loss"},
			{Text: "", Label: "Balance Sheet"},
			{Text: "Mystery Account", Label: "Trial Balance"},
			{Text: "Cash in Hand", Label: "Balance Sheet"},
		},
	}
	require.NoError(t, store.Load(context.Background(), source))

	assert.Equal(t, 2, store.Len())
	warnings := store.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, 1, warnings[0].Row)
	assert.Equal(t, "empty text", warnings[0].Reason)
	assert.Equal(t, 2, warnings[1].Row)
	assert.Equal(t, "Mystery Account", warnings[1].Text)

	// Row IDs are contiguous over the surviving examples.
	examples := store.Examples()
	require.Len(t, examples, 2)
	assert.Equal(t, 0, examples[0].RowID)
	assert.Equal(t, 1, examples[1].RowID)
}

func TestTrainingStoreDuplicateFirstWriterWins(t *testing.T) {
	store := NewTrainingStore()
	source := &stubSource{
		name: "test",
		rows: []service.SourceRow{
			{Text: "Bank Charges", Label: "Profit & Loss"},
			{Text: "bank  charges", Label: "Balance Sheet"},
		},
	}
	require.NoError(t, store.Load(context.Background(), source))

	assert.Equal(t, 2, store.Len())
	example, ok := store.LookupExact("bank charges")
	require.True(t, ok)
	assert.Equal(t, model.LabelProfitAndLoss, example.Label)
	assert.Equal(t, 0, example.RowID)
}

func TestTrainingStoreRefreshReplacesAndBumpsRevision(t *testing.T) {
	store := NewTrainingStore()
	require.NoError(t, store.Load(context.Background(), validSource()))
	require.Equal(t, uint64(1), store.Revision())

	replacement := &stubSource{
		name: "test",
		rows: []service.SourceRow{{Text: "Sundry Creditors", Label: "Balance Sheet"}},
	}
	require.NoError(t, store.Refresh(context.Background(), replacement))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, uint64(2), store.Revision())

	_, ok := store.LookupExact("salaries and wages")
	assert.False(t, ok, "old examples must be gone after refresh")
}

func TestTrainingStoreAddExample(t *testing.T) {
	store := NewTrainingStore()
	require.NoError(t, store.Load(context.Background(), validSource()))

	example, err := store.AddExample("Director Remuneration", model.LabelProfitAndLoss)
	require.NoError(t, err)
	assert.Equal(t, 3, example.RowID)
	assert.Equal(t, "director remuneration", example.NormalizedText)
	assert.Equal(t, uint64(2), store.Revision())

	found, ok := store.LookupExact("director remuneration")
	require.True(t, ok)
	assert.Equal(t, model.LabelProfitAndLoss, found.Label)
}

func TestTrainingStoreAddExampleValidation(t *testing.T) {
	store := NewTrainingStore()

	_, err := store.AddExample("   ", model.LabelBalanceSheet)
	assert.Error(t, err)

	_, err = store.AddExample("Something", model.Label("Cash Flow"))
	assert.Error(t, err)

	assert.Equal(t, uint64(0), store.Revision(), "failed adds must not bump the revision")
}

func TestTrainingStoreSearch(t *testing.T) {
	store := NewTrainingStore()
	require.NoError(t, store.Load(context.Background(), validSource()))

	matches := store.Search("CASH")
	require.Len(t, matches, 1)
	assert.Equal(t, "Cash in Hand", matches[0].Text)

	assert.Empty(t, store.Search("inventory"))
	assert.Equal(t, uint64(1), store.Revision(), "search must be side-effect free")
}

func TestTrainingStoreExamplesIsSnapshot(t *testing.T) {
	store := NewTrainingStore()
	require.NoError(t, store.Load(context.Background(), validSource()))

	examples := store.Examples()
	examples[0].Text = "mutated"

	fresh := store.Examples()
	assert.Equal(t, "Salaries and Wages", fresh[0].Text)
}
