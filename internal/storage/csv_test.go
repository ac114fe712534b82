package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "training.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCSVSourceRows(t *testing.T) {
	path := writeCSV(t, "primary_group,fs,notes\n"+
		"Salaries and Wages,Profit & Loss,payroll\n"+
		"Cash in Hand,Balance Sheet,\n")

	rows, err := NewCSVSource(path).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Salaries and Wages", rows[0].Text)
	assert.Equal(t, "Profit & Loss", rows[0].Label)
	assert.Equal(t, map[string]string{"notes": "payroll"}, rows[0].Extra)

	assert.Equal(t, "Cash in Hand", rows[1].Text)
	assert.Equal(t, "Balance Sheet", rows[1].Label)
}

func TestCSVSourceColumnOrderIndependent(t *testing.T) {
	path := writeCSV(t, "fs,primary_group\nBalance Sheet,Sundry Debtors\n")

	rows, err := NewCSVSource(path).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sundry Debtors", rows[0].Text)
	assert.Equal(t, "Balance Sheet", rows[0].Label)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv")).Rows(context.Background())
	assert.Error(t, err)
}

func TestCSVSourceMissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no text column", content: "group,fs\nRent,Profit & Loss\n"},
		{name: "no label column", content: "primary_group,category\nRent,expense\n"},
		{name: "empty file", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			_, err := NewCSVSource(path).Rows(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestCSVSourceShortRowSurfacesAsEmptyText(t *testing.T) {
	// Rows shorter than the header are not fatal; the store skips them
	// with a warning during load.
	path := writeCSV(t, "notes,primary_group,fs\nx\n,Cash in Hand,Balance Sheet\n")

	rows, err := NewCSVSource(path).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].Text)
	assert.Equal(t, "Cash in Hand", rows[1].Text)
}
