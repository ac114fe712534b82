package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"

	"github.com/ledgermap/ledgermap/internal/service"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultTrainingTable is the staging table read when none is configured.
const DefaultTrainingTable = "training_groups"

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads training rows from a SQLite staging database. The table
// needs primary_group and fs columns; all other columns ride along in
// SourceRow.Extra.
type SQLiteSource struct {
	Path  string
	Table string
}

// NewSQLiteSource creates a SQLite training source.
func NewSQLiteSource(path, table string) *SQLiteSource {
	if table == "" {
		table = DefaultTrainingTable
	}
	return &SQLiteSource{Path: path, Table: table}
}

// Name identifies the source in errors and logs.
func (s *SQLiteSource) Name() string {
	return fmt.Sprintf("%s#%s", s.Path, s.Table)
}

// Rows reads every row from the staging table in rowid order so that
// insertion order, and with it tie-breaking, is stable across loads.
func (s *SQLiteSource) Rows(ctx context.Context) ([]service.SourceRow, error) {
	if !identifierRe.MatchString(s.Table) {
		return nil, fmt.Errorf("invalid table name: %q", s.Table)
	}
	// sql.Open is lazy and mode=ro would create nothing, but a clear error
	// beats the driver's "unable to open database file".
	if _, err := os.Stat(s.Path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", s.Table)) //nolint:gosec // identifier validated above
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.Table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	textIdx, labelIdx := -1, -1
	for i, col := range columns {
		switch col {
		case ColumnText:
			textIdx = i
		case ColumnLabel:
			labelIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("required column %q not found in %s", ColumnText, s.Table)
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("required column %q not found in %s", ColumnLabel, s.Table)
	}

	var out []service.SourceRow
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := service.SourceRow{
			Text:  values[textIdx].String,
			Label: values[labelIdx].String,
		}
		for i, col := range columns {
			if i == textIdx || i == labelIdx || !values[i].Valid {
				continue
			}
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[col] = values[i].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return out, nil
}
