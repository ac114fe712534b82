package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/ledgermap/ledgermap/internal/service"
)

// Required training source columns.
const (
	ColumnText  = "primary_group"
	ColumnLabel = "fs"
)

// CSVSource reads training rows from a CSV file with a header row. The
// columns primary_group and fs are required; every other column is carried
// opaquely in SourceRow.Extra.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a CSV training source for the given file.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Name identifies the source in errors and logs.
func (s *CSVSource) Name() string {
	return s.Path
}

// Rows reads all rows from the file. Missing file, unreadable data or a
// missing required column are source-level failures; short rows surface as
// empty-text rows for the store to skip with a warning.
func (s *CSVSource) Rows(_ context.Context) ([]service.SourceRow, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	header := records[0]
	textIdx, labelIdx := -1, -1
	for i, col := range header {
		switch col {
		case ColumnText:
			textIdx = i
		case ColumnLabel:
			labelIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("required column %q not found", ColumnText)
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("required column %q not found", ColumnLabel)
	}

	rows := make([]service.SourceRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := service.SourceRow{}
		for i, value := range record {
			if i >= len(header) {
				break
			}
			switch i {
			case textIdx:
				row.Text = value
			case labelIdx:
				row.Label = value
			default:
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[header[i]] = value
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
