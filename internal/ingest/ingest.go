// Package ingest reads product batches from CSV and XLSX files.
package ingest

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// Table is a parsed batch: the header row and one Record per data row.
type Table struct {
	Headers []string
	Records []model.Record
}

// ReadFile dispatches on the file extension.
func ReadFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVFile(path)
	case ".xlsx":
		return ReadXLSX(path, "")
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

// fromRows converts a header row plus data rows into a Table. Cells are
// trimmed, missing trailing cells read as empty and blank rows are skipped.
func fromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, eris.New("ingest: no header row")
	}

	names := make([]string, len(rows[0]))
	headers := make([]string, 0, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		names[i] = h
		if h == "" {
			continue
		}
		if seen[h] {
			return nil, eris.Errorf("ingest: duplicate column %q", h)
		}
		seen[h] = true
		headers = append(headers, h)
	}

	t := &Table{Headers: headers}
	for _, row := range rows[1:] {
		rec := make(model.Record, len(headers))
		blank := true
		for i, h := range names {
			if h == "" {
				continue
			}
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if v != "" {
				blank = false
			}
			rec[h] = v
		}
		if !blank {
			t.Records = append(t.Records, rec)
		}
	}
	return t, nil
}
