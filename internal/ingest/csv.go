package ingest

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// ReadCSV parses a CSV batch with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv")
	}
	return fromRows(rows)
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f)
}

// WriteTemplate writes the header row of a blank batch for s.
func WriteTemplate(w io.Writer, s *model.Schema) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Columns()); err != nil {
		return eris.Wrap(err, "ingest: write template")
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "ingest: flush template")
}
