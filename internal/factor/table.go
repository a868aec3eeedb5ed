package factor

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lca-cli/internal/model"
)

// Entry is one row of a factor table.
type Entry struct {
	Key    model.LookupKey    `yaml:"key" json:"key"`
	Values model.FactorVector `yaml:"values" json:"values"`
}

type tableDoc struct {
	Factors []Entry `yaml:"factors"`
}

// ReadTable loads factor entries from a .yaml/.yml or .csv file. CSV files
// are long-format with a key,category,value header.
func ReadTable(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "factor: open table %s", path)
	}
	defer f.Close() //nolint:errcheck

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLTable(f)
	case ".csv":
		return parseCSVTable(f)
	default:
		return nil, eris.Errorf("factor: unsupported table format %q", filepath.Ext(path))
	}
}

func parseYAMLTable(r io.Reader) ([]Entry, error) {
	var doc tableDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "factor: decode yaml table")
	}
	for i, e := range doc.Factors {
		if e.Key == "" {
			return nil, eris.Errorf("factor: yaml entry %d has no key", i)
		}
	}
	return doc.Factors, nil
}

func parseCSVTable(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "factor: read csv header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range []string{"key", "category", "value"} {
		if _, ok := cols[want]; !ok {
			return nil, eris.Errorf("factor: csv table missing %q column", want)
		}
	}

	index := make(map[model.LookupKey]int)
	var entries []Entry
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "factor: read csv line %d", line)
		}
		key := model.LookupKey(strings.TrimSpace(row[cols["key"]]))
		cat := strings.TrimSpace(row[cols["category"]])
		val, err := strconv.ParseFloat(strings.TrimSpace(row[cols["value"]]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "factor: csv line %d value", line)
		}
		i, ok := index[key]
		if !ok {
			i = len(entries)
			index[key] = i
			entries = append(entries, Entry{Key: key, Values: model.FactorVector{}})
		}
		entries[i].Values[cat] = val
	}
	return entries, nil
}

// TableSource serves a fixed in-memory table.
type TableSource struct {
	entries map[model.LookupKey]model.FactorVector
}

// NewTableSource indexes entries by key; later duplicates win.
func NewTableSource(entries []Entry) *TableSource {
	m := make(map[model.LookupKey]model.FactorVector, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Values
	}
	return &TableSource{entries: m}
}

// LoadTableSource reads a table file into a TableSource.
func LoadTableSource(path string) (*TableSource, error) {
	entries, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return NewTableSource(entries), nil
}

// Len returns the number of keys.
func (t *TableSource) Len() int {
	return len(t.entries)
}

// Factor implements Source.
func (t *TableSource) Factor(_ context.Context, key model.LookupKey) (model.FactorVector, error) {
	v, ok := t.entries[key]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "key %s", key)
	}
	return v, nil
}
