// Package validate turns raw records into validated products: per-cell
// structural checks followed by declarative business rules.
package validate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// cellValidator coerces one raw cell. A non-empty problem rejects the cell.
type cellValidator func(f *model.Field, raw string) (v model.Value, problem string)

// cellValidators is closed over model.FieldKind; schemas with other kinds
// are rejected at registration.
var cellValidators = map[model.FieldKind]cellValidator{
	model.KindNumber:  validateNumber,
	model.KindSelect:  validateSelect,
	model.KindBoolean: validateBoolean,
	model.KindText:    validateText,
}

func validateNumber(f *model.Field, raw string) (model.Value, string) {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return model.Value{}, fmt.Sprintf("value %q is not a number", raw)
	}
	if f.Min != nil && n < *f.Min {
		return model.Value{}, fmt.Sprintf("value %s is below minimum %s", formatNum(n), formatNum(*f.Min))
	}
	if f.Max != nil && n > *f.Max {
		return model.Value{}, fmt.Sprintf("value %s is above maximum %s", formatNum(n), formatNum(*f.Max))
	}
	return model.Value{Kind: model.KindNumber, Num: n}, ""
}

func validateSelect(f *model.Field, raw string) (model.Value, string) {
	for _, opt := range f.Options {
		if strings.EqualFold(opt, raw) {
			return model.Value{Kind: model.KindSelect, Str: opt}, ""
		}
	}
	return model.Value{}, fmt.Sprintf("value %q is not one of: %s", raw, strings.Join(f.Options, ", "))
}

func validateBoolean(_ *model.Field, raw string) (model.Value, string) {
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1":
		return model.Value{Kind: model.KindBoolean, Bool: true}, ""
	case "false", "no", "n", "0":
		return model.Value{Kind: model.KindBoolean, Bool: false}, ""
	}
	return model.Value{}, fmt.Sprintf("value %q is not a boolean", raw)
}

func validateText(_ *model.Field, raw string) (model.Value, string) {
	return model.Value{Kind: model.KindText, Str: raw}, ""
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CheckColumns verifies the header carries every required column. A missing
// column is fatal to the whole batch.
func CheckColumns(s *model.Schema, headers []string) error {
	have := make(map[string]bool, len(headers))
	for _, h := range headers {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range s.RequiredColumns() {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return eris.Errorf("validate: %s batch is missing required columns: %s",
			s.Industry, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateRecord derives a ValidatedProduct from one record. It never fails;
// problems are reported on the product. row is the 1-based data row number.
func ValidateRecord(s *model.Schema, row int, rec model.Record) *model.ValidatedProduct {
	p := &model.ValidatedProduct{
		Row:      row,
		Industry: s.Industry,
		Scope:    s.DefaultScope,
		Sections: make(map[string][]model.Item, len(s.Sections)),

		ItemNumbers: make(map[string][]int, len(s.Sections)),
	}

	for i := range s.Sections {
		sec := &s.Sections[i]
		for n := 1; n <= sec.ItemCount(); n++ {
			item, errs, present := readItem(sec, n, row, rec)
			p.Errors = append(p.Errors, errs...)
			if present {
				p.Sections[sec.ID] = append(p.Sections[sec.ID], item)
				p.ItemNumbers[sec.ID] = append(p.ItemNumbers[sec.ID], n)
			}
		}
		if !sec.Repeatable && len(p.Sections[sec.ID]) == 0 {
			for _, f := range sec.Fields {
				if f.Required {
					p.Errors = append(p.Errors, model.Issue{
						Row:     row,
						Column:  model.ColumnName(sec, 1, f.ID),
						Message: "required value is missing",
					})
				}
			}
		}
	}

	if id, ok := p.Text("product", "product_id"); ok {
		p.ProductID = id
	}
	if scope, ok := p.Text("product", "scope"); ok {
		p.Scope = model.Scope(scope)
	}

	errs, warns := BusinessRules(s, p)
	p.Errors = append(p.Errors, errs...)
	p.Warnings = append(p.Warnings, warns...)
	p.IsValid = len(p.Errors) == 0
	return p
}

// readItem parses one column group. An item whose cells are all empty is
// absent, not an item with defaults.
func readItem(sec *model.Section, n, row int, rec model.Record) (model.Item, []model.Issue, bool) {
	raw := make(map[string]string, len(sec.Fields))
	for _, f := range sec.Fields {
		if v := strings.TrimSpace(rec[model.ColumnName(sec, n, f.ID)]); v != "" {
			raw[f.ID] = v
		}
	}
	if len(raw) == 0 {
		return nil, nil, false
	}

	item := make(model.Item, len(raw))
	var errs []model.Issue
	for i := range sec.Fields {
		f := &sec.Fields[i]
		col := model.ColumnName(sec, n, f.ID)
		v, ok := raw[f.ID]
		if !ok {
			if f.Required {
				errs = append(errs, model.Issue{Row: row, Column: col, Message: "required value is missing"})
			}
			continue
		}
		val, problem := cellValidators[f.Kind](f, v)
		if problem != "" {
			errs = append(errs, model.Issue{Row: row, Column: col, Message: problem})
			continue
		}
		item[f.ID] = val
	}
	return item, errs, true
}
