package model

import (
	"fmt"
	"strconv"
)

// Record is one raw input row: column name to cell text.
type Record map[string]string

// Value is a typed, validated cell.
type Value struct {
	Kind FieldKind `json:"type"`
	Num  float64   `json:"num,omitempty"`
	Bool bool      `json:"bool,omitempty"`
	Str  string    `json:"str,omitempty"`
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Item is one occurrence of a section: field id to value. Absent optional
// fields have no entry.
type Item map[string]Value

// Number returns a numeric field.
func (it Item) Number(field string) (float64, bool) {
	v, ok := it[field]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Text returns a select or text field.
func (it Item) Text(field string) (string, bool) {
	v, ok := it[field]
	if !ok || (v.Kind != KindSelect && v.Kind != KindText) {
		return "", false
	}
	return v.Str, true
}

// Bool returns a boolean field.
func (it Item) Bool(field string) (bool, bool) {
	v, ok := it[field]
	if !ok || v.Kind != KindBoolean {
		return false, false
	}
	return v.Bool, true
}

// Issue is a validation error or warning with its row and column context.
type Issue struct {
	Row     int        `json:"row"`
	Column  string     `json:"column,omitempty"`
	Rule    string     `json:"rule,omitempty"`
	Code    SignalKind `json:"code,omitempty"`
	Message string     `json:"message"`
}

func (i Issue) String() string {
	switch {
	case i.Column != "":
		return fmt.Sprintf("row %d, column %q: %s", i.Row, i.Column, i.Message)
	case i.Rule != "":
		return fmt.Sprintf("row %d: %s: %s", i.Row, i.Rule, i.Message)
	default:
		return fmt.Sprintf("row %d: %s", i.Row, i.Message)
	}
}

// ValidatedProduct is the schema-conformant form of a Record. It is built
// once by the validator and treated as read-only afterwards.
type ValidatedProduct struct {
	Row       int               `json:"row"`
	ProductID string            `json:"productId"`
	Industry  string            `json:"industry"`
	Scope     Scope             `json:"scope"`
	Sections  map[string][]Item `json:"sections"`
	// ItemNumbers holds the 1-based column group of each item in Sections.
	ItemNumbers map[string][]int `json:"-"`
	Errors      []Issue          `json:"errors"`
	Warnings    []Issue          `json:"warnings"`
	IsValid     bool             `json:"isValid"`
}

// Items returns the items of a section in column order.
func (p *ValidatedProduct) Items(section string) []Item {
	return p.Sections[section]
}

// ItemNumber returns the column group number of the i-th item of section.
// Items read from a record keep their column number when earlier groups
// were blank.
func (p *ValidatedProduct) ItemNumber(section string, i int) int {
	if nums := p.ItemNumbers[section]; i < len(nums) {
		return nums[i]
	}
	return i + 1
}

// First returns the single item of a flat section, or nil when absent.
func (p *ValidatedProduct) First(section string) Item {
	items := p.Sections[section]
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// Number reads a numeric field of a flat section.
func (p *ValidatedProduct) Number(section, field string) (float64, bool) {
	return p.First(section).Number(field)
}

// Text reads a select or text field of a flat section.
func (p *ValidatedProduct) Text(section, field string) (string, bool) {
	return p.First(section).Text(field)
}

// Bool reads a boolean field of a flat section.
func (p *ValidatedProduct) Bool(section, field string) (bool, bool) {
	return p.First(section).Bool(field)
}

// ErrorStrings renders the error list.
func (p *ValidatedProduct) ErrorStrings() []string {
	return issueStrings(p.Errors)
}

// WarningStrings renders the warning list.
func (p *ValidatedProduct) WarningStrings() []string {
	return issueStrings(p.Warnings)
}

func issueStrings(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.String())
	}
	return out
}

// RowReport is the per-row entry of a ValidationReport.
type RowReport struct {
	RowNumber int      `json:"rowNumber"`
	ProductID string   `json:"productId,omitempty"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
	IsValid   bool     `json:"isValid"`
}

// ValidationReport summarizes validation of a whole batch.
type ValidationReport struct {
	Industry string      `json:"industry"`
	Total    int         `json:"total"`
	Valid    int         `json:"valid"`
	Invalid  int         `json:"invalid"`
	PerRow   []RowReport `json:"perRow"`
}
