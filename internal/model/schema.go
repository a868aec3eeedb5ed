package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// FieldKind is the closed set of cell types a schema field may declare.
type FieldKind string

const (
	KindNumber  FieldKind = "number"
	KindSelect  FieldKind = "select"
	KindBoolean FieldKind = "boolean"
	KindText    FieldKind = "text"
)

// Valid reports whether k is one of the known field kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case KindNumber, KindSelect, KindBoolean, KindText:
		return true
	}
	return false
}

// Scope is the system boundary of an assessment.
type Scope string

const (
	ScopeCradleToGate  Scope = "cradle-to-gate"
	ScopeCradleToGrave Scope = "cradle-to-grave"
)

// IncludesUse reports whether use-phase and end-of-life stages are inside the boundary.
func (s Scope) IncludesUse() bool {
	return s == ScopeCradleToGrave
}

// Field describes a single input cell of a section.
type Field struct {
	ID       string    `yaml:"id" json:"id"`
	Label    string    `yaml:"label" json:"label"`
	Kind     FieldKind `yaml:"type" json:"type"`
	Required bool      `yaml:"required" json:"required"`
	Options  []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Min      *float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max      *float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Unit     string    `yaml:"unit,omitempty" json:"unit,omitempty"`
}

// Section groups fields. Repeatable sections hold up to MaxItems items and
// are required when MinItems is at least one.
type Section struct {
	ID         string  `yaml:"id" json:"id"`
	Title      string  `yaml:"title" json:"title"`
	Repeatable bool    `yaml:"repeatable" json:"repeatable"`
	MinItems   int     `yaml:"min_items,omitempty" json:"minItems,omitempty"`
	MaxItems   int     `yaml:"max_items,omitempty" json:"maxItems,omitempty"`
	Fields     []Field `yaml:"fields" json:"fields"`
}

// Field returns the field with the given id.
func (s *Section) Field(id string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// ItemCount is the number of column groups the section occupies.
func (s *Section) ItemCount() int {
	if !s.Repeatable {
		return 1
	}
	return s.MaxItems
}

// FieldRef addresses a field inside a section.
type FieldRef struct {
	Section string `yaml:"section" json:"section"`
	Field   string `yaml:"field" json:"field"`
}

func (r FieldRef) String() string {
	return r.Section + "." + r.Field
}

// InvariantKind selects how an invariant compares its field set.
type InvariantKind string

const (
	// InvariantSum compares the sum of the field set to Expected.
	InvariantSum InvariantKind = "sum"
	// InvariantMassBalance compares the sum of the field set to the Reference field.
	InvariantMassBalance InvariantKind = "mass_balance"
)

// Invariant is a named cross-field rule evaluated by the business-rule validator.
type Invariant struct {
	Name      string        `yaml:"name" json:"name"`
	Kind      InvariantKind `yaml:"kind" json:"kind"`
	Fields    []FieldRef    `yaml:"fields" json:"fields"`
	Expected  float64       `yaml:"expected,omitempty" json:"expected,omitempty"`
	Reference *FieldRef     `yaml:"reference,omitempty" json:"reference,omitempty"`
	Tolerance float64       `yaml:"tolerance" json:"tolerance"`
	Gate      *FieldRef     `yaml:"gate,omitempty" json:"gate,omitempty"`
	Optional  bool          `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// SignalKind names a data-quality signal raised as a validation warning.
type SignalKind string

const (
	SignalEnergyMixOmitted SignalKind = "energy_mix_omitted"
	SignalTransportOmitted SignalKind = "transport_omitted"
	SignalGenericLocation  SignalKind = "generic_location"
	SignalUsePhaseExcluded SignalKind = "use_phase_excluded"
)

// Signal declares where a data-quality signal is detected.
type Signal struct {
	Kind    SignalKind `yaml:"kind" json:"kind"`
	Section string     `yaml:"section" json:"section"`
	Field   string     `yaml:"field,omitempty" json:"field,omitempty"`
	Values  []string   `yaml:"values,omitempty" json:"values,omitempty"`
}

// Schema is an industry definition: its sections plus the rules applied to them.
type Schema struct {
	Industry           string      `yaml:"industry" json:"industry"`
	Name               string      `yaml:"name" json:"name"`
	DefaultScope       Scope       `yaml:"default_scope" json:"defaultScope"`
	Sections           []Section   `yaml:"sections" json:"sections"`
	Invariants         []Invariant `yaml:"invariants,omitempty" json:"invariants,omitempty"`
	Signals            []Signal    `yaml:"signals,omitempty" json:"signals,omitempty"`
	RequiredCategories []string    `yaml:"required_categories,omitempty" json:"requiredCategories,omitempty"`
}

// Section returns the section with the given id.
func (s *Schema) Section(id string) (*Section, bool) {
	for i := range s.Sections {
		if s.Sections[i].ID == id {
			return &s.Sections[i], true
		}
	}
	return nil, false
}

// ColumnName builds the record column for a field. item is 1-based and
// ignored for non-repeatable sections.
func ColumnName(sec *Section, item int, field string) string {
	if !sec.Repeatable {
		return sec.ID + "_" + field
	}
	return fmt.Sprintf("%s_%d_%s", sec.ID, item, field)
}

// Columns lists every column the schema can read, in schema order.
func (s *Schema) Columns() []string {
	var cols []string
	for i := range s.Sections {
		sec := &s.Sections[i]
		for n := 1; n <= sec.ItemCount(); n++ {
			for _, f := range sec.Fields {
				cols = append(cols, ColumnName(sec, n, f.ID))
			}
		}
	}
	return cols
}

// RequiredColumns lists columns that must be present in a batch header:
// required fields of flat sections and of the first item of required
// repeatable sections.
func (s *Schema) RequiredColumns() []string {
	var cols []string
	for i := range s.Sections {
		sec := &s.Sections[i]
		if sec.Repeatable && sec.MinItems < 1 {
			continue
		}
		for _, f := range sec.Fields {
			if f.Required {
				cols = append(cols, ColumnName(sec, 1, f.ID))
			}
		}
	}
	return cols
}

// Validate checks that the schema is internally consistent.
func (s *Schema) Validate() error {
	if s.Industry == "" {
		return eris.New("schema: industry is required")
	}
	if s.DefaultScope == "" {
		s.DefaultScope = ScopeCradleToGate
	}
	seen := make(map[string]bool, len(s.Sections))
	for i := range s.Sections {
		sec := &s.Sections[i]
		if seen[sec.ID] {
			return eris.Errorf("schema %s: duplicate section %q", s.Industry, sec.ID)
		}
		seen[sec.ID] = true
		if sec.Repeatable && sec.MaxItems < 1 {
			return eris.Errorf("schema %s: repeatable section %q needs max_items", s.Industry, sec.ID)
		}
		for _, f := range sec.Fields {
			if !f.Kind.Valid() {
				return eris.Errorf("schema %s: field %s.%s has unknown type %q", s.Industry, sec.ID, f.ID, f.Kind)
			}
			if f.Kind == KindSelect && len(f.Options) == 0 {
				return eris.Errorf("schema %s: select field %s.%s has no options", s.Industry, sec.ID, f.ID)
			}
			if strings.Contains(f.ID, " ") {
				return eris.Errorf("schema %s: field id %q contains a space", s.Industry, f.ID)
			}
		}
	}
	for _, inv := range s.Invariants {
		refs := append([]FieldRef(nil), inv.Fields...)
		if inv.Reference != nil {
			refs = append(refs, *inv.Reference)
		}
		if inv.Gate != nil {
			refs = append(refs, *inv.Gate)
		}
		for _, ref := range refs {
			if err := s.checkRef(ref); err != nil {
				return eris.Wrapf(err, "schema %s: invariant %q", s.Industry, inv.Name)
			}
		}
		switch inv.Kind {
		case InvariantSum:
		case InvariantMassBalance:
			if inv.Reference == nil {
				return eris.Errorf("schema %s: invariant %q needs a reference field", s.Industry, inv.Name)
			}
		default:
			return eris.Errorf("schema %s: invariant %q has unknown kind %q", s.Industry, inv.Name, inv.Kind)
		}
	}
	for _, sig := range s.Signals {
		if _, ok := s.Section(sig.Section); !ok {
			return eris.Errorf("schema %s: signal %s references unknown section %q", s.Industry, sig.Kind, sig.Section)
		}
		if sig.Field != "" {
			if err := s.checkRef(FieldRef{Section: sig.Section, Field: sig.Field}); err != nil {
				return eris.Wrapf(err, "schema %s: signal %s", s.Industry, sig.Kind)
			}
		}
	}
	return nil
}

func (s *Schema) checkRef(ref FieldRef) error {
	sec, ok := s.Section(ref.Section)
	if !ok {
		return eris.Errorf("unknown section %q", ref.Section)
	}
	if _, ok := sec.Field(ref.Field); !ok {
		return eris.Errorf("unknown field %q", ref.String())
	}
	return nil
}
