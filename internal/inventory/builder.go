// Package inventory maps validated products to ordered activity inventories
// and checks the result before calculation.
package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// Builder maps a validated product of one industry into an inventory.
// Builders only compose quantities and keys; they never see factor values.
type Builder interface {
	Build(p *model.ValidatedProduct) (*model.Inventory, error)
	// CommonKeys lists keys worth pre-warming for the industry schema.
	CommonKeys(s *model.Schema) []model.LookupKey
}

var builders = map[string]Builder{
	"textile":      textileBuilder{},
	"footwear":     footwearBuilder{},
	"construction": constructionBuilder{},
	"battery":      batteryBuilder{},
}

// For returns the builder registered for an industry.
func For(industry string) (Builder, error) {
	b, ok := builders[strings.ToLower(industry)]
	if !ok {
		return nil, eris.Errorf("inventory: no builder for industry %q", industry)
	}
	return b, nil
}

// Build dispatches to the industry builder. Products with validation errors
// are rejected.
func Build(p *model.ValidatedProduct) (*model.Inventory, error) {
	if !p.IsValid {
		return nil, eris.Errorf("inventory: product %q has %d validation error(s)", p.ProductID, len(p.Errors))
	}
	b, err := For(p.Industry)
	if err != nil {
		return nil, err
	}
	return b.Build(p)
}

// Waste, use and transport constants.
const (
	washWaterM3PerCycle   = 0.05
	washKWhPerCycleAt40C  = 0.5
	ironingKWhPerCycle    = 0.1
	defaultUpperShare     = 0.45
	defaultCellKWhPerKg   = 10.0
	cellKWhPerKWhCapacity = 60.0
)

// emitter accumulates activities, dropping zero quantities.
type emitter struct {
	acts []model.Activity
}

func (e *emitter) add(a model.Activity) {
	if a.Quantity == 0 {
		return
	}
	e.acts = append(e.acts, a)
}

func (e *emitter) inventory(p *model.ValidatedProduct, fuKg float64) *model.Inventory {
	return &model.Inventory{
		ProductID:        p.ProductID,
		Industry:         p.Industry,
		Scope:            p.Scope,
		FunctionalUnitKg: fuKg,
		Activities:       e.acts,
	}
}

// fraction reads a percentage field as a 0..1 fraction; absent is 0.
func fraction(it model.Item, field string) float64 {
	v, ok := it.Number(field)
	if !ok {
		return 0
	}
	return v / 100
}

// textOr reads a select/text field with a fallback.
func textOr(it model.Item, field, def string) string {
	if v, ok := it.Text(field); ok && v != "" {
		return v
	}
	return def
}

// wasteMass applies amount_secondary = amount_primary x rate / (1 - rate).
func wasteMass(primary, rate float64) float64 {
	if rate <= 0 || rate >= 1 {
		return 0
	}
	return primary * rate / (1 - rate)
}

// energy builds the auxiliary electricity draw of a process step. The
// location is stored as a key token.
func energy(kwh float64, location string, renewable float64) *model.EnergyUse {
	if kwh <= 0 {
		return nil
	}
	return &model.EnergyUse{KWh: kwh, Location: NormalizeToken(location), RenewableFraction: renewable}
}

func intensity(table map[string]float64, label string, def float64) float64 {
	if v, ok := table[label]; ok {
		return v
	}
	return def
}

// transportLegs emits one activity per declared leg, in tkm.
func transportLegs(e *emitter, p *model.ValidatedProduct, massKg float64) {
	for i, leg := range p.Items("transport") {
		mode, _ := leg.Text("mode")
		km, _ := leg.Number("distance_km")
		e.add(model.Activity{
			Name:     fmt.Sprintf("transport leg %d: %s, %s km", i+1, mode, formatQty(km)),
			Quantity: massKg * km / 1000,
			Unit:     model.UnitTkm,
			Category: model.CategoryTransport,
			Key:      Key("transport", mode, GlobalLocation),
		})
	}
}

// route splits a mass across disposal routes. Recycling and downcycling
// are credit-flagged with negative quantities.
type route struct {
	treatment string
	share     float64
	credit    bool
}

func routeMass(e *emitter, label, category string, massKg float64, routes []route) {
	var declared float64
	for _, r := range routes {
		declared += r.share
	}
	if declared == 0 {
		// Nothing declared: everything goes to landfill.
		routes = []route{{treatment: "landfill", share: 1}}
	}
	for _, r := range routes {
		qty := massKg * r.share
		if r.credit {
			qty = -qty
		}
		e.add(model.Activity{
			Name:     label + ": " + r.treatment,
			Quantity: qty,
			Unit:     model.UnitKg,
			Category: category,
			Key:      Key("waste", r.treatment, GlobalLocation),
			Credit:   r.credit,
		})
	}
}

// packaging emits the packaging material and returns its mass.
func packaging(e *emitter, p *model.ValidatedProduct) float64 {
	pkg := p.First("packaging")
	mat := textOr(pkg, "material", "None")
	grams, _ := pkg.Number("weight_grams")
	if mat == "None" || grams <= 0 {
		return 0
	}
	kg := grams / 1000
	e.add(model.Activity{
		Name:     "packaging: " + mat,
		Quantity: kg,
		Unit:     model.UnitKg,
		Category: model.CategoryPackaging,
		Key:      Key("packaging", mat, GlobalLocation),
	})
	return kg
}

// endOfLife routes the product mass when the scope and the section include it.
func endOfLife(e *emitter, p *model.ValidatedProduct, massKg float64, routes func(model.Item) []route) {
	if !p.Scope.IncludesUse() {
		return
	}
	eol := p.First("end_of_life")
	if on, ok := eol.Bool("include"); !ok || !on {
		return
	}
	routeMass(e, "end of life", model.CategoryEndOfLife, massKg, routes(eol))
}

func standardRoutes(it model.Item) []route {
	return []route{
		{treatment: "recycling", share: fraction(it, "recycled_percentage"), credit: true},
		{treatment: "incineration", share: fraction(it, "incinerated_percentage")},
		{treatment: "landfill", share: fraction(it, "landfill_percentage")},
	}
}

func manufacturingWasteRoutes(it model.Item) []route {
	return []route{
		{treatment: "recycling", share: fraction(it, "waste_recycled_percentage"), credit: true},
		{treatment: "incineration", share: fraction(it, "waste_incinerated_percentage")},
		{treatment: "landfill", share: fraction(it, "waste_landfilled_percentage")},
	}
}

func formatQty(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

// optionKeys crosses the options of a material field with those of a
// location field. An empty locField pairs every material with GlobalLocation.
func optionKeys(s *model.Schema, kind, section, materialField, locSection, locField string) []model.LookupKey {
	materials := options(s, section, materialField)
	locations := []string{GlobalLocation}
	if locField != "" {
		if locs := options(s, locSection, locField); len(locs) > 0 {
			locations = locs
		}
	}
	var out []model.LookupKey
	for _, m := range materials {
		for _, l := range locations {
			out = append(out, Key(kind, m, l))
		}
	}
	return out
}

func options(s *model.Schema, section, field string) []string {
	sec, ok := s.Section(section)
	if !ok {
		return nil
	}
	f, ok := sec.Field(field)
	if !ok {
		return nil
	}
	return f.Options
}

// gridKeys lists the electricity key of every location option of a field.
func gridKeys(s *model.Schema, section, field string) []model.LookupKey {
	out := []model.LookupKey{Key("electricity", "grid", GlobalLocation)}
	for _, l := range options(s, section, field) {
		out = append(out, Key("electricity", "grid", l))
	}
	return out
}

// dedupe sorts keys and drops repeats.
func dedupe(keys []model.LookupKey) []model.LookupKey {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := keys[:0]
	for i, k := range keys {
		if i == 0 || k != keys[i-1] {
			out = append(out, k)
		}
	}
	return out
}
