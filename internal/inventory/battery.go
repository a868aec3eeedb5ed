package inventory

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

const packAssemblyKWh = 1.5

type batteryBuilder struct{}

// batteryComponent names where a component's material and share live.
type batteryComponent struct {
	section, materialField, shareField string
}

var batteryComponents = []batteryComponent{
	{"cathode", "chemistry", "percentage"},
	{"anode", "material", "percentage"},
	{"electrolyte", "type", "percentage"},
	{"separator", "material", "percentage"},
	{"housing", "housing_material", "housing_percentage"},
}

func (batteryBuilder) Build(p *model.ValidatedProduct) (*model.Inventory, error) {
	mass, ok := p.Number("product", "weight_kg")
	if !ok || mass <= 0 {
		return nil, eris.Errorf("inventory: battery product %q has no mass", p.ProductID)
	}

	var e emitter

	for _, c := range batteryComponents {
		it := p.First(c.section)
		mat := textOr(it, c.materialField, "")
		compMass := mass * fraction(it, c.shareField)
		recycled := fraction(it, "recycled_content")
		e.add(model.Activity{
			Name:     c.section + ": " + mat,
			Quantity: compMass * (1 - recycled),
			Unit:     model.UnitKg,
			Category: model.CategorySourcing,
			Key:      Key("material", mat, GlobalLocation),
			Primary:  true,
		})
		e.add(model.Activity{
			Name:     c.section + ": recycled " + mat,
			Quantity: compMass * recycled,
			Unit:     model.UnitKg,
			Category: model.CategorySourcing,
			Key:      Key("material", mat+" recycled", GlobalLocation),
			Primary:  true,
		})
	}

	mfg := p.First("manufacturing")
	cellLoc := textOr(mfg, "cell_location", GlobalLocation)
	packLoc := textOr(mfg, "pack_location", GlobalLocation)

	cellKWh := mass * defaultCellKWhPerKg
	if capacity, ok := p.Number("product", "capacity_kwh"); ok && capacity > 0 {
		cellKWh = capacity * cellKWhPerKWhCapacity
	}
	batteryType, _ := p.Text("product", "battery_type")
	e.add(model.Activity{
		Name:     "cell production: " + batteryType,
		Quantity: mass,
		Unit:     model.UnitKg,
		Category: model.CategoryTransformation,
		Key:      Key("process", "cell production", cellLoc),
		Energy:   energy(cellKWh, cellLoc, fraction(mfg, "cell_renewable_energy")),
	})
	e.add(model.Activity{
		Name:     "pack assembly",
		Quantity: mass,
		Unit:     model.UnitKg,
		Category: model.CategoryAssembly,
		Key:      Key("assembly", "battery pack", packLoc),
		Energy:   energy(mass*packAssemblyKWh, packLoc, fraction(mfg, "pack_renewable_energy")),
	})

	transportLegs(&e, p, mass)
	endOfLife(&e, p, mass, func(it model.Item) []route {
		rate := fraction(it, "recycling_rate")
		return []route{
			{treatment: "battery recycling", share: rate, credit: true},
			{treatment: "hazardous waste treatment", share: 1 - rate},
		}
	})

	return e.inventory(p, mass), nil
}

func (batteryBuilder) CommonKeys(s *model.Schema) []model.LookupKey {
	var keys []model.LookupKey
	for _, c := range batteryComponents {
		keys = append(keys, optionKeys(s, "material", c.section, c.materialField, "", "")...)
	}
	keys = append(keys, gridKeys(s, "manufacturing", "cell_location")...)
	return dedupe(keys)
}
