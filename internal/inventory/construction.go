package inventory

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// Processing energy per kg of main material, kWh.
var processingKWh = map[string]float64{
	"Concrete": 0.05,
	"Cement":   0.9,
	"Steel":    0.8,
	"Aluminum": 15,
	"Timber":   0.3,
	"Brick":    0.6,
	"Glass":    2.5,
}

const (
	gridElectricity = "Grid electricity"
	installationKWh = 0.01
)

type constructionBuilder struct{}

func (constructionBuilder) Build(p *model.ValidatedProduct) (*model.Inventory, error) {
	mass, ok := p.Number("product", "weight_kg")
	if !ok || mass <= 0 {
		return nil, eris.Errorf("inventory: construction product %q has no mass", p.ProductID)
	}

	main := p.First("main_material")
	mat := textOr(main, "type", "")
	origin := textOr(main, "origin", GlobalLocation)
	mainMass := mass * fraction(main, "percentage")
	recycled := fraction(main, "recycled_content")

	var e emitter

	e.add(model.Activity{
		Name:     "virgin " + mat,
		Quantity: mainMass * (1 - recycled),
		Unit:     model.UnitKg,
		Category: model.CategorySourcing,
		Key:      Key("material", mat, origin),
		Primary:  true,
	})
	e.add(model.Activity{
		Name:     "recycled " + mat,
		Quantity: mainMass * recycled,
		Unit:     model.UnitKg,
		Category: model.CategorySourcing,
		Key:      Key("material", mat+" recycled", origin),
		Primary:  true,
	})
	for _, a := range p.Items("additives") {
		t, _ := a.Text("type")
		e.add(model.Activity{
			Name:     "additive: " + t,
			Quantity: mass * fraction(a, "percentage"),
			Unit:     model.UnitKg,
			Category: model.CategorySourcing,
			Key:      Key("material", t, GlobalLocation),
			Primary:  true,
		})
	}

	mfg := p.First("manufacturing")
	loc := textOr(mfg, "production_location", GlobalLocation)
	kwh := mass * intensity(processingKWh, mat, 0.5)
	source := textOr(mfg, "energy_source", gridElectricity)
	processing := model.Activity{
		Name:     "processing: " + mat,
		Quantity: mass,
		Unit:     model.UnitKg,
		Category: model.CategoryTransformation,
		Key:      Key("process", mat, loc),
	}
	if source == gridElectricity {
		processing.Energy = energy(kwh, loc, fraction(mfg, "renewable_share"))
		e.add(processing)
	} else {
		e.add(processing)
		e.add(model.Activity{
			Name:     "process heat: " + source,
			Quantity: kwh,
			Unit:     model.UnitKWh,
			Category: model.CategoryTransformation,
			Key:      Key("fuel", source, GlobalLocation),
		})
	}

	transportLegs(&e, p, mass)

	if p.Scope.IncludesUse() {
		e.add(model.Activity{
			Name:     "on-site installation",
			Quantity: mass,
			Unit:     model.UnitKg,
			Category: model.CategoryAssembly,
			Key:      Key("assembly", "installation", GlobalLocation),
			Energy:   energy(mass*installationKWh, loc, 0),
		})
	}
	endOfLife(&e, p, mass, func(it model.Item) []route {
		return []route{
			{treatment: "recycling", share: fraction(it, "recycled_percentage"), credit: true},
			{treatment: "downcycling", share: fraction(it, "downcycled_percentage"), credit: true},
			{treatment: "landfill", share: fraction(it, "landfill_percentage")},
		}
	})

	return e.inventory(p, mass), nil
}

func (constructionBuilder) CommonKeys(s *model.Schema) []model.LookupKey {
	keys := optionKeys(s, "material", "main_material", "type", "main_material", "origin")
	keys = append(keys, optionKeys(s, "material", "additives", "type", "", "")...)
	keys = append(keys, gridKeys(s, "manufacturing", "production_location")...)
	return dedupe(keys)
}
