package inventory

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// Process electricity in kWh per kg processed.
var (
	spinningKWh = map[string]float64{
		"Ring spinning":      3.2,
		"Open-end spinning":  2.4,
		"Air-jet spinning":   2.2,
		"Filament extrusion": 1.8,
	}
	fabricKWh = map[string]float64{
		"Weaving":   4.0,
		"Knitting":  2.8,
		"Non-woven": 2.0,
	}
	finishingKWh = map[string]float64{
		"Standard finishing": 1.2,
		"Water repellent":    1.6,
		"Flame retardant":    1.8,
		"Anti-microbial":     1.4,
	}
	dyeingKWh = map[string]float64{
		"Batch dyeing":      5.0,
		"Continuous dyeing": 3.5,
		"Digital printing":  2.0,
		"Screen printing":   2.5,
	}
	colorDepthFactor = map[string]float64{
		"Pale":      0.8,
		"Medium":    1.0,
		"Dark":      1.2,
		"Very dark": 1.4,
	}
	dryingKWhPerCycle = map[string]float64{
		"Tumble dry low":  1.5,
		"Tumble dry high": 2.5,
	}
)

const (
	garmentAssemblyKWh = 1.3
	noDyeing           = "No dyeing/printing"
)

type textileBuilder struct{}

func (textileBuilder) Build(p *model.ValidatedProduct) (*model.Inventory, error) {
	grams, ok := p.Number("product", "weight_grams")
	if !ok || grams <= 0 {
		return nil, eris.Errorf("inventory: textile product %q has no weight", p.ProductID)
	}
	net := grams / 1000
	mfg := p.First("manufacturing")
	waste := wasteMass(net, fraction(mfg, "cutting_waste_percentage"))
	gross := net + waste

	prod := p.First("production")
	spinLoc := textOr(prod, "spinning_location", GlobalLocation)
	fabLoc := textOr(prod, "fabric_location", GlobalLocation)
	finLoc := textOr(prod, "finishing_location", GlobalLocation)
	asmLoc := textOr(prod, "assembly_location", GlobalLocation)

	var e emitter

	for _, f := range p.Items("fibers") {
		mat, _ := f.Text("material")
		e.add(model.Activity{
			Name:     "fiber production: " + mat,
			Quantity: gross * fraction(f, "percentage"),
			Unit:     model.UnitKg,
			Category: model.CategorySourcing,
			Key:      Key("fiber", mat, textOr(f, "origin", GlobalLocation)),
			Primary:  true,
		})
	}

	for _, y := range p.Items("yarns") {
		method, _ := y.Text("spinning_method")
		mass := gross * fraction(y, "percentage")
		e.add(model.Activity{
			Name:     "spinning: " + method,
			Quantity: mass,
			Unit:     model.UnitKg,
			Category: model.CategoryTransformation,
			Key:      Key("spinning", method, spinLoc),
			Energy:   energy(mass*intensity(spinningKWh, method, 2.5), spinLoc, fraction(prod, "spinning_renewable_energy")),
		})
	}

	fabrics := p.Items("fabrics")
	for _, f := range fabrics {
		method, _ := f.Text("construction_method")
		mass := gross * fraction(f, "percentage")
		e.add(model.Activity{
			Name:     "fabric construction: " + method,
			Quantity: mass,
			Unit:     model.UnitKg,
			Category: model.CategoryTransformation,
			Key:      Key("fabric", method, fabLoc),
			Energy:   energy(mass*intensity(fabricKWh, method, 3.0), fabLoc, fraction(prod, "fabric_renewable_energy")),
		})
	}

	finRenew := fraction(prod, "finishing_renewable_energy")
	for _, f := range fabrics {
		mass := gross * fraction(f, "percentage")
		if fm := textOr(f, "finishing_method", "None"); fm != "None" {
			e.add(model.Activity{
				Name:     "finishing: " + fm,
				Quantity: mass,
				Unit:     model.UnitKg,
				Category: model.CategoryFinishing,
				Key:      Key("finishing", fm, finLoc),
				Energy:   energy(mass*intensity(finishingKWh, fm, 1.2), finLoc, finRenew),
			})
		}
		if cm := textOr(f, "coloring_method", noDyeing); cm != noDyeing {
			depth := intensity(colorDepthFactor, textOr(f, "color_depth", "Medium"), 1.0)
			e.add(model.Activity{
				Name:     "dyeing: " + cm,
				Quantity: mass,
				Unit:     model.UnitKg,
				Category: model.CategoryFinishing,
				Key:      Key("dyeing", cm, finLoc),
				Energy:   energy(mass*intensity(dyeingKWh, cm, 4.0)*depth, finLoc, finRenew),
			})
		}
	}

	asmRenew := fraction(prod, "assembly_renewable_energy")
	e.add(model.Activity{
		Name:     "garment assembly: cut, make and trim",
		Quantity: gross,
		Unit:     model.UnitKg,
		Category: model.CategoryAssembly,
		Key:      Key("assembly", "garment", asmLoc),
		Energy:   energy(gross*garmentAssemblyKWh, asmLoc, asmRenew),
	})
	for _, field := range []string{"treatment_1", "treatment_2"} {
		if t := textOr(mfg, field, "None"); t != "None" {
			e.add(model.Activity{
				Name:     "finish treatment: " + t,
				Quantity: net,
				Unit:     model.UnitKg,
				Category: model.CategoryFinishing,
				Key:      Key("treatment", t, asmLoc),
			})
		}
	}

	pkgKg := packaging(&e, p)
	transportLegs(&e, p, net+pkgKg)
	routeMass(&e, "cutting waste", model.CategoryWaste, waste, manufacturingWasteRoutes(mfg))
	textileUsePhase(&e, p)
	endOfLife(&e, p, net, standardRoutes)

	return e.inventory(p, net), nil
}

// textileUsePhase emits washing water and household electricity over the
// garment's lifetime.
func textileUsePhase(e *emitter, p *model.ValidatedProduct) {
	if !p.Scope.IncludesUse() {
		return
	}
	use := p.First("use_phase")
	if on, ok := use.Bool("include"); !ok || !on {
		return
	}
	cycles, _ := use.Number("lifetime_washing_cycles")
	if cycles <= 0 {
		return
	}

	temp, ok := use.Number("washing_temperature")
	if !ok {
		temp = 40
	}
	perCycle := washKWhPerCycleAt40C * temp / 40
	perCycle += intensity(dryingKWhPerCycle, textOr(use, "drying_method", "Line dry"), 0)
	if ironing, _ := use.Bool("ironing"); ironing {
		perCycle += ironingKWhPerCycle
	}

	e.add(model.Activity{
		Name:     "washing water",
		Quantity: cycles * washWaterM3PerCycle,
		Unit:     model.UnitM3,
		Category: model.CategoryUse,
		Key:      Key("utility", "tap water", GlobalLocation),
	})
	e.add(model.Activity{
		Name:     "laundry electricity",
		Quantity: cycles * perCycle,
		Unit:     model.UnitKWh,
		Category: model.CategoryUse,
		Key:      Key("electricity", "grid", GlobalLocation),
	})
}

func (textileBuilder) CommonKeys(s *model.Schema) []model.LookupKey {
	keys := optionKeys(s, "fiber", "fibers", "material", "fibers", "origin")
	keys = append(keys, gridKeys(s, "production", "spinning_location")...)
	return dedupe(keys)
}
