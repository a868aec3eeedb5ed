package inventory

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

const (
	upperStitchingKWh = 1.5
	soleMouldingKWh   = 2.2
	shoeAssemblyKWh   = 1.0
)

type footwearBuilder struct{}

func (footwearBuilder) Build(p *model.ValidatedProduct) (*model.Inventory, error) {
	grams, ok := p.Number("product", "weight_grams")
	if !ok || grams <= 0 {
		return nil, eris.Errorf("inventory: footwear product %q has no weight", p.ProductID)
	}
	net := grams / 1000
	upper, sole := footwearSplit(p, net)

	mfg := p.First("manufacturing")
	loc := textOr(mfg, "assembly_location", GlobalLocation)
	renew := fraction(mfg, "renewable_energy")
	waste := wasteMass(upper, fraction(mfg, "cutting_waste_percentage"))
	upperGross := upper + waste

	var e emitter

	for _, m := range p.Items("upper_materials") {
		mat, _ := m.Text("material")
		e.add(model.Activity{
			Name:     "upper material: " + mat,
			Quantity: upperGross * fraction(m, "percentage"),
			Unit:     model.UnitKg,
			Category: model.CategorySourcing,
			Key:      Key("material", mat, textOr(m, "origin", GlobalLocation)),
			Primary:  true,
		})
	}
	for _, m := range p.Items("sole_materials") {
		mat, _ := m.Text("material")
		e.add(model.Activity{
			Name:     "sole material: " + mat,
			Quantity: sole * fraction(m, "percentage"),
			Unit:     model.UnitKg,
			Category: model.CategorySourcing,
			Key:      Key("material", mat, GlobalLocation),
			Primary:  true,
		})
	}

	e.add(model.Activity{
		Name:     "upper cutting and stitching",
		Quantity: upperGross,
		Unit:     model.UnitKg,
		Category: model.CategoryTransformation,
		Key:      Key("process", "upper stitching", loc),
		Energy:   energy(upperGross*upperStitchingKWh, loc, renew),
	})
	e.add(model.Activity{
		Name:     "sole moulding",
		Quantity: sole,
		Unit:     model.UnitKg,
		Category: model.CategoryTransformation,
		Key:      Key("process", "sole moulding", loc),
		Energy:   energy(sole*soleMouldingKWh, loc, renew),
	})
	e.add(model.Activity{
		Name:     "shoe assembly",
		Quantity: net,
		Unit:     model.UnitKg,
		Category: model.CategoryAssembly,
		Key:      Key("assembly", "footwear", loc),
		Energy:   energy(net*shoeAssemblyKWh, loc, renew),
	})

	pkgKg := packaging(&e, p)
	transportLegs(&e, p, net+pkgKg)
	routeMass(&e, "cutting waste", model.CategoryWaste, waste, manufacturingWasteRoutes(mfg))
	endOfLife(&e, p, net, standardRoutes)

	return e.inventory(p, net), nil
}

// footwearSplit returns upper and sole mass in kg. Undeclared components
// take the remainder, or a fixed split when neither is declared.
func footwearSplit(p *model.ValidatedProduct, net float64) (upper, sole float64) {
	ug, hasUpper := p.Number("product", "upper_weight_grams")
	sg, hasSole := p.Number("product", "sole_weight_grams")
	switch {
	case hasUpper && hasSole:
		return ug / 1000, sg / 1000
	case hasUpper:
		return ug / 1000, math.Max(net-ug/1000, 0)
	case hasSole:
		return math.Max(net-sg/1000, 0), sg / 1000
	default:
		return net * defaultUpperShare, net * (1 - defaultUpperShare)
	}
}

func (footwearBuilder) CommonKeys(s *model.Schema) []model.LookupKey {
	keys := optionKeys(s, "material", "upper_materials", "material", "upper_materials", "origin")
	keys = append(keys, optionKeys(s, "material", "sole_materials", "material", "", "")...)
	keys = append(keys, gridKeys(s, "manufacturing", "assembly_location")...)
	return dedupe(keys)
}
