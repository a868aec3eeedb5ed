package factor

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// CategoryMultipliers derive every category from the climate coefficient.
// The table covers the categories of every supported method; the calculator
// keeps the ones its method reports.
var CategoryMultipliers = map[string]float64{
	model.ImpactClimateChange:             1.0,
	model.ImpactOzoneDepletion:            0.000001,
	model.ImpactIonisingRadiation:         0.1,
	model.ImpactAcidification:             0.01,
	model.ImpactEutrophicationFresh:       0.001,
	model.ImpactEutrophicationMarine:      0.005,
	model.ImpactEutrophicationTerrestrial: 0.02,
	model.ImpactHumanToxicityCancer:       0.00001,
	model.ImpactHumanToxicityNonCancer:    0.0001,
	model.ImpactParticulateMatter:         0.001,
	model.ImpactPhotochemicalOzone:        0.005,
	model.ImpactEcotoxicityFreshwater:     0.05,
	model.ImpactWaterUse:                  50.0,
	model.ImpactLandUse:                   10.0,
	model.ImpactResourceFossils:           20.0,
	model.ImpactResourceMinerals:          0.0001,

	"terrestrial_acidification":       0.01,
	"freshwater_eutrophication":       0.001,
	"marine_eutrophication":           0.005,
	"human_toxicity":                  0.1,
	"photochemical_oxidant_formation": 0.005,
	"particulate_matter_formation":    0.001,
	"terrestrial_ecotoxicity":         0.01,
	"freshwater_ecotoxicity":          0.05,
	"marine_ecotoxicity":              0.03,
	"agricultural_land_occupation":    5.0,
	"urban_land_occupation":           0.5,
	"natural_land_transformation":     0.01,
	"water_depletion":                 50.0,
	"metal_depletion":                 0.1,
	"fossil_depletion":                2.0,
}

// defaultMaterialCO2 applies to materials missing from the table.
const defaultMaterialCO2 = 5.0

// recycledShare scales a virgin material coefficient for its recycled grade.
const recycledShare = 0.3

// climate coefficients, kg CO2 eq per unit, keyed by kind then technology.
var climateTable = map[string]map[string]float64{
	"fiber": {
		"cotton": 5.9, "organic_cotton": 3.8, "recycled_cotton": 1.8,
		"polyester": 9.5, "recycled_polyester": 2.1, "wool": 28, "viscose": 8,
		"lyocell": 3.5, "modal": 4, "nylon": 12, "elastane": 15, "acrylic": 11,
		"linen": 3, "hemp": 2.5, "silk": 100,
	},
	"material": {
		"leather": 17, "synthetic_leather": 7, "textile": 6, "recycled_polyester": 2.1,
		"mesh": 8, "suede": 15, "rubber": 3, "eva": 3.2, "polyurethane": 4.5,
		"tpu": 5, "recycled_rubber": 1, "cork": 0.5,
		"concrete": 0.1, "cement": 0.9, "steel": 2, "aluminum": 8, "timber": 0.4,
		"brick": 0.25, "glass": 1.2, "fly_ash": 0.01, "slag": 0.05,
		"superplasticizer": 1.5, "fiber_reinforcement": 2.5, "pigment": 3,
		"nmc811": 15, "nmc622": 14, "nmc532": 13, "lfp": 8, "nca": 16, "lco": 18,
		"graphite": 3, "synthetic_graphite": 5, "silicon_graphite": 6,
		"lithium_titanate": 9, "lipf6_in_carbonate": 7, "solid_state": 10,
		"gel_polymer": 8, "polyethylene": 2, "polypropylene": 1.9,
		"ceramic_coated": 3, "laminated_pouch": 6,
	},
	// Direct process emissions per kg, excluding electricity.
	"spinning":  {"*": 0.2},
	"fabric":    {"*": 0.3},
	"finishing": {"*": 0.5},
	"dyeing":    {"*": 1.5, "digital_printing": 0.6},
	"treatment": {"*": 0.3, "bleaching": 0.6},
	"assembly":  {"*": 0.1},
	"process": {
		"*": 0.1, "upper_stitching": 0.2, "sole_moulding": 0.4,
		"cell_production": 2.0, "steel": 0.3, "cement": 0.8, "aluminum": 1.5,
	},
	// Per tkm.
	"transport": {
		"truck": 0.1, "container_ship": 0.02, "aircraft": 1.2, "train": 0.03, "barge": 0.035,
	},
	// Per kg treated. Recycling routes carry the avoided burden and are
	// applied to credit quantities.
	"waste": {
		"recycling": 0.5, "downcycling": 0.2, "incineration": 2.0, "landfill": 0.6,
		"battery_recycling": 4.0, "hazardous_waste_treatment": 1.0,
	},
	"packaging": {
		"cardboard": 0.9, "recycled_cardboard": 0.5, "paper": 1.1, "plastic_film": 2.5,
	},
	// Per kWh of fuel.
	"fuel":    {"natural_gas": 0.2, "coal": 0.34, "biomass": 0.03},
	"utility": {"tap_water": 0.34},
}

// GridIntensity is kg CO2 eq per kWh of grid electricity by location token.
var GridIntensity = map[string]float64{
	"global":     0.48,
	"china":      0.58,
	"india":      0.71,
	"bangladesh": 0.55,
	"vietnam":    0.47,
	"turkey":     0.42,
	"indonesia":  0.68,
	"pakistan":   0.43,
	"usa":        0.37,
	"europe":     0.25,
	"brazil":     0.09,
	"egypt":      0.45,
	"thailand":   0.45,
}

// EstimateSource derives factor vectors from built-in coefficient tables.
// Coefficients are location-agnostic except grid electricity, which
// returns ErrNotFound for unlisted locations.
type EstimateSource struct{}

// NewEstimateSource returns the built-in estimator.
func NewEstimateSource() *EstimateSource {
	return &EstimateSource{}
}

// Factor implements Source.
func (s *EstimateSource) Factor(_ context.Context, key model.LookupKey) (model.FactorVector, error) {
	co2, ok := s.climate(key)
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "key %s", key)
	}
	return Derive(co2), nil
}

func (s *EstimateSource) climate(key model.LookupKey) (float64, bool) {
	kind, tech, loc := key.Parts()
	if kind == "electricity" {
		if tech != "grid" {
			return 0, false
		}
		v, ok := GridIntensity[loc]
		return v, ok
	}

	table, ok := climateTable[kind]
	if !ok {
		return 0, false
	}
	if v, ok := table[tech]; ok {
		return v, true
	}
	if base, found := strings.CutSuffix(tech, "_recycled"); found {
		if v, ok := table[base]; ok {
			return v * recycledShare, true
		}
	}
	if v, ok := table["*"]; ok {
		return v, true
	}
	switch kind {
	case "fiber", "material":
		return defaultMaterialCO2, true
	}
	return 0, false
}

// Derive expands a climate coefficient into a full category vector.
func Derive(co2 float64) model.FactorVector {
	v := make(model.FactorVector, len(CategoryMultipliers))
	for cat, m := range CategoryMultipliers {
		v[cat] = co2 * m
	}
	return v
}
