package model

// FactorVector maps impact category to a per-unit coefficient.
type FactorVector map[string]float64

// Scale returns a copy of v multiplied by f.
func (v FactorVector) Scale(f float64) FactorVector {
	out := make(FactorVector, len(v))
	for k, c := range v {
		out[k] = c * f
	}
	return out
}

// Impact categories shared by the built-in estimates. See Method for the
// full category list of each assessment method.
const (
	ImpactClimateChange             = "climate_change"
	ImpactOzoneDepletion            = "ozone_depletion"
	ImpactAcidification             = "acidification"
	ImpactEutrophicationFresh       = "eutrophication_freshwater"
	ImpactEutrophicationMarine      = "eutrophication_marine"
	ImpactEutrophicationTerrestrial = "eutrophication_terrestrial"
	ImpactParticulateMatter         = "particulate_matter"
	ImpactPhotochemicalOzone        = "photochemical_ozone_formation"
	ImpactWaterUse                  = "water_use"
	ImpactLandUse                   = "land_use"
	ImpactResourceFossils           = "resource_use_fossils"
	ImpactResourceMinerals          = "resource_use_minerals"
	ImpactHumanToxicityCancer       = "human_toxicity_cancer"
	ImpactHumanToxicityNonCancer    = "human_toxicity_non_cancer"
	ImpactIonisingRadiation         = "ionising_radiation"
	ImpactEcotoxicityFreshwater     = "ecotoxicity_freshwater"
)

// ActivityContribution is one activity's share of the product totals.
type ActivityContribution struct {
	Index    int                `json:"index"`
	Name     string             `json:"name"`
	Category string             `json:"category"`
	Key      LookupKey          `json:"key"`
	Credit   bool               `json:"credit,omitempty"`
	Absolute map[string]float64 `json:"absolute"`
	Percent  map[string]float64 `json:"percent"`
}

// Deduction records one data-quality penalty.
type Deduction struct {
	Signal SignalKind `json:"signal"`
	Points float64    `json:"points"`
	Detail string     `json:"detail"`
}

// DataQuality is the completeness assessment of a product's inputs.
type DataQuality struct {
	Score      float64     `json:"score"`
	Rating     string      `json:"rating"`
	Deductions []Deduction `json:"deductions,omitempty"`
}

// ImpactResult is the calculated outcome for one product.
type ImpactResult struct {
	ProductID        string                        `json:"productId"`
	Method           Method                        `json:"method"`
	FunctionalUnitKg float64                       `json:"functionalUnitKg"`
	Scope            Scope                         `json:"scope"`
	Totals           map[string]float64            `json:"totals"`
	Units            map[string]string             `json:"units"`
	Activities       []ActivityContribution        `json:"activities"`
	ByStage          map[string]map[string]float64 `json:"byStage"`
	FallbackKeys     []LookupKey                   `json:"fallbackKeys,omitempty"`
	Warnings         []string                      `json:"warnings,omitempty"`
	DataQuality      *DataQuality                  `json:"dataQuality,omitempty"`
}
