package model

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Method is a life-cycle impact assessment method. It fixes which impact
// categories a result reports and their units.
type Method string

const (
	MethodEF31   Method = "EF3.1"
	MethodReCiPe Method = "ReCiPe"
)

// DefaultMethod is used when no method is configured.
const DefaultMethod = MethodEF31

// Category describes one impact category of a method.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Indicator string `json:"indicator"`
	Unit      string `json:"unit"`
}

var methodCategories = map[Method][]Category{
	MethodEF31: {
		{ImpactClimateChange, "climate change", "GWP", "kg CO2 eq"},
		{ImpactOzoneDepletion, "ozone depletion", "ODP", "kg CFC-11 eq"},
		{ImpactHumanToxicityCancer, "human toxicity: cancer", "HT-c", "CTUh"},
		{ImpactHumanToxicityNonCancer, "human toxicity: non-cancer", "HT-nc", "CTUh"},
		{ImpactParticulateMatter, "particulate matter", "PM", "disease incidence"},
		{ImpactIonisingRadiation, "ionising radiation", "IR", "kBq U235 eq"},
		{ImpactPhotochemicalOzone, "photochemical ozone formation", "POF", "kg NMVOC eq"},
		{ImpactAcidification, "acidification", "AP", "mol H+ eq"},
		{ImpactEutrophicationTerrestrial, "eutrophication: terrestrial", "EP-t", "mol N eq"},
		{ImpactEutrophicationFresh, "eutrophication: freshwater", "EP-fw", "kg P eq"},
		{ImpactEutrophicationMarine, "eutrophication: marine", "EP-m", "kg N eq"},
		{ImpactEcotoxicityFreshwater, "ecotoxicity: freshwater", "ET-fw", "CTUe"},
		{ImpactLandUse, "land use", "LU", "Pt"},
		{ImpactWaterUse, "water use", "WU", "m3 world eq"},
		{ImpactResourceMinerals, "resource use: minerals and metals", "RU-mm", "kg Sb eq"},
		{ImpactResourceFossils, "resource use: fossils", "RU-f", "MJ"},
	},
	MethodReCiPe: {
		{ImpactClimateChange, "climate change", "GWP100", "kg CO2 eq"},
		{ImpactOzoneDepletion, "ozone depletion", "ODP", "kg CFC-11 eq"},
		{"terrestrial_acidification", "terrestrial acidification", "TAP", "kg SO2 eq"},
		{"freshwater_eutrophication", "freshwater eutrophication", "FEP", "kg P eq"},
		{"marine_eutrophication", "marine eutrophication", "MEP", "kg N eq"},
		{"human_toxicity", "human toxicity", "HTPinf", "kg 1,4-DB eq"},
		{"photochemical_oxidant_formation", "photochemical oxidant formation", "POFP", "kg NMVOC"},
		{"particulate_matter_formation", "particulate matter formation", "PMFP", "kg PM10 eq"},
		{"terrestrial_ecotoxicity", "terrestrial ecotoxicity", "TETP", "kg 1,4-DB eq"},
		{"freshwater_ecotoxicity", "freshwater ecotoxicity", "FETP", "kg 1,4-DB eq"},
		{"marine_ecotoxicity", "marine ecotoxicity", "METP", "kg 1,4-DB eq"},
		{ImpactIonisingRadiation, "ionising radiation", "IRP_HE", "kg U235 eq"},
		{"agricultural_land_occupation", "agricultural land occupation", "ALOP", "m2a"},
		{"urban_land_occupation", "urban land occupation", "ULOP", "m2a"},
		{"natural_land_transformation", "natural land transformation", "NLTP", "m2"},
		{"water_depletion", "water depletion", "WDP", "m3"},
		{"metal_depletion", "metal depletion", "MDP", "kg Fe eq"},
		{"fossil_depletion", "fossil depletion", "FDP", "kg oil eq"},
	},
}

// Methods lists the supported methods, default first.
func Methods() []Method {
	return []Method{MethodEF31, MethodReCiPe}
}

// ParseMethod matches s case-insensitively, ignoring spaces and dots.
// An empty string selects DefaultMethod.
func ParseMethod(s string) (Method, error) {
	norm := func(v string) string {
		return strings.NewReplacer(" ", "", ".", "", "-", "").Replace(strings.ToLower(v))
	}
	want := norm(s)
	if want == "" {
		return DefaultMethod, nil
	}
	for _, m := range Methods() {
		if norm(string(m)) == want {
			return m, nil
		}
	}
	return "", eris.Errorf("model: unknown impact method %q", s)
}

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	return slices.Contains(Methods(), m)
}

// Categories returns the method's categories in reporting order.
func (m Method) Categories() []Category {
	return slices.Clone(methodCategories[m])
}

// Unit returns the unit of category cat, and false when the method does
// not report cat.
func (m Method) Unit(cat string) (string, bool) {
	for _, c := range methodCategories[m] {
		if c.ID == cat {
			return c.Unit, true
		}
	}
	return "", false
}

// Units maps each category of the method to its unit.
func (m Method) Units() map[string]string {
	out := make(map[string]string, len(methodCategories[m]))
	for _, c := range methodCategories[m] {
		out[c.ID] = c.Unit
	}
	return out
}
