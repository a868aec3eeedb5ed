// Package lcatest provides canned records for tests across packages.
package lcatest

import (
	"sort"

	"github.com/sells-group/lca-cli/internal/model"
)

// TextileRecord returns a complete, valid textile row.
func TextileRecord(productID string) model.Record {
	return model.Record{
		"product_product_id":   productID,
		"product_name":         "Basic tee",
		"product_weight_grams": "250",
		"product_scope":        "cradle-to-grave",

		"fibers_1_material":   "Cotton",
		"fibers_1_percentage": "60",
		"fibers_1_origin":     "India",
		"fibers_2_material":   "Polyester",
		"fibers_2_percentage": "40",
		"fibers_2_origin":     "China",

		"yarns_1_spinning_method": "Ring spinning",
		"yarns_1_count_nm":        "50",
		"yarns_1_percentage":      "100",

		"fabrics_1_construction_method": "Knitting",
		"fabrics_1_percentage":          "100",
		"fabrics_1_finishing_method":    "Standard finishing",
		"fabrics_1_coloring_method":     "Batch dyeing",
		"fabrics_1_color_depth":         "Medium",

		"production_spinning_location":          "India",
		"production_spinning_renewable_energy":  "10",
		"production_fabric_location":            "Bangladesh",
		"production_fabric_renewable_energy":    "20",
		"production_finishing_location":         "Bangladesh",
		"production_finishing_renewable_energy": "20",
		"production_assembly_location":          "Bangladesh",
		"production_assembly_renewable_energy":  "30",

		"manufacturing_cutting_waste_percentage":     "15",
		"manufacturing_waste_recycled_percentage":    "50",
		"manufacturing_waste_incinerated_percentage": "20",
		"manufacturing_waste_landfilled_percentage":  "30",
		"manufacturing_treatment_1":                  "Softening",

		"packaging_material":     "Cardboard",
		"packaging_weight_grams": "40",

		"transport_1_mode":        "Truck",
		"transport_1_distance_km": "500",
		"transport_2_mode":        "Container ship",
		"transport_2_distance_km": "12000",

		"use_phase_include":                 "true",
		"use_phase_washing_temperature":     "40",
		"use_phase_drying_method":           "Line dry",
		"use_phase_ironing":                 "false",
		"use_phase_lifetime_washing_cycles": "50",

		"end_of_life_include":                "yes",
		"end_of_life_recycled_percentage":    "20",
		"end_of_life_incinerated_percentage": "30",
		"end_of_life_landfill_percentage":    "50",
	}
}

// MinimalTextileRecord returns a valid textile row with no transport legs
// and no renewable-energy shares.
func MinimalTextileRecord(productID string) model.Record {
	rec := TextileRecord(productID)
	for col := range rec {
		switch col {
		case "transport_1_mode", "transport_1_distance_km",
			"transport_2_mode", "transport_2_distance_km",
			"production_spinning_renewable_energy",
			"production_fabric_renewable_energy",
			"production_finishing_renewable_energy",
			"production_assembly_renewable_energy":
			delete(rec, col)
		}
	}
	return rec
}

// FootwearRecord returns a complete, valid footwear row.
func FootwearRecord(productID string) model.Record {
	return model.Record{
		"product_product_id":         productID,
		"product_weight_grams":       "800",
		"product_upper_weight_grams": "350",
		"product_sole_weight_grams":  "450",

		"upper_materials_1_material":   "Leather",
		"upper_materials_1_percentage": "70",
		"upper_materials_1_origin":     "Brazil",
		"upper_materials_2_material":   "Textile",
		"upper_materials_2_percentage": "30",

		"sole_materials_1_material":   "Rubber",
		"sole_materials_1_percentage": "100",

		"manufacturing_assembly_location":        "Vietnam",
		"manufacturing_renewable_energy":         "15",
		"manufacturing_cutting_waste_percentage": "10",

		"packaging_material":     "Cardboard",
		"packaging_weight_grams": "150",

		"transport_1_mode":        "Container ship",
		"transport_1_distance_km": "15000",
	}
}

// ConstructionRecord returns a complete, valid construction row.
func ConstructionRecord(productID string) model.Record {
	return model.Record{
		"product_product_id":             productID,
		"product_weight_kg":              "1000",
		"main_material_type":             "Concrete",
		"main_material_percentage":       "90",
		"main_material_recycled_content": "5",
		"main_material_origin":           "Europe",
		"additives_1_type":               "Fly ash",
		"additives_1_percentage":         "8",
		"additives_2_type":               "Superplasticizer",
		"additives_2_percentage":         "2",

		"manufacturing_production_location": "Europe",
		"manufacturing_energy_source":       "Natural gas",
		"manufacturing_renewable_share":     "25",

		"transport_1_mode":        "Truck",
		"transport_1_distance_km": "80",
	}
}

// BatteryRecord returns a complete, valid battery row.
func BatteryRecord(productID string) model.Record {
	return model.Record{
		"product_product_id":   productID,
		"product_weight_kg":    "400",
		"product_capacity_kwh": "60",
		"product_battery_type": "Li-ion NMC",

		"cathode_chemistry":          "NMC811",
		"cathode_percentage":         "30",
		"cathode_recycled_content":   "10",
		"anode_material":             "Graphite",
		"anode_percentage":           "20",
		"electrolyte_type":           "LiPF6 in carbonate",
		"electrolyte_percentage":     "15",
		"separator_material":         "Polyethylene",
		"separator_percentage":       "5",
		"housing_cell_format":        "Prismatic",
		"housing_housing_material":   "Aluminum",
		"housing_housing_percentage": "30",

		"manufacturing_cell_location":         "China",
		"manufacturing_cell_renewable_energy": "20",
		"manufacturing_pack_location":         "Europe",
		"manufacturing_pack_renewable_energy": "60",

		"transport_1_mode":        "Container ship",
		"transport_1_distance_km": "18000",
		"transport_2_mode":        "Truck",
		"transport_2_distance_km": "600",
	}
}

// Headers returns the union of record columns in sorted order.
func Headers(recs ...model.Record) []string {
	seen := make(map[string]bool)
	for _, r := range recs {
		for col := range r {
			seen[col] = true
		}
	}
	out := make([]string, 0, len(seen))
	for col := range seen {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}
