package model

import "strings"

// Stage category tags carried by activities.
const (
	CategorySourcing       = "sourcing"
	CategoryTransformation = "transformation"
	CategoryFinishing      = "finishing"
	CategoryAssembly       = "assembly"
	CategoryPackaging      = "packaging"
	CategoryTransport      = "transport"
	CategoryWaste          = "waste"
	CategoryUse            = "use"
	CategoryEndOfLife      = "end_of_life"
)

// Units used in inventories. Builders convert everything into these.
const (
	UnitKg  = "kg"
	UnitKWh = "kWh"
	UnitTkm = "tkm"
	UnitM3  = "m3"
)

// LookupKey identifies a factor vector as kind/technology/location.
type LookupKey string

// NewLookupKey joins already-normalized tokens.
func NewLookupKey(kind, technology, location string) LookupKey {
	return LookupKey(kind + "/" + technology + "/" + location)
}

// Parts splits the key into kind, technology and location.
func (k LookupKey) Parts() (kind, technology, location string) {
	parts := strings.SplitN(string(k), "/", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// WithLocation returns the key with its location token replaced.
func (k LookupKey) WithLocation(location string) LookupKey {
	kind, tech, _ := k.Parts()
	return NewLookupKey(kind, tech, location)
}

// EnergyUse is auxiliary electricity drawn by a process activity.
type EnergyUse struct {
	KWh               float64 `json:"kwh"`
	Location          string  `json:"location"`
	RenewableFraction float64 `json:"renewableFraction"`
}

// Activity is one inventory line.
type Activity struct {
	Name     string     `json:"name"`
	Quantity float64    `json:"quantity"`
	Unit     string     `json:"unit"`
	Category string     `json:"category"`
	Key      LookupKey  `json:"key"`
	Credit   bool       `json:"credit,omitempty"`
	Primary  bool       `json:"primary,omitempty"`
	Energy   *EnergyUse `json:"energy,omitempty"`
}

// Inventory is the ordered activity list for one product.
type Inventory struct {
	ProductID        string     `json:"productId"`
	Industry         string     `json:"industry"`
	Scope            Scope      `json:"scope"`
	FunctionalUnitKg float64    `json:"functionalUnitKg"`
	Activities       []Activity `json:"activities"`
}

// Categories returns the set of category tags present.
func (inv *Inventory) Categories() map[string]bool {
	out := make(map[string]bool)
	for _, a := range inv.Activities {
		out[a.Category] = true
	}
	return out
}

// PrimaryMass sums the quantity of primary-material activities.
func (inv *Inventory) PrimaryMass() float64 {
	var sum float64
	for _, a := range inv.Activities {
		if a.Primary && a.Unit == UnitKg {
			sum += a.Quantity
		}
	}
	return sum
}
