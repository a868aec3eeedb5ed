package calc

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/factor"
	"github.com/sells-group/lca-cli/internal/model"
)

// ErrZeroResult means every category total is zero.
var ErrZeroResult = eris.New("calc: every impact total is zero")

// Bounds are plausibility ceilings per kg of functional unit.
type Bounds map[string]float64

// maxClimatePerKg is the ceiling for kg CO2 eq per kg of product.
const maxClimatePerKg = 200.0

// DefaultBounds returns the bounds of model.DefaultMethod.
func DefaultBounds() Bounds {
	return BoundsFor(model.DefaultMethod)
}

// BoundsFor scales the climate ceiling by the multiplier of each
// category method m reports.
func BoundsFor(m model.Method) Bounds {
	b := Bounds{}
	for _, c := range m.Categories() {
		if mul, ok := factor.CategoryMultipliers[c.ID]; ok {
			b[c.ID] = maxClimatePerKg * mul
		}
	}
	return b
}

// CheckResult appends plausibility warnings to res. It returns
// ErrZeroResult when nothing was computed.
func CheckResult(res *model.ImpactResult, bounds Bounds) error {
	zero := true
	for _, v := range res.Totals {
		if v != 0 {
			zero = false
			break
		}
	}
	if zero {
		return eris.Wrapf(ErrZeroResult, "product %s", res.ProductID)
	}

	for _, cat := range sortedKeys(res.Totals) {
		v := res.Totals[cat]
		unit := res.Units[cat]
		if v < 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s total is negative (%.4g %s), credits exceed burdens", cat, v, unit))
		}
		limit, ok := bounds[cat]
		if !ok || res.FunctionalUnitKg <= 0 {
			continue
		}
		if perKg := math.Abs(v) / res.FunctionalUnitKg; perKg > limit {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s of %.4g %s per kg exceeds plausible bound %.4g", cat, perKg, unit, limit))
		}
	}
	return nil
}
