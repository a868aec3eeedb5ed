package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// MinPrimaryMassKg is the smallest plausible primary-material mass. Anything
// below it usually means grams were entered where kilograms were expected.
const MinPrimaryMassKg = 1e-6

// Check enforces structural invariants on a built inventory before any
// factor lookups happen. All problems are reported together.
func Check(inv *model.Inventory, requiredCategories []string) error {
	if inv == nil || len(inv.Activities) == 0 {
		return eris.New("inventory: inventory is empty")
	}

	var problems []string

	present := inv.Categories()
	var missing []string
	for _, c := range requiredCategories {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		problems = append(problems, "missing required categories: "+strings.Join(missing, ", "))
	}

	for i, a := range inv.Activities {
		if a.Key == "" {
			problems = append(problems, fmt.Sprintf("activity %d (%s) has no lookup key", i, a.Name))
		}
		if a.Quantity < 0 && !a.Credit {
			problems = append(problems, fmt.Sprintf("activity %d (%s) has a negative quantity", i, a.Name))
		}
		if a.Energy != nil && a.Energy.KWh < 0 {
			problems = append(problems, fmt.Sprintf("activity %d (%s) has negative energy", i, a.Name))
		}
	}

	if m := inv.PrimaryMass(); m <= MinPrimaryMassKg {
		problems = append(problems, fmt.Sprintf("primary material mass %g kg is degenerate", m))
	}

	if len(problems) > 0 {
		return eris.Errorf("inventory: %s", strings.Join(problems, "; "))
	}
	return nil
}
