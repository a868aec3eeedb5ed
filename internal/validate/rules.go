package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/lca-cli/internal/model"
)

// BusinessRules evaluates the schema's invariants, repeatable-section
// minimums and quality signals against a structurally parsed product.
// Errors block calculation; warnings never affect validity.
func BusinessRules(s *model.Schema, p *model.ValidatedProduct) (errs, warns []model.Issue) {
	for i := range s.Sections {
		sec := &s.Sections[i]
		if !sec.Repeatable || sec.MinItems < 1 {
			continue
		}
		if got := len(p.Items(sec.ID)); got < sec.MinItems {
			errs = append(errs, model.Issue{
				Row:     p.Row,
				Rule:    "required section",
				Message: fmt.Sprintf("section %q needs at least %d item(s), found %d", sec.ID, sec.MinItems, got),
			})
		}
	}

	for _, inv := range s.Invariants {
		if msg, failed := checkInvariant(inv, p); failed {
			errs = append(errs, model.Issue{Row: p.Row, Rule: inv.Name, Message: msg})
		}
	}

	for _, sig := range s.Signals {
		warns = append(warns, detectSignal(s, sig, p)...)
	}
	return errs, warns
}

// sumRefs adds every present numeric value addressed by refs. Fields of
// repeatable sections are summed across items.
func sumRefs(refs []model.FieldRef, p *model.ValidatedProduct) (sum float64, present int) {
	for _, ref := range refs {
		for _, item := range p.Items(ref.Section) {
			if v, ok := item.Number(ref.Field); ok {
				sum += v
				present++
			}
		}
	}
	return sum, present
}

// declaredRefs counts refs with at least one value.
func declaredRefs(refs []model.FieldRef, p *model.ValidatedProduct) int {
	n := 0
	for _, ref := range refs {
		if _, present := sumRefs([]model.FieldRef{ref}, p); present > 0 {
			n++
		}
	}
	return n
}

func checkInvariant(inv model.Invariant, p *model.ValidatedProduct) (string, bool) {
	if inv.Gate != nil {
		if on, ok := p.Bool(inv.Gate.Section, inv.Gate.Field); !ok || !on {
			return "", false
		}
	}

	sum, present := sumRefs(inv.Fields, p)
	switch inv.Kind {
	case model.InvariantSum:
		// Ungated groups with nothing present are left to the required checks.
		if present == 0 && (inv.Optional || inv.Gate == nil) {
			return "", false
		}
		if math.Abs(sum-inv.Expected) > inv.Tolerance {
			return fmt.Sprintf("percentages sum to %.1f%%, must equal %s%%", sum, formatNum(inv.Expected)), true
		}
	case model.InvariantMassBalance:
		// Optional balances only apply once every component is declared.
		if inv.Optional && declaredRefs(inv.Fields, p) < len(inv.Fields) {
			return "", false
		}
		total, ok := p.Number(inv.Reference.Section, inv.Reference.Field)
		if !ok {
			return "", false
		}
		if math.Abs(sum-total) > inv.Tolerance {
			return fmt.Sprintf("component weights sum to %s, declared total is %s (tolerance %s)",
				formatNum(sum), formatNum(total), formatNum(inv.Tolerance)), true
		}
	}
	return "", false
}

func detectSignal(s *model.Schema, sig model.Signal, p *model.ValidatedProduct) []model.Issue {
	sec, _ := s.Section(sig.Section)
	label := sig.Field
	if sec != nil {
		if f, ok := sec.Field(sig.Field); ok && f.Label != "" {
			label = strings.ToLower(f.Label)
		}
	}

	warn := func(col, msg string) model.Issue {
		return model.Issue{Row: p.Row, Column: col, Code: sig.Kind, Message: msg}
	}

	switch sig.Kind {
	case model.SignalEnergyMixOmitted:
		if _, ok := p.Number(sig.Section, sig.Field); !ok {
			return []model.Issue{warn(model.ColumnName(sec, 1, sig.Field),
				label+" not provided, grid average mix assumed")}
		}
	case model.SignalTransportOmitted:
		if len(p.Items(sig.Section)) == 0 {
			return []model.Issue{warn("", "no transport legs declared")}
		}
	case model.SignalUsePhaseExcluded:
		if on, ok := p.Bool(sig.Section, sig.Field); !ok || !on {
			return []model.Issue{warn("", "use phase excluded from the assessment")}
		}
		if !p.Scope.IncludesUse() {
			return []model.Issue{warn(model.ColumnName(sec, 1, sig.Field),
				fmt.Sprintf("use phase declared but ignored under %s scope", p.Scope))}
		}
	case model.SignalGenericLocation:
		var out []model.Issue
		for n, item := range p.Items(sig.Section) {
			v, ok := item.Text(sig.Field)
			if !ok {
				continue
			}
			for _, generic := range sig.Values {
				if strings.EqualFold(v, generic) {
					out = append(out, warn(model.ColumnName(sec, p.ItemNumber(sig.Section, n), sig.Field),
						fmt.Sprintf("generic location %q used for %s", v, label)))
					break
				}
			}
		}
		return out
	}
	return nil
}
