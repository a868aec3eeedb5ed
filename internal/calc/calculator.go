// Package calc turns an activity inventory into impact totals.
package calc

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/inventory"
	"github.com/sells-group/lca-cli/internal/model"
)

// Resolver answers factor lookups with location fallback. factor.Cache
// implements it.
type Resolver interface {
	Resolve(ctx context.Context, key model.LookupKey) (model.FactorVector, model.LookupKey, error)
}

// Calculator computes impacts from a shared Resolver.
type Calculator struct {
	factors Resolver
	method  model.Method
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithMethod selects the impact assessment method. Factor categories the
// method does not report are dropped from results.
func WithMethod(m model.Method) Option {
	return func(c *Calculator) {
		if m.Valid() {
			c.method = m
		}
	}
}

// New returns a Calculator backed by r, reporting model.DefaultMethod
// unless WithMethod says otherwise.
func New(r Resolver, opts ...Option) *Calculator {
	c := &Calculator{factors: r, method: model.DefaultMethod}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Method returns the assessment method in use.
func (c *Calculator) Method() model.Method {
	return c.method
}

// neumaier is a compensated running sum.
type neumaier struct {
	sum, c float64
}

func (n *neumaier) add(x float64) {
	t := n.sum + x
	if math.Abs(n.sum) >= math.Abs(x) {
		n.c += (n.sum - t) + x
	} else {
		n.c += (x - t) + n.sum
	}
	n.sum = t
}

func (n *neumaier) value() float64 {
	return n.sum + n.c
}

type accumulator map[string]*neumaier

func (a accumulator) add(cat string, x float64) {
	n, ok := a[cat]
	if !ok {
		n = &neumaier{}
		a[cat] = n
	}
	n.add(x)
}

func (a accumulator) values() map[string]float64 {
	out := make(map[string]float64, len(a))
	for cat, n := range a {
		out[cat] = n.value()
	}
	return out
}

// Calculate resolves every activity's factors and sums contributions in
// inventory order. Any unresolved key fails the whole product.
func (c *Calculator) Calculate(ctx context.Context, inv *model.Inventory) (*model.ImpactResult, error) {
	if inv == nil {
		return nil, eris.New("calc: nil inventory")
	}

	totals := accumulator{}
	stages := map[string]accumulator{}
	contribs := make([]model.ActivityContribution, 0, len(inv.Activities))
	var fallbacks []model.LookupKey
	seen := map[model.LookupKey]bool{}

	resolve := func(key model.LookupKey) (model.FactorVector, error) {
		v, used, err := c.factors.Resolve(ctx, key)
		if err != nil {
			return nil, err
		}
		if used != key && !seen[key] {
			seen[key] = true
			fallbacks = append(fallbacks, key)
		}
		return v, nil
	}

	for i, a := range inv.Activities {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "calc: interrupted")
		}

		vec, err := resolve(a.Key)
		if err != nil {
			return nil, eris.Wrapf(err, "calc: activity %d (%s) key %s", i+1, a.Name, a.Key)
		}
		abs := make(map[string]float64, len(vec))
		for cat, f := range vec {
			if _, ok := c.method.Unit(cat); ok {
				abs[cat] = a.Quantity * f
			}
		}

		if e := a.Energy; e != nil && e.KWh > 0 {
			gridKey := inventory.Key("electricity", "grid", e.Location)
			grid, err := resolve(gridKey)
			if err != nil {
				return nil, eris.Wrapf(err, "calc: activity %d (%s) electricity %s", i+1, a.Name, gridKey)
			}
			effective := e.KWh * (1 - clamp01(e.RenewableFraction))
			for cat, f := range grid {
				if _, ok := c.method.Unit(cat); ok {
					abs[cat] += effective * f
				}
			}
		}

		stage, ok := stages[a.Category]
		if !ok {
			stage = accumulator{}
			stages[a.Category] = stage
		}
		for _, cat := range sortedKeys(abs) {
			totals.add(cat, abs[cat])
			stage.add(cat, abs[cat])
		}

		contribs = append(contribs, model.ActivityContribution{
			Index:    i,
			Name:     a.Name,
			Category: a.Category,
			Key:      a.Key,
			Credit:   a.Credit,
			Absolute: abs,
		})
	}

	res := &model.ImpactResult{
		ProductID:        inv.ProductID,
		Method:           c.method,
		FunctionalUnitKg: inv.FunctionalUnitKg,
		Scope:            inv.Scope,
		Totals:           totals.values(),
		Units:            map[string]string{},
		Activities:       contribs,
		ByStage:          make(map[string]map[string]float64, len(stages)),
		FallbackKeys:     fallbacks,
	}
	for cat := range res.Totals {
		res.Units[cat], _ = c.method.Unit(cat)
	}
	for name, acc := range stages {
		res.ByStage[name] = acc.values()
	}

	for i := range res.Activities {
		ac := &res.Activities[i]
		ac.Percent = make(map[string]float64, len(ac.Absolute))
		for cat, v := range ac.Absolute {
			if t := res.Totals[cat]; t != 0 {
				ac.Percent[cat] = v / t * 100
			} else {
				ac.Percent[cat] = 0
			}
		}
	}
	return res, nil
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
