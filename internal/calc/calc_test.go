package calc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/factor"
	"github.com/sells-group/lca-cli/internal/inventory"
	"github.com/sells-group/lca-cli/internal/lcatest"
	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/registry"
	"github.com/sells-group/lca-cli/internal/validate"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func smallInventory() *model.Inventory {
	return &model.Inventory{
		ProductID:        "P-1",
		Industry:         "textile",
		Scope:            model.ScopeCradleToGate,
		FunctionalUnitKg: 1,
		Activities: []model.Activity{
			{
				Name: "fiber production: Cotton", Quantity: 1, Unit: model.UnitKg,
				Category: model.CategorySourcing, Key: "fiber/cotton/india", Primary: true,
				Energy: &model.EnergyUse{KWh: 2, Location: "india", RenewableFraction: 0.5},
			},
			{
				Name: "transport leg 1: Truck, 500 km", Quantity: 0.5, Unit: model.UnitTkm,
				Category: model.CategoryTransport, Key: "transport/truck/global",
			},
			{
				Name: "cutting waste: recycling", Quantity: -0.2, Unit: model.UnitKg,
				Category: model.CategoryWaste, Key: "waste/recycling/global", Credit: true,
			},
		},
	}
}

func smallTable() *factor.Cache {
	return factor.NewCache(factor.NewTableSource([]factor.Entry{
		{Key: "fiber/cotton/global", Values: model.FactorVector{"climate_change": 5, "water_use": 100}},
		{Key: "electricity/grid/india", Values: model.FactorVector{"climate_change": 0.7}},
		{Key: "transport/truck/global", Values: model.FactorVector{"climate_change": 0.1}},
		{Key: "waste/recycling/global", Values: model.FactorVector{"climate_change": 0.5}},
	}))
}

func TestCalculate(t *testing.T) {
	res, err := New(smallTable()).Calculate(context.Background(), smallInventory())
	require.NoError(t, err)

	assert.InDelta(t, 5.65, res.Totals["climate_change"], 1e-12)
	assert.InDelta(t, 100, res.Totals["water_use"], 1e-12)
	assert.Equal(t, "kg CO2 eq", res.Units["climate_change"])

	require.Len(t, res.Activities, 3)
	assert.InDelta(t, 5.7, res.Activities[0].Absolute["climate_change"], 1e-12)
	assert.InDelta(t, -0.1, res.Activities[2].Absolute["climate_change"], 1e-12)
	assert.True(t, res.Activities[2].Credit)

	var pct float64
	for _, a := range res.Activities {
		pct += a.Percent["climate_change"]
	}
	assert.InDelta(t, 100, pct, 1e-9)
	assert.Greater(t, res.Activities[0].Percent["climate_change"], 100.0)

	assert.Equal(t, []model.LookupKey{"fiber/cotton/india"}, res.FallbackKeys)
	assert.InDelta(t, 5.7, res.ByStage[model.CategorySourcing]["climate_change"], 1e-12)
	assert.InDelta(t, -0.1, res.ByStage[model.CategoryWaste]["climate_change"], 1e-12)
}

func TestCalculate_RenewableClamped(t *testing.T) {
	inv := smallInventory()
	inv.Activities = inv.Activities[:1]
	inv.Activities[0].Energy.RenewableFraction = 1.4

	res, err := New(smallTable()).Calculate(context.Background(), inv)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Totals["climate_change"], 1e-12)
}

func TestCalculate_ZeroTotalPercent(t *testing.T) {
	inv := &model.Inventory{ProductID: "Z", Activities: []model.Activity{
		{Name: "a", Quantity: 1, Key: "x/a/global", Category: model.CategorySourcing},
		{Name: "b", Quantity: -1, Key: "x/a/global", Category: model.CategoryWaste, Credit: true},
	}}
	cache := factor.NewCache(factor.NewTableSource([]factor.Entry{
		{Key: "x/a/global", Values: model.FactorVector{"climate_change": 2}},
	}))
	res, err := New(cache).Calculate(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Totals["climate_change"])
	assert.Equal(t, 0.0, res.Activities[0].Percent["climate_change"])
}

func TestCalculate_UnresolvedKey(t *testing.T) {
	inv := smallInventory()
	inv.Activities[1].Key = "transport/hovercraft/global"

	_, err := New(smallTable()).Calculate(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, factor.IsNotFound(err))
	assert.Contains(t, err.Error(), "activity 2")
}

func TestCalculate_MissingGrid(t *testing.T) {
	inv := smallInventory()
	inv.Activities[0].Energy.Location = "atlantis"
	cache := factor.NewCache(factor.NewTableSource([]factor.Entry{
		{Key: "fiber/cotton/global", Values: model.FactorVector{"climate_change": 5}},
	}))
	_, err := New(cache).Calculate(context.Background(), inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "electricity")
}

func TestCalculate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(smallTable()).Calculate(ctx, smallInventory())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCalculate_TextileDeterministic(t *testing.T) {
	reg, err := registry.Builtin()
	require.NoError(t, err)
	s, err := reg.GetSchema("textile")
	require.NoError(t, err)

	p := validate.ValidateRecord(s, 1, lcatest.TextileRecord("T-1"))
	require.True(t, p.IsValid, p.ErrorStrings())
	inv, err := inventory.Build(p)
	require.NoError(t, err)
	require.NoError(t, inventory.Check(inv, s.RequiredCategories))

	first, err := New(factor.NewCache(factor.NewEstimateSource())).Calculate(context.Background(), inv)
	require.NoError(t, err)
	assert.Greater(t, first.Totals[model.ImpactClimateChange], 0.0)
	assert.Len(t, first.Totals, len(model.MethodEF31.Categories()))
	assert.Equal(t, model.MethodEF31, first.Method)

	for range 5 {
		again, err := New(factor.NewCache(factor.NewEstimateSource())).Calculate(context.Background(), inv)
		require.NoError(t, err)
		assert.Equal(t, first.Totals, again.Totals)
	}
}

func TestCalculate_ReCiPe(t *testing.T) {
	ctx := context.Background()
	c := New(smallTable(), WithMethod(model.MethodReCiPe))
	assert.Equal(t, model.MethodReCiPe, c.Method())

	res, err := c.Calculate(ctx, smallInventory())
	require.NoError(t, err)
	assert.Equal(t, model.MethodReCiPe, res.Method)
	assert.InDelta(t, 5.65, res.Totals["climate_change"], 1e-12)
	assert.NotContains(t, res.Totals, "water_use")
	assert.Equal(t, "kg CO2 eq", res.Units["climate_change"])

	est := factor.NewCache(factor.NewEstimateSource())
	ef, err := New(est).Calculate(ctx, smallInventory())
	require.NoError(t, err)
	rc, err := New(est, WithMethod(model.MethodReCiPe)).Calculate(ctx, smallInventory())
	require.NoError(t, err)

	assert.Len(t, rc.Totals, len(model.MethodReCiPe.Categories()))
	assert.Contains(t, rc.Totals, "fossil_depletion")
	assert.NotContains(t, rc.Totals, model.ImpactResourceFossils)
	assert.Equal(t, "kg 1,4-DB eq", rc.Units["human_toxicity"])
	assert.Equal(t, ef.Totals[model.ImpactClimateChange], rc.Totals[model.ImpactClimateChange])
}

func TestWithMethod_IgnoresUnknown(t *testing.T) {
	c := New(smallTable(), WithMethod("TRACI"))
	assert.Equal(t, model.DefaultMethod, c.Method())
}

func TestCalculate_GridIntensityFollowsProductionLocation(t *testing.T) {
	reg, err := registry.Builtin()
	require.NoError(t, err)
	s, err := reg.GetSchema("textile")
	require.NoError(t, err)

	climate := make(map[string]float64)
	for _, loc := range []string{"Brazil", "Europe", "India"} {
		rec := lcatest.TextileRecord("T-" + loc)
		for _, col := range []string{
			"production_spinning_location", "production_fabric_location",
			"production_finishing_location", "production_assembly_location",
		} {
			rec[col] = loc
		}
		p := validate.ValidateRecord(s, 1, rec)
		require.True(t, p.IsValid, p.ErrorStrings())
		inv, err := inventory.Build(p)
		require.NoError(t, err)

		res, err := New(factor.NewCache(factor.NewEstimateSource())).Calculate(context.Background(), inv)
		require.NoError(t, err)
		for _, k := range res.FallbackKeys {
			kind, _, _ := k.Parts()
			assert.NotEqual(t, "electricity", kind, "%s: grid key %s fell back", loc, k)
		}
		climate[loc] = res.Totals[model.ImpactClimateChange]
	}

	assert.Less(t, climate["Brazil"], climate["Europe"])
	assert.Less(t, climate["Europe"], climate["India"])
}

func TestCalculate_GridKeyIsNormalized(t *testing.T) {
	inv := smallInventory()
	inv.Activities[0].Energy.Location = "India"

	res, err := New(smallTable()).Calculate(context.Background(), inv)
	require.NoError(t, err)
	assert.InDelta(t, 5.65, res.Totals["climate_change"], 1e-12)
	assert.Equal(t, []model.LookupKey{"fiber/cotton/india"}, res.FallbackKeys)
}

func TestCheckResult(t *testing.T) {
	res := &model.ImpactResult{
		ProductID:        "P",
		FunctionalUnitKg: 0.25,
		Totals:           map[string]float64{"climate_change": 100, "water_use": -3},
		Units:            map[string]string{"climate_change": "kg CO2 eq", "water_use": "m3 depriv."},
	}
	require.NoError(t, CheckResult(res, DefaultBounds()))
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "climate_change of 400 kg CO2 eq per kg exceeds plausible bound 200")
	assert.Contains(t, res.Warnings[1], "water_use total is negative")
}

func TestBoundsFor(t *testing.T) {
	ef := BoundsFor(model.MethodEF31)
	assert.Len(t, ef, len(model.MethodEF31.Categories()))
	assert.Equal(t, 200.0, ef[model.ImpactClimateChange])
	assert.Equal(t, ef, DefaultBounds())

	rc := BoundsFor(model.MethodReCiPe)
	assert.Len(t, rc, len(model.MethodReCiPe.Categories()))
	assert.InDelta(t, 400.0, rc["fossil_depletion"], 1e-9)
	assert.NotContains(t, rc, model.ImpactWaterUse)
}

func TestCheckResult_Plausible(t *testing.T) {
	res := &model.ImpactResult{FunctionalUnitKg: 1, Totals: map[string]float64{"climate_change": 12}}
	require.NoError(t, CheckResult(res, DefaultBounds()))
	assert.Empty(t, res.Warnings)
}

func TestCheckResult_Zero(t *testing.T) {
	err := CheckResult(&model.ImpactResult{Totals: map[string]float64{"climate_change": 0}}, DefaultBounds())
	assert.ErrorIs(t, err, ErrZeroResult)

	err = CheckResult(&model.ImpactResult{}, DefaultBounds())
	assert.ErrorIs(t, err, ErrZeroResult)
}

func TestNeumaier(t *testing.T) {
	var n neumaier
	n.add(1e16)
	n.add(1)
	n.add(-1e16)
	assert.Equal(t, 1.0, n.value())
}
