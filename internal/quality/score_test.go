package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lca-cli/internal/lcatest"
	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/registry"
	"github.com/sells-group/lca-cli/internal/validate"
)

func TestScore_Minimal(t *testing.T) {
	reg, err := registry.Builtin()
	require.NoError(t, err)
	s, err := reg.GetSchema("textile")
	require.NoError(t, err)

	p := validate.ValidateRecord(s, 1, lcatest.MinimalTextileRecord("T-MIN"))
	require.True(t, p.IsValid, p.ErrorStrings())

	q := Score(p)
	assert.Equal(t, 65.0, q.Score)
	assert.Equal(t, RatingFair, q.Rating)
	assert.Len(t, q.Deductions, 5)
}

func TestScore_Complete(t *testing.T) {
	reg, err := registry.Builtin()
	require.NoError(t, err)
	s, err := reg.GetSchema("textile")
	require.NoError(t, err)

	q := Score(validate.ValidateRecord(s, 1, lcatest.TextileRecord("T-1")))
	assert.Equal(t, 100.0, q.Score)
	assert.Equal(t, RatingExcellent, q.Rating)
	assert.Empty(t, q.Deductions)
}

func TestScore_UsePhaseOutsideScope(t *testing.T) {
	reg, err := registry.Builtin()
	require.NoError(t, err)
	s, err := reg.GetSchema("textile")
	require.NoError(t, err)

	rec := lcatest.TextileRecord("T-GATE")
	rec["product_scope"] = "cradle-to-gate"
	q := Score(validate.ValidateRecord(s, 1, rec))
	assert.Equal(t, 90.0, q.Score)
	assert.Equal(t, RatingExcellent, q.Rating)
	require.Len(t, q.Deductions, 1)
	assert.Equal(t, model.SignalUsePhaseExcluded, q.Deductions[0].Signal)
}

func TestScore_ClampsAndIgnoresUncoded(t *testing.T) {
	p := &model.ValidatedProduct{}
	for range 8 {
		p.Warnings = append(p.Warnings, model.Issue{Code: model.SignalTransportOmitted, Message: "no transport legs declared"})
	}
	p.Warnings = append(p.Warnings, model.Issue{Message: "plain warning"})

	q := Score(p)
	assert.Equal(t, 0.0, q.Score)
	assert.Equal(t, RatingPoor, q.Rating)
	assert.Len(t, q.Deductions, 8)
}

func TestRate(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, RatingExcellent},
		{90, RatingExcellent},
		{89.9, RatingGood},
		{75, RatingGood},
		{74, RatingFair},
		{50, RatingFair},
		{49.5, RatingPoor},
		{0, RatingPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rate(tt.score), "score %v", tt.score)
	}
}
