package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lca-cli/internal/model"
)

func TestBuiltin(t *testing.T) {
	t.Parallel()

	r, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, []string{"battery", "construction", "footwear", "textile"}, r.Industries())

	s, err := r.GetSchema("Textile")
	require.NoError(t, err)
	assert.Equal(t, "textile", s.Industry)
	assert.Equal(t, model.ScopeCradleToGate, s.DefaultScope)

	fibers, ok := s.Section("fibers")
	require.True(t, ok)
	assert.True(t, fibers.Repeatable)
	assert.Equal(t, 5, fibers.MaxItems)

	origin, ok := fibers.Field("origin")
	require.True(t, ok)
	assert.Contains(t, origin.Options, "Bangladesh")

	prod, ok := s.Section("production")
	require.True(t, ok)
	loc, ok := prod.Field("assembly_location")
	require.True(t, ok)
	assert.Equal(t, origin.Options, loc.Options, "anchored option lists resolve")

	assert.Contains(t, s.RequiredColumns(), "fibers_1_percentage")
	assert.NotContains(t, s.RequiredColumns(), "transport_1_mode")
}

func TestGetSchema_Unknown(t *testing.T) {
	t.Parallel()

	r := New()
	_, err := r.GetSchema("aerospace")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownIndustry))
}

func TestLoadDir_OverridesBuiltin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := `
industry: textile
name: Minimal textile
sections:
  - id: product
    fields:
      - {id: product_id, type: text, required: true}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "textile.yaml"), []byte(doc), 0o644))

	r, err := Builtin()
	require.NoError(t, err)
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, err := r.GetSchema("textile")
	require.NoError(t, err)
	assert.Equal(t, "Minimal textile", s.Name)
	assert.Len(t, s.Sections, 1)
}

func TestParseSchema_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseSchema([]byte("industry: x\nsections:\n  - id: a\n    fields:\n      - {id: f, type: color}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")

	_, err = ParseSchema([]byte("::not yaml"))
	assert.Error(t, err)
}

func TestLoadSchemaFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadSchemaFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
