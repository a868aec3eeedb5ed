// Package registry holds the industry schemas the validator and inventory
// builders are driven by.
package registry

import (
	"embed"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lca-cli/internal/model"
)

//go:embed schemas/*.yaml
var builtinFS embed.FS

// ErrUnknownIndustry is returned when no schema is registered for an industry.
var ErrUnknownIndustry = eris.New("registry: unknown industry")

// Registry is a concurrency-safe set of schemas keyed by industry id.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*model.Schema
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{schemas: make(map[string]*model.Schema)}
}

// Builtin returns a registry preloaded with the embedded industry schemas.
func Builtin() (*Registry, error) {
	r := New()
	entries, err := builtinFS.ReadDir("schemas")
	if err != nil {
		return nil, eris.Wrap(err, "registry: read embedded schemas")
	}
	for _, e := range entries {
		data, err := builtinFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "registry: read %s", e.Name())
		}
		s, err := ParseSchema(data)
		if err != nil {
			return nil, eris.Wrapf(err, "registry: parse %s", e.Name())
		}
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ParseSchema decodes and validates a YAML schema document.
func ParseSchema(data []byte) (*model.Schema, error) {
	var s model.Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal schema")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchemaFile reads a YAML schema from disk.
func LoadSchemaFile(path string) (*model.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read schema file %s", path)
	}
	return ParseSchema(data)
}

// LoadDir registers every *.yaml schema in dir, replacing built-ins with the
// same industry id.
func (r *Registry) LoadDir(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return 0, eris.Wrap(err, "registry: glob schema dir")
	}
	for _, path := range matches {
		s, err := LoadSchemaFile(path)
		if err != nil {
			return 0, err
		}
		if err := r.Register(s); err != nil {
			return 0, err
		}
		zap.L().Debug("registry: loaded schema file",
			zap.String("industry", s.Industry),
			zap.String("path", path),
		)
	}
	return len(matches), nil
}

// Register adds or replaces a schema.
func (r *Registry) Register(s *model.Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[strings.ToLower(s.Industry)] = s
	return nil
}

// GetSchema returns the schema for an industry id (case-insensitive).
func (r *Registry) GetSchema(industryID string) (*model.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[strings.ToLower(strings.TrimSpace(industryID))]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownIndustry, "industry %q", industryID)
	}
	return s, nil
}

// Industries lists registered industry ids in sorted order.
func (r *Registry) Industries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
