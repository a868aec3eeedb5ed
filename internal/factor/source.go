// Package factor resolves lookup keys to per-unit impact factor vectors.
// Sources answer single lookups; the Cache in front of them is shared by
// every worker of a batch.
package factor

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// ErrNotFound is returned by a Source that has no vector for a key.
var ErrNotFound = eris.New("factor: not found")

// Source answers factor lookups. Implementations must be safe for
// concurrent use and free of side effects.
type Source interface {
	Factor(ctx context.Context, key model.LookupKey) (model.FactorVector, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context, key model.LookupKey) (model.FactorVector, error)

// Factor implements Source.
func (f SourceFunc) Factor(ctx context.Context, key model.LookupKey) (model.FactorVector, error) {
	return f(ctx, key)
}

// IsNotFound reports whether err means the key is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Chain asks each source in order and returns the first hit. Any error
// other than ErrNotFound stops the chain.
func Chain(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context, key model.LookupKey) (model.FactorVector, error) {
		for _, s := range sources {
			v, err := s.Factor(ctx, key)
			if err == nil {
				return v, nil
			}
			if !IsNotFound(err) {
				return nil, err
			}
		}
		return nil, eris.Wrapf(ErrNotFound, "key %s", key)
	})
}
