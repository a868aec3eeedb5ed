package factor

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// FactorStore is implemented by persistent factor tables.
type FactorStore interface {
	LookupFactor(ctx context.Context, key model.LookupKey) (model.FactorVector, bool, error)
}

// StoreSource adapts a FactorStore.
type StoreSource struct {
	store FactorStore
}

// NewStoreSource wraps st.
func NewStoreSource(st FactorStore) *StoreSource {
	return &StoreSource{store: st}
}

// Factor implements Source.
func (s *StoreSource) Factor(ctx context.Context, key model.LookupKey) (model.FactorVector, error) {
	v, ok, err := s.store.LookupFactor(ctx, key)
	if err != nil {
		return nil, eris.Wrapf(err, "factor: store lookup %s", key)
	}
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "key %s", key)
	}
	return v, nil
}
