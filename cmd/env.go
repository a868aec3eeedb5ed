package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/config"
	"github.com/sells-group/lca-cli/internal/factor"
	"github.com/sells-group/lca-cli/internal/registry"
	"github.com/sells-group/lca-cli/internal/resilience"
	"github.com/sells-group/lca-cli/internal/store"
	"github.com/sells-group/lca-cli/pkg/factorapi"
)

// initStore opens and migrates the report database.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// loadRegistry returns the built-in schemas plus any from schemas.dir.
func loadRegistry() (*registry.Registry, error) {
	reg, err := registry.Builtin()
	if err != nil {
		return nil, err
	}
	if cfg.Schemas.Dir != "" {
		n, err := reg.LoadDir(cfg.Schemas.Dir)
		if err != nil {
			return nil, err
		}
		zap.L().Debug("loaded schema overrides", zap.String("dir", cfg.Schemas.Dir), zap.Int("count", n))
	}
	return reg, nil
}

// buildSource wires the configured factor source. The returned closer is
// never nil.
func buildSource(ctx context.Context, fc config.FactorsConfig, st factor.FactorStore) (factor.Source, func(), error) {
	noop := func() {}
	var src factor.Source
	closer := noop

	switch fc.Source {
	case config.SourceBuiltin:
		return factor.NewEstimateSource(), noop, nil
	case config.SourceTable:
		t, err := factor.LoadTableSource(fc.TablePath)
		if err != nil {
			return nil, noop, err
		}
		zap.L().Info("loaded factor table", zap.String("path", fc.TablePath), zap.Int("keys", t.Len()))
		src = t
	case config.SourceSQLite:
		if st == nil {
			return nil, noop, eris.New("factor source sqlite needs a store")
		}
		src = factor.NewStoreSource(st)
	case config.SourcePostgres:
		pg, err := factor.NewPostgresSource(ctx, fc.PostgresURL)
		if err != nil {
			return nil, noop, err
		}
		src, closer = pg, pg.Close
	case config.SourceRemote:
		client := factorapi.NewClient(fc.APIKey, factorapi.WithBaseURL(fc.RemoteURL))
		src = factor.NewRemoteSource(client, factor.RemoteConfig{
			RateLimit: fc.RateLimit,
			Burst:     fc.RateBurst,
			Retry:     resilience.FromRetryConfig(fc.RetryMaxAttempts, fc.RetryInitialBackoffMs, fc.RetryMaxBackoffMs),
			Circuit:   resilience.FromCircuitConfig(fc.CircuitFailureThreshold, fc.CircuitResetTimeoutSecs),
		})
	default:
		return nil, noop, eris.Errorf("unknown factor source %q", fc.Source)
	}

	if fc.Fallback {
		src = factor.Chain(src, factor.NewEstimateSource())
	}
	return src, closer, nil
}

// writeJSON writes v indented to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create output file %s", path)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode json")
}
