package factor

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresSource. pgxmock
// satisfies it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

const (
	pgCreateFactors = `CREATE TABLE IF NOT EXISTS lca_factors (
	key      TEXT NOT NULL,
	category TEXT NOT NULL,
	value    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (key, category)
)`
	pgSelectFactor = `SELECT category, value FROM lca_factors WHERE key = $1`
	pgUpsertFactor = `INSERT INTO lca_factors (key, category, value) VALUES ($1, $2, $3)
ON CONFLICT (key, category) DO UPDATE SET value = EXCLUDED.value`
)

// PostgresSource reads factor vectors from a shared lca_factors table.
type PostgresSource struct {
	pool Pool
}

// NewPostgresSource connects to url and ensures the factor table exists.
func NewPostgresSource(ctx context.Context, url string) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, eris.Wrap(err, "factor: parse postgres config")
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "factor: connect postgres")
	}
	s := NewPostgresSourceFromPool(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresSourceFromPool wraps an existing pool.
func NewPostgresSourceFromPool(pool Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Migrate creates the factor table if needed.
func (s *PostgresSource) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgCreateFactors); err != nil {
		return eris.Wrap(err, "factor: create lca_factors")
	}
	return nil
}

// Factor implements Source.
func (s *PostgresSource) Factor(ctx context.Context, key model.LookupKey) (model.FactorVector, error) {
	rows, err := s.pool.Query(ctx, pgSelectFactor, string(key))
	if err != nil {
		return nil, eris.Wrapf(err, "factor: query %s", key)
	}
	defer rows.Close()

	v := model.FactorVector{}
	for rows.Next() {
		var cat string
		var val float64
		if err := rows.Scan(&cat, &val); err != nil {
			return nil, eris.Wrapf(err, "factor: scan %s", key)
		}
		v[cat] = val
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "factor: rows %s", key)
	}
	if len(v) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "key %s", key)
	}
	return v, nil
}

// Import upserts entries and returns the number of category values written.
func (s *PostgresSource) Import(ctx context.Context, entries []Entry) (int, error) {
	n := 0
	for _, e := range entries {
		for cat, val := range e.Values {
			if _, err := s.pool.Exec(ctx, pgUpsertFactor, string(e.Key), cat, val); err != nil {
				return n, eris.Wrapf(err, "factor: upsert %s %s", e.Key, cat)
			}
			n++
		}
	}
	return n, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}
