package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lca-cli/internal/factor"
	"github.com/sells-group/lca-cli/internal/model"
)

// SQLiteStore implements Store on modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens the database at dsn in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS batches (
	id               TEXT PRIMARY KEY,
	industry         TEXT NOT NULL,
	method           TEXT NOT NULL DEFAULT '',
	total_products   INTEGER NOT NULL,
	successful       INTEGER NOT NULL,
	failed           INTEGER NOT NULL,
	processing_secs  REAL NOT NULL,
	started_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS product_results (
	batch_id    TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	product_id  TEXT NOT NULL,
	row_number  INTEGER NOT NULL,
	status      TEXT NOT NULL,
	state       TEXT NOT NULL,
	error_stage TEXT,
	outcome     TEXT NOT NULL,
	PRIMARY KEY (batch_id, position)
);

CREATE TABLE IF NOT EXISTS factors (
	key        TEXT NOT NULL,
	category   TEXT NOT NULL,
	value      REAL NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (key, category)
);

CREATE INDEX IF NOT EXISTS idx_batches_industry ON batches(industry);
CREATE INDEX IF NOT EXISTS idx_batches_started_at ON batches(started_at);
CREATE INDEX IF NOT EXISTS idx_product_results_state ON product_results(state);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBatch writes the report and every outcome in one transaction.
// Saving the same batch id again replaces it.
func (s *SQLiteStore) SaveBatch(ctx context.Context, r *model.BatchReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save batch")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE id = ?`, r.BatchID); err != nil {
		return eris.Wrapf(err, "sqlite: clear batch %s", r.BatchID)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, industry, method, total_products, successful, failed, processing_secs, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BatchID, r.Industry, string(r.Method), r.TotalProducts, r.Successful, r.Failed, r.ProcessingTimeSeconds, r.StartedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert batch %s", r.BatchID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO product_results (batch_id, position, product_id, row_number, status, state, error_stage, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare product insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, o := range r.Results {
		data, err := json.Marshal(o)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal outcome %s", o.ProductID)
		}
		var stage sql.NullString
		if o.Error != nil {
			stage = sql.NullString{String: o.Error.Stage, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, r.BatchID, i, o.ProductID, o.Row,
			string(o.Status), string(o.State), stage, string(data)); err != nil {
			return eris.Wrapf(err, "sqlite: insert outcome %s", o.ProductID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit batch")
}

// GetBatch loads a full report.
func (s *SQLiteStore) GetBatch(ctx context.Context, batchID string) (*model.BatchReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, industry, method, total_products, successful, failed, processing_secs, started_at
		 FROM batches WHERE id = ?`, batchID)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "batch %s", batchID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get batch %s", batchID)
	}

	r := &model.BatchReport{
		BatchID:               sum.BatchID,
		Industry:              sum.Industry,
		Method:                sum.Method,
		TotalProducts:         sum.TotalProducts,
		Successful:            sum.Successful,
		Failed:                sum.Failed,
		ProcessingTimeSeconds: sum.ProcessingTimeSeconds,
		StartedAt:             sum.StartedAt,
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome FROM product_results WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query outcomes %s", batchID)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outcome")
		}
		var o model.ProductOutcome
		if err := json.Unmarshal([]byte(data), &o); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal outcome")
		}
		r.Results = append(r.Results, o)
	}
	return r, eris.Wrap(rows.Err(), "sqlite: iterate outcomes")
}

// ListBatches returns summaries, newest first.
func (s *SQLiteStore) ListBatches(ctx context.Context, f BatchFilter) ([]BatchSummary, error) {
	query := `SELECT id, industry, method, total_products, successful, failed, processing_secs, started_at FROM batches`
	var args []any
	if f.Industry != "" {
		query += ` WHERE industry = ?`
		args = append(args, strings.ToLower(f.Industry))
	}
	query += ` ORDER BY started_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close() //nolint:errcheck

	var out []BatchSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch")
		}
		out = append(out, *sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate batches")
}

// UpsertFactors writes every category value and returns the count.
func (s *SQLiteStore) UpsertFactors(ctx context.Context, entries []factor.Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert factors")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO factors (key, category, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (key, category) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare factor upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	n := 0
	for _, e := range entries {
		for cat, v := range e.Values {
			if _, err := stmt.ExecContext(ctx, string(e.Key), cat, v, now); err != nil {
				return 0, eris.Wrapf(err, "sqlite: upsert factor %s %s", e.Key, cat)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit factors")
	}
	return n, nil
}

// LookupFactor implements factor.FactorStore.
func (s *SQLiteStore) LookupFactor(ctx context.Context, key model.LookupKey) (model.FactorVector, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, value FROM factors WHERE key = ?`, string(key))
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: lookup factor %s", key)
	}
	defer rows.Close() //nolint:errcheck

	v := model.FactorVector{}
	for rows.Next() {
		var cat string
		var val float64
		if err := rows.Scan(&cat, &val); err != nil {
			return nil, false, eris.Wrap(err, "sqlite: scan factor")
		}
		v[cat] = val
	}
	if err := rows.Err(); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: iterate factor")
	}
	return v, len(v) > 0, nil
}

// ListFactorKeys returns distinct keys starting with prefix, sorted.
func (s *SQLiteStore) ListFactorKeys(ctx context.Context, prefix string) ([]model.LookupKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT key FROM factors WHERE substr(key, 1, length(?)) = ? ORDER BY key`, prefix, prefix)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list factor keys")
	}
	defer rows.Close() //nolint:errcheck

	var keys []model.LookupKey
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan factor key")
		}
		keys = append(keys, model.LookupKey(k))
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: iterate factor keys")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSummary(row scannable) (*BatchSummary, error) {
	var b BatchSummary
	if err := row.Scan(&b.BatchID, &b.Industry, &b.Method, &b.TotalProducts, &b.Successful,
		&b.Failed, &b.ProcessingTimeSeconds, &b.StartedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
