// Package store persists batch reports and the local factor table.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/factor"
	"github.com/sells-group/lca-cli/internal/model"
)

// ErrNotFound is returned for unknown batch ids.
var ErrNotFound = eris.New("store: not found")

// BatchSummary is a listing row.
type BatchSummary struct {
	BatchID               string       `json:"batchId"`
	Industry              string       `json:"industry"`
	Method                model.Method `json:"method"`
	TotalProducts         int          `json:"totalProducts"`
	Successful            int          `json:"successful"`
	Failed                int          `json:"failed"`
	ProcessingTimeSeconds float64      `json:"processingTimeSeconds"`
	StartedAt             time.Time    `json:"startedAt"`
}

// BatchFilter narrows ListBatches.
type BatchFilter struct {
	Industry string
	Limit    int
}

// Store is the persistence interface used by the CLI.
type Store interface {
	SaveBatch(ctx context.Context, report *model.BatchReport) error
	GetBatch(ctx context.Context, batchID string) (*model.BatchReport, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]BatchSummary, error)

	UpsertFactors(ctx context.Context, entries []factor.Entry) (int, error)
	LookupFactor(ctx context.Context, key model.LookupKey) (model.FactorVector, bool, error)
	ListFactorKeys(ctx context.Context, prefix string) ([]model.LookupKey, error)

	Migrate(ctx context.Context) error
	Close() error
}
