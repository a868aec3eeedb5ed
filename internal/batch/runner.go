// Package batch runs validation and impact calculation over a batch of
// product records with bounded concurrency and per-product deadlines.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lca-cli/internal/calc"
	"github.com/sells-group/lca-cli/internal/factor"
	"github.com/sells-group/lca-cli/internal/inventory"
	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/quality"
	"github.com/sells-group/lca-cli/internal/validate"
)

// Config controls batch execution.
type Config struct {
	MaxConcurrentProducts int
	ProductTimeout        time.Duration
	Prewarm               bool
	PrewarmConcurrency    int
	// Method is the impact assessment method of the default calculator.
	Method model.Method
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentProducts: 10,
		ProductTimeout:        30 * time.Second,
		Prewarm:               true,
		PrewarmConcurrency:    8,
		Method:                model.DefaultMethod,
	}
}

// SchemaSource resolves industry schemas. registry.Registry implements it.
type SchemaSource interface {
	GetSchema(industryID string) (*model.Schema, error)
}

// Calculator computes one product's impacts. calc.Calculator implements it.
type Calculator interface {
	Calculate(ctx context.Context, inv *model.Inventory) (*model.ImpactResult, error)
}

// Recorder persists finished batches.
type Recorder interface {
	SaveBatch(ctx context.Context, report *model.BatchReport) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithCalculator replaces the cache-backed calculator.
func WithCalculator(c Calculator) Option {
	return func(r *Runner) { r.calc = c }
}

// WithRecorder persists each finished report.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithBounds overrides the plausibility bounds.
func WithBounds(b calc.Bounds) Option {
	return func(r *Runner) { r.bounds = b }
}

// Runner executes batches. A single Runner may serve many batches; its
// factor cache is shared across them.
type Runner struct {
	schemas  SchemaSource
	cache    *factor.Cache
	calc     Calculator
	recorder Recorder
	bounds   calc.Bounds
	cfg      Config
}

// NewRunner creates a Runner. Zero config values take the defaults.
func NewRunner(schemas SchemaSource, cache *factor.Cache, cfg Config, opts ...Option) *Runner {
	def := DefaultConfig()
	if cfg.MaxConcurrentProducts <= 0 {
		cfg.MaxConcurrentProducts = def.MaxConcurrentProducts
	}
	if cfg.ProductTimeout <= 0 {
		cfg.ProductTimeout = def.ProductTimeout
	}
	if cfg.PrewarmConcurrency <= 0 {
		cfg.PrewarmConcurrency = def.PrewarmConcurrency
	}
	if !cfg.Method.Valid() {
		cfg.Method = def.Method
	}
	r := &Runner{
		schemas: schemas,
		cache:   cache,
		calc:    calc.New(cache, calc.WithMethod(cfg.Method)),
		bounds:  calc.BoundsFor(cfg.Method),
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run validates and calculates every record. Only structural problems
// (unknown industry, missing columns) return an error before processing;
// otherwise the report accounts for every record in submission order.
// A cancelled ctx marks unstarted products as failed rather than
// aborting the report.
func (r *Runner) Run(ctx context.Context, industry string, headers []string, records []model.Record) (*model.BatchReport, error) {
	s, err := r.schemas.GetSchema(industry)
	if err != nil {
		return nil, eris.Wrap(err, "batch: resolve schema")
	}
	if err := validate.CheckColumns(s, headers); err != nil {
		return nil, err
	}

	report := &model.BatchReport{
		BatchID:   uuid.New().String(),
		Industry:  s.Industry,
		Method:    r.cfg.Method,
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(
		zap.String("batch_id", report.BatchID),
		zap.String("industry", s.Industry),
		zap.String("method", string(r.cfg.Method)),
	)
	log.Info("batch: starting", zap.Int("products", len(records)), zap.Int("concurrency", r.cfg.MaxConcurrentProducts))

	products := make([]*model.ValidatedProduct, len(records))
	for i, rec := range records {
		products[i] = validate.ValidateRecord(s, i+1, rec)
	}

	if r.cfg.Prewarm && r.cache != nil {
		r.prewarm(ctx, log, s)
	}

	outcomes := make([]model.ProductOutcome, len(products))
	g := new(errgroup.Group)
	g.SetLimit(r.cfg.MaxConcurrentProducts)

	for i, p := range products {
		if !p.IsValid {
			outcomes[i] = failed(p, model.ProductFailed, model.StageValidation, strings.Join(p.ErrorStrings(), "; "))
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = failed(p, model.ProductFailed, model.StageCancelled, err.Error())
				return nil
			}
			outcomes[i] = r.runProduct(ctx, log, s, p)
			return nil
		})
	}
	_ = g.Wait()

	report.Results = outcomes
	report.Tally()
	report.ProcessingTimeSeconds = time.Since(report.StartedAt).Seconds()

	log.Info("batch: complete",
		zap.Int("total", report.TotalProducts),
		zap.Int("successful", report.Successful),
		zap.Int("failed", report.Failed),
		zap.Float64("seconds", report.ProcessingTimeSeconds),
	)

	if r.recorder != nil {
		if err := r.recorder.SaveBatch(context.WithoutCancel(ctx), report); err != nil {
			return report, eris.Wrap(err, "batch: save report")
		}
	}
	return report, nil
}

func (r *Runner) prewarm(ctx context.Context, log *zap.Logger, s *model.Schema) {
	b, err := inventory.For(s.Industry)
	if err != nil {
		log.Warn("batch: prewarm skipped", zap.Error(err))
		return
	}
	start := time.Now()
	keys := b.CommonKeys(s)
	if err := r.cache.Prewarm(ctx, keys, r.cfg.PrewarmConcurrency); err != nil {
		log.Warn("batch: prewarm failed", zap.Error(err))
		return
	}
	log.Debug("batch: prewarm complete",
		zap.Int("keys", len(keys)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// runProduct gives p its own deadline. The worker goroutine is abandoned
// on timeout; its context is cancelled and its late result discarded.
func (r *Runner) runProduct(ctx context.Context, log *zap.Logger, s *model.Schema, p *model.ValidatedProduct) model.ProductOutcome {
	start := time.Now()
	pctx, cancel := context.WithTimeout(ctx, r.cfg.ProductTimeout)
	defer cancel()

	done := make(chan model.ProductOutcome, 1)
	go func() {
		done <- r.process(pctx, s, p)
	}()

	var out model.ProductOutcome
	select {
	case out = <-done:
	case <-pctx.Done():
		select {
		case out = <-done:
		default:
			if ctx.Err() != nil {
				out = failed(p, model.ProductFailed, model.StageCancelled, ctx.Err().Error())
			} else {
				out = failed(p, model.ProductTimedOut, model.StageTimeout,
					fmt.Sprintf("calculation exceeded %s", r.cfg.ProductTimeout))
			}
		}
	}
	out.DurationMs = time.Since(start).Milliseconds()

	fields := []zap.Field{
		zap.String("product_id", p.ProductID),
		zap.Int("row", p.Row),
		zap.String("state", string(out.State)),
		zap.Int64("duration_ms", out.DurationMs),
	}
	if out.Error != nil {
		log.Warn("batch: product failed", append(fields, zap.String("stage", out.Error.Stage), zap.String("error", out.Error.Message))...)
	} else {
		log.Debug("batch: product complete", fields...)
	}
	return out
}

// process runs the per-product pipeline. Panics become failures tagged
// with the stage that was executing.
func (r *Runner) process(ctx context.Context, s *model.Schema, p *model.ValidatedProduct) (out model.ProductOutcome) {
	stage := model.StageInventory
	defer func() {
		if rec := recover(); rec != nil {
			out = failed(p, model.ProductFailed, stage, fmt.Sprintf("panic: %v", rec))
		}
	}()

	inv, err := inventory.Build(p)
	if err != nil {
		return failed(p, model.ProductFailed, stage, err.Error())
	}

	stage = model.StageInventoryCheck
	if err := inventory.Check(inv, s.RequiredCategories); err != nil {
		return failed(p, model.ProductFailed, stage, err.Error())
	}

	stage = model.StageCalculation
	res, err := r.calc.Calculate(ctx, inv)
	if err != nil {
		return failed(p, model.ProductFailed, stage, err.Error())
	}

	stage = model.StageResultCheck
	if err := calc.CheckResult(res, r.bounds); err != nil {
		return failed(p, model.ProductFailed, stage, err.Error())
	}

	stage = model.StageQuality
	dq := quality.Score(p)
	res.DataQuality = &dq
	res.Warnings = append(p.WarningStrings(), res.Warnings...)

	return model.ProductOutcome{
		ProductID:   p.ProductID,
		Row:         p.Row,
		Status:      model.StatusSuccess,
		State:       model.ProductSucceeded,
		Impacts:     res,
		DataQuality: &dq,
	}
}

func failed(p *model.ValidatedProduct, state model.ProductState, stage, msg string) model.ProductOutcome {
	return model.ProductOutcome{
		ProductID: p.ProductID,
		Row:       p.Row,
		Status:    model.StatusFailed,
		State:     state,
		Error:     &model.ProductError{Stage: stage, Message: msg},
	}
}
