package factor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/resilience"
	"github.com/sells-group/lca-cli/pkg/factorapi"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestEstimateSource(t *testing.T) {
	s := NewEstimateSource()
	ctx := context.Background()

	v, err := s.Factor(ctx, "fiber/cotton/india")
	require.NoError(t, err)
	assert.InDelta(t, 5.9, v[model.ImpactClimateChange], 1e-9)
	assert.InDelta(t, 5.9*50, v[model.ImpactWaterUse], 1e-9)
	assert.Len(t, v, len(CategoryMultipliers))

	v, err = s.Factor(ctx, "material/concrete_recycled/europe")
	require.NoError(t, err)
	assert.InDelta(t, 0.1*recycledShare, v[model.ImpactClimateChange], 1e-12)

	v, err = s.Factor(ctx, "spinning/ring_spinning/india")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, v[model.ImpactClimateChange], 1e-12)

	v, err = s.Factor(ctx, "material/unobtainium/global")
	require.NoError(t, err)
	assert.InDelta(t, defaultMaterialCO2, v[model.ImpactClimateChange], 1e-12)

	v, err = s.Factor(ctx, "electricity/grid/europe")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v[model.ImpactClimateChange], 1e-12)

	_, err = s.Factor(ctx, "electricity/grid/atlantis")
	assert.True(t, IsNotFound(err))

	_, err = s.Factor(ctx, "transport/rocket/global")
	assert.True(t, IsNotFound(err))

	_, err = s.Factor(ctx, "spaceship/x/global")
	assert.True(t, IsNotFound(err))
}

func TestChain(t *testing.T) {
	first := NewTableSource([]Entry{{Key: "fiber/cotton/india", Values: model.FactorVector{"climate_change": 1}}})
	chain := Chain(first, NewEstimateSource())

	v, err := chain.Factor(context.Background(), "fiber/cotton/india")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v["climate_change"])

	v, err = chain.Factor(context.Background(), "fiber/wool/global")
	require.NoError(t, err)
	assert.InDelta(t, 28, v["climate_change"], 1e-9)

	boom := errors.New("boom")
	broken := SourceFunc(func(context.Context, model.LookupKey) (model.FactorVector, error) { return nil, boom })
	_, err = Chain(broken, NewEstimateSource()).Factor(context.Background(), "fiber/wool/global")
	assert.ErrorIs(t, err, boom)

	_, err = Chain(first).Factor(context.Background(), "fiber/wool/global")
	assert.True(t, IsNotFound(err))
}

func TestReadTable_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`factors:
  - key: fiber/cotton/india
    values:
      climate_change: 6.2
      water_use: 310
  - key: electricity/grid/bangladesh
    values:
      climate_change: 0.6
`), 0o644))

	src, err := LoadTableSource(path)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Len())

	v, err := src.Factor(context.Background(), "fiber/cotton/india")
	require.NoError(t, err)
	assert.Equal(t, 310.0, v["water_use"])

	_, err = src.Factor(context.Background(), "fiber/cotton/global")
	assert.True(t, IsNotFound(err))
}

func TestReadTable_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factors.csv")
	require.NoError(t, os.WriteFile(path, []byte("key,category,value\n"+
		"fiber/cotton/india,climate_change,6.2\n"+
		"fiber/cotton/india,water_use,310\n"+
		"transport/truck/global,climate_change,0.11\n"), 0o644))

	entries, err := ReadTable(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.LookupKey("fiber/cotton/india"), entries[0].Key)
	assert.Equal(t, model.FactorVector{"climate_change": 6.2, "water_use": 310}, entries[0].Values)
}

func TestReadTable_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("key,category,value\nx/y/z,climate_change,abc\n"), 0o644))
	_, err := ReadTable(bad)
	assert.Error(t, err)

	noCol := filepath.Join(dir, "nocol.csv")
	require.NoError(t, os.WriteFile(noCol, []byte("key,value\nx/y/z,1\n"), 0o644))
	_, err = ReadTable(noCol)
	assert.ErrorContains(t, err, "category")

	txt := filepath.Join(dir, "factors.txt")
	require.NoError(t, os.WriteFile(txt, []byte(""), 0o644))
	_, err = ReadTable(txt)
	assert.ErrorContains(t, err, "unsupported")

	noKey := filepath.Join(dir, "nokey.yaml")
	require.NoError(t, os.WriteFile(noKey, []byte("factors:\n  - values: {climate_change: 1}\n"), 0o644))
	_, err = ReadTable(noKey)
	assert.ErrorContains(t, err, "no key")

	_, err = ReadTable(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

type countingSource struct {
	calls atomic.Int64
	delay time.Duration
	inner Source
}

func (c *countingSource) Factor(ctx context.Context, key model.LookupKey) (model.FactorVector, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.inner.Factor(ctx, key)
}

func TestCache_MemoizesAndFallsBack(t *testing.T) {
	src := &countingSource{inner: NewTableSource([]Entry{
		{Key: "fiber/cotton/global", Values: model.FactorVector{"climate_change": 5}},
	})}
	c := NewCache(src)
	ctx := context.Background()

	v, used, err := c.Resolve(ctx, "fiber/cotton/india")
	require.NoError(t, err)
	assert.Equal(t, model.LookupKey("fiber/cotton/global"), used)
	assert.Equal(t, 5.0, v["climate_change"])
	assert.Equal(t, int64(2), src.calls.Load())

	_, _, err = c.Resolve(ctx, "fiber/cotton/india")
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.calls.Load(), "negative and positive answers are cached")

	st := c.Stats()
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, int64(2), st.Hits)
	assert.Equal(t, int64(2), st.Misses)
	assert.Equal(t, int64(2), st.Fallbacks)

	_, _, err = c.Resolve(ctx, "fiber/silk/global")
	assert.True(t, IsNotFound(err))
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int64
	src := SourceFunc(func(context.Context, model.LookupKey) (model.FactorVector, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("flaky")
		}
		return model.FactorVector{"climate_change": 1}, nil
	})
	c := NewCache(src)

	_, err := c.Get(context.Background(), "a/b/c")
	require.Error(t, err)
	v, err := c.Get(context.Background(), "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v["climate_change"])
}

func TestCache_ConcurrentMissesCollapse(t *testing.T) {
	src := &countingSource{delay: 20 * time.Millisecond, inner: NewEstimateSource()}
	c := NewCache(src)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "fiber/cotton/india")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), src.calls.Load())
}

// gatedSource blocks each lookup until release is closed or its context
// ends.
type gatedSource struct {
	calls   atomic.Int64
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSource() *gatedSource {
	return &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSource) Factor(ctx context.Context, key model.LookupKey) (model.FactorVector, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return model.FactorVector{"climate_change": 1}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCache_CallerDeadlineDoesNotFailWaiters(t *testing.T) {
	src := newGatedSource()
	c := NewCache(src)
	key := model.LookupKey("transport/truck/global")

	shortCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	shortErr := make(chan error, 1)
	go func() {
		_, err := c.Get(shortCtx, key)
		shortErr <- err
	}()
	<-src.started

	type result struct {
		vec model.FactorVector
		err error
	}
	healthy := make(chan result, 1)
	go func() {
		v, err := c.Get(context.Background(), key)
		healthy <- result{v, err}
	}()

	err := <-shortErr
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	close(src.release)
	select {
	case r := <-healthy:
		require.NoError(t, r.err)
		assert.Equal(t, 1.0, r.vec["climate_change"])
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not receive the shared result")
	}
	assert.Equal(t, int64(1), src.calls.Load())

	v, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v["climate_change"])
	assert.Equal(t, int64(1), src.calls.Load(), "result of the shared lookup is cached")
}

func TestCache_FetchTimeout(t *testing.T) {
	src := newGatedSource()
	c := NewCache(src, WithFetchTimeout(20*time.Millisecond))
	key := model.LookupKey("transport/truck/global")

	start := time.Now()
	_, err := c.Get(context.Background(), key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)

	close(src.release)
	_, err = c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.calls.Load(), "timeouts are not cached")
}

func TestCache_Prewarm(t *testing.T) {
	src := &countingSource{inner: NewEstimateSource()}
	c := NewCache(src)
	keys := []model.LookupKey{
		"fiber/cotton/india",
		"fiber/polyester/china",
		"electricity/grid/india",
		"electricity/grid/atlantis",
	}
	require.NoError(t, c.Prewarm(context.Background(), keys, 2))
	before := src.calls.Load()

	for _, k := range keys {
		_, _, _ = c.Resolve(context.Background(), k)
	}
	assert.Equal(t, before, src.calls.Load())
}

func TestCache_PrewarmPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	c := NewCache(SourceFunc(func(context.Context, model.LookupKey) (model.FactorVector, error) {
		return nil, boom
	}))
	err := c.Prewarm(context.Background(), []model.LookupKey{"a/b/c"}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestPostgresSource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSourceFromPool(mock)

	mock.ExpectQuery("SELECT category, value FROM lca_factors").
		WithArgs("fiber/cotton/india").
		WillReturnRows(pgxmock.NewRows([]string{"category", "value"}).
			AddRow("climate_change", 6.0).
			AddRow("water_use", 300.0))

	v, err := s.Factor(context.Background(), "fiber/cotton/india")
	require.NoError(t, err)
	assert.Equal(t, model.FactorVector{"climate_change": 6.0, "water_use": 300.0}, v)

	mock.ExpectQuery("SELECT category, value FROM lca_factors").
		WithArgs("fiber/cotton/global").
		WillReturnRows(pgxmock.NewRows([]string{"category", "value"}))

	_, err = s.Factor(context.Background(), "fiber/cotton/global")
	assert.True(t, IsNotFound(err))

	mock.ExpectQuery("SELECT category, value FROM lca_factors").
		WithArgs("x/y/z").
		WillReturnError(errors.New("connection lost"))
	_, err = s.Factor(context.Background(), "x/y/z")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_MigrateAndImport(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSourceFromPool(mock)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS lca_factors").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, s.Migrate(context.Background()))

	mock.ExpectExec("INSERT INTO lca_factors").
		WithArgs("transport/truck/global", "climate_change", 0.11).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := s.Import(context.Background(), []Entry{
		{Key: "transport/truck/global", Values: model.FactorVector{"climate_change": 0.11}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeStore map[model.LookupKey]model.FactorVector

func (f fakeStore) LookupFactor(_ context.Context, key model.LookupKey) (model.FactorVector, bool, error) {
	v, ok := f[key]
	return v, ok, nil
}

func TestStoreSource(t *testing.T) {
	s := NewStoreSource(fakeStore{"a/b/c": {"climate_change": 2}})
	v, err := s.Factor(context.Background(), "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v["climate_change"])

	_, err = s.Factor(context.Background(), "a/b/d")
	assert.True(t, IsNotFound(err))
}

func fastRemote(client factorapi.Client) *RemoteSource {
	return NewRemoteSource(client, RemoteConfig{
		Retry:   resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		Circuit: resilience.CircuitBreakerConfig{FailureThreshold: 10},
	})
}

func TestRemoteSource_RetriesTransient(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"key":"fiber/cotton/india","values":{"climate_change":6.4}}`))
	}))
	defer srv.Close()

	s := fastRemote(factorapi.NewClient("k", factorapi.WithBaseURL(srv.URL)))
	v, err := s.Factor(context.Background(), "fiber/cotton/india")
	require.NoError(t, err)
	assert.Equal(t, 6.4, v["climate_change"])
	assert.Equal(t, int64(3), calls.Load())
}

func TestRemoteSource_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := fastRemote(factorapi.NewClient("k", factorapi.WithBaseURL(srv.URL)))
	_, err := s.Factor(context.Background(), "fiber/cotton/india")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, resilience.CircuitClosed, s.Breaker().State())
}

func TestRemoteSource_BadRequestIsPermanent(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := fastRemote(factorapi.NewClient("k", factorapi.WithBaseURL(srv.URL)))
	_, err := s.Factor(context.Background(), "fiber/cotton/india")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, int64(1), calls.Load())
}
