package factor

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/resilience"
	"github.com/sells-group/lca-cli/pkg/factorapi"
)

// RemoteConfig tunes RemoteSource.
type RemoteConfig struct {
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	Retry     resilience.RetryConfig
	Circuit   resilience.CircuitBreakerConfig
}

// RemoteSource fetches factors from a factor service. Each attempt waits
// on the rate limiter and passes through a circuit breaker; transient
// failures are retried.
type RemoteSource struct {
	client  factorapi.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewRemoteSource wraps client.
func NewRemoteSource(client factorapi.Client, cfg RemoteConfig) *RemoteSource {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	circuit := cfg.Circuit
	if circuit.Name == "" {
		circuit.Name = "factorapi"
	}
	circuit.ShouldTrip = resilience.IsTransient

	retry := cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("factorapi")
	}

	return &RemoteSource{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		retry:   retry,
		breaker: resilience.NewCircuitBreaker(circuit),
	}
}

// Factor implements Source.
func (s *RemoteSource) Factor(ctx context.Context, key model.LookupKey) (model.FactorVector, error) {
	return resilience.DoVal(ctx, s.retry, func(ctx context.Context) (model.FactorVector, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "factor: rate limit wait")
		}
		return resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (model.FactorVector, error) {
			f, err := s.client.Lookup(ctx, string(key))
			if err != nil {
				return nil, classifyRemote(key, err)
			}
			return model.FactorVector(f.Values), nil
		})
	})
}

// Breaker exposes the circuit state for diagnostics.
func (s *RemoteSource) Breaker() *resilience.CircuitBreaker {
	return s.breaker
}

func classifyRemote(key model.LookupKey, err error) error {
	if errors.Is(err, factorapi.ErrNotFound) {
		return eris.Wrapf(ErrNotFound, "key %s", key)
	}
	var se *factorapi.StatusError
	if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.StatusCode) {
		return resilience.NewTransientError(err, se.StatusCode)
	}
	if resilience.IsTransient(err) {
		return resilience.NewTransientError(err, 0)
	}
	return eris.Wrapf(err, "factor: remote lookup %s", key)
}
