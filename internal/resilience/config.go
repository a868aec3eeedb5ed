package resilience

import "time"

// Defaults used when a config value is unset or non-positive.
const (
	defaultFailureThreshold = 5
	defaultResetTimeout     = 30 * time.Second
)

// scaled returns n units, or fallback when n is not positive.
func scaled(n int, unit, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * unit
}

// FromRetryConfig maps the factors.retry_* settings onto a RetryConfig.
func FromRetryConfig(maxAttempts, initialBackoffMs, maxBackoffMs int) RetryConfig {
	rc := DefaultRetryConfig()
	rc.InitialBackoff = scaled(initialBackoffMs, time.Millisecond, rc.InitialBackoff)
	rc.MaxBackoff = scaled(maxBackoffMs, time.Millisecond, rc.MaxBackoff)
	if maxAttempts > 0 {
		rc.MaxAttempts = maxAttempts
	}
	return rc
}

// FromCircuitConfig maps the factors.circuit_* settings.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cc := CircuitBreakerConfig{
		FailureThreshold: failureThreshold,
		ResetTimeout:     scaled(resetTimeoutSecs, time.Second, defaultResetTimeout),
	}
	if cc.FailureThreshold <= 0 {
		cc.FailureThreshold = defaultFailureThreshold
	}
	return cc
}
