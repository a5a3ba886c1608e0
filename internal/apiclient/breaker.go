package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/medilabo/webapp/pkg/health"
)

// BreakerConfig tunes the per-backend circuit breakers.
type BreakerConfig struct {
	// MaxRequests allowed through a half-open breaker.
	MaxRequests uint32
	// Interval clears the closed-state counts. Zero never clears them.
	Interval time.Duration
	// Timeout before an open breaker turns half-open.
	Timeout time.Duration
	// FailureThreshold is the count of consecutive failures that opens it.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

func newBreaker(name string, cfg BreakerConfig, c *Client) *gobreaker.CircuitBreaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.metrics.SetBreakerState(name, int(to))
			c.log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// HealthChecks returns one readiness check per backend, failing while its
// breaker is open. Without breakers there is nothing to report.
func (c *Client) HealthChecks() health.Checks {
	checks := make(health.Checks, len(c.breakers))
	for svc, cb := range c.breakers {
		checks[string(svc)+"-ms"] = func(context.Context) error {
			if st := cb.State(); st == gobreaker.StateOpen {
				return fmt.Errorf("circuit breaker %s is %s", cb.Name(), st)
			}
			return nil
		}
	}
	return checks
}
