package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the circuit breaker around the generator.
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32
	Cooldown            time.Duration
}

// BreakerGenerator stops calling a failing provider for Cooldown after
// ConsecutiveFailures errors in a row. It never retries.
type BreakerGenerator struct {
	inner Generator
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerGenerator wraps inner.
func NewBreakerGenerator(inner Generator, cfg BreakerConfig, logger *zap.Logger) *BreakerGenerator {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("generation breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrCredentialMissing)
		},
	})

	return &BreakerGenerator{inner: inner, cb: cb}
}

// Generate implements Generator.
func (b *BreakerGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state; /healthz surfaces it.
func (b *BreakerGenerator) State() gobreaker.State {
	return b.cb.State()
}
