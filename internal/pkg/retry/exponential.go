package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/adiraj/gocab/internal/pkg/logger"
)

// Config holds retry configuration.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool
	Retryable  func(error) bool
}

// DefaultConfig retries three times with jittered exponential backoff.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		Retryable:  func(err error) bool { return true },
	}
}

// Retrier executes functions with exponential backoff.
type Retrier struct {
	config Config
}

// New creates a retrier.
func New(config Config) *Retrier {
	if config.Multiplier <= 1 {
		config.Multiplier = 2.0
	}
	if config.Retryable == nil {
		config.Retryable = func(err error) bool { return true }
	}
	return &Retrier{config: config}
}

// Do runs fn until it succeeds, is deemed non-retryable, the context is
// cancelled, or the attempts are exhausted.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.Retryable(err) {
			return err
		}
		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.delay(attempt)
		logger.Debug("Retrying after failure",
			logger.Int("attempt", attempt+1),
			logger.Duration("delay", delay),
			logger.Err(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", r.config.MaxRetries+1, lastErr)
}

func (r *Retrier) delay(attempt int) time.Duration {
	d := float64(r.config.BaseDelay) * math.Pow(r.config.Multiplier, float64(attempt))
	if max := float64(r.config.MaxDelay); r.config.MaxDelay > 0 && d > max {
		d = max
	}
	if r.config.Jitter {
		d = d/2 + rand.Float64()*d/2
	}
	return time.Duration(d)
}
