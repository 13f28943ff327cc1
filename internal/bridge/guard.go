package bridge

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// RetryConfig configures exponential backoff around process starts and
// toolchain probes.
type RetryConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	MaxElapsedTime      time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultRetryConfig returns the default retry policy. Starts are cheap, so
// the window stays short; a toolchain that cannot start within it is treated
// as an environment error.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// Guard protects process starts with a per-command circuit breaker and
// exponential backoff. A toolchain that keeps failing to start trips its
// breaker, so queued tasks for it fail fast instead of each burning the full
// retry window.
type Guard struct {
	retry RetryConfig
	log   *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewGuard creates a Guard.
func NewGuard(retry RetryConfig, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		retry:    retry,
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breaker returns the circuit breaker for a toolchain command, creating it
// on first use.
func (g *Guard) breaker(command string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[command]; ok {
		return cb
	}

	log := g.log
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        command,
		MaxRequests: 3, // Allow 3 test starts in half-open state
		Interval:    0, // Don't clear counts automatically
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("toolchain breaker state change",
				zap.String("command", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// Cancellation is not a toolchain failure
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return false
		},
	})

	g.breakers[command] = cb
	return cb
}

// Start runs a process-start attempt through the command's breaker with
// backoff on transient failures. The start function must build and start a
// fresh command on every call. Missing binaries are permanent: they count
// against the breaker but are not retried.
func (g *Guard) Start(ctx context.Context, command string, start func() error) error {
	cb := g.breaker(command)

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		_, err := cb.Execute(func() (interface{}, error) {
			return nil, start()
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			var execErr *exec.Error
			if errors.As(err, &execErr) {
				// Binary not found; retrying will not conjure it
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	return backoff.Retry(operation, g.policy(ctx))
}

// Probe verifies a toolchain command resolves on PATH, retrying within the
// policy window. Used by the CLI toolchain check.
func (g *Guard) Probe(ctx context.Context, command string) error {
	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if _, err := exec.LookPath(command); err != nil {
			return err
		}
		return nil
	}
	return backoff.Retry(operation, g.policy(ctx))
}

func (g *Guard) policy(ctx context.Context) backoff.BackOffContext {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.retry.InitialInterval
	policy.MaxInterval = g.retry.MaxInterval
	policy.MaxElapsedTime = g.retry.MaxElapsedTime
	policy.Multiplier = g.retry.Multiplier
	policy.RandomizationFactor = g.retry.RandomizationFactor
	return backoff.WithContext(policy, ctx)
}
