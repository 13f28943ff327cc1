package bridge

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     5 * time.Millisecond,
		MaxInterval:         20 * time.Millisecond,
		MaxElapsedTime:      250 * time.Millisecond,
		Multiplier:          2.0,
		RandomizationFactor: 0,
	}
}

func TestGuard_RetriesTransientStartFailures(t *testing.T) {
	g := NewGuard(testRetryConfig(), zap.NewNop())

	attempts := 0
	start := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("resource temporarily unavailable")
		}
		return nil
	}

	if err := g.Start(context.Background(), "gcc", start); err != nil {
		t.Fatalf("Start() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("start attempts = %d, want 3", attempts)
	}
}

// A missing binary will not appear between retries, so it must fail on the
// first attempt.
func TestGuard_MissingBinaryIsNotRetried(t *testing.T) {
	g := NewGuard(testRetryConfig(), zap.NewNop())

	attempts := 0
	start := func() error {
		attempts++
		return &exec.Error{Name: "gcc-missing", Err: exec.ErrNotFound}
	}

	if err := g.Start(context.Background(), "gcc-missing", start); err == nil {
		t.Fatal("Start() error = nil, want error")
	}
	if attempts != 1 {
		t.Errorf("start attempts = %d, want 1", attempts)
	}
}

func TestGuard_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	g := NewGuard(testRetryConfig(), zap.NewNop())

	fail := func() error {
		return &exec.Error{Name: "gcc", Err: exec.ErrNotFound}
	}
	for i := 0; i < 5; i++ {
		if err := g.Start(context.Background(), "gcc", fail); err == nil {
			t.Fatalf("Start() attempt %d error = nil, want error", i+1)
		}
	}

	calls := 0
	err := g.Start(context.Background(), "gcc", func() error {
		calls++
		return nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Start() after 5 failures error = %v, want %v", err, gobreaker.ErrOpenState)
	}
	if calls != 0 {
		t.Errorf("start function ran %d times with breaker open, want 0", calls)
	}
}

func TestGuard_BreakersAreIsolatedByCommand(t *testing.T) {
	g := NewGuard(testRetryConfig(), zap.NewNop())

	fail := func() error {
		return &exec.Error{Name: "gcc", Err: exec.ErrNotFound}
	}
	for i := 0; i < 5; i++ {
		if err := g.Start(context.Background(), "gcc", fail); err == nil {
			t.Fatalf("Start() attempt %d error = nil, want error", i+1)
		}
	}

	if err := g.Start(context.Background(), "javac", func() error { return nil }); err != nil {
		t.Errorf("Start(javac) error = %v, want nil; gcc breaker must not affect javac", err)
	}
}

func TestGuard_StartRespectsCancelledContext(t *testing.T) {
	g := NewGuard(testRetryConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := g.Start(ctx, "gcc", func() error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("Start() with cancelled context error = nil, want error")
	}
	if calls != 0 {
		t.Errorf("start function ran %d times after cancellation, want 0", calls)
	}
}

func TestGuard_ProbeFindsTool(t *testing.T) {
	g := NewGuard(testRetryConfig(), zap.NewNop())

	if err := g.Probe(context.Background(), "sh"); err != nil {
		t.Errorf("Probe(sh) error = %v, want nil", err)
	}
}

func TestGuard_ProbeMissingTool(t *testing.T) {
	g := NewGuard(testRetryConfig(), zap.NewNop())

	start := time.Now()
	err := g.Probe(context.Background(), "definitely-not-a-real-compiler-7f3a")
	if err == nil {
		t.Fatal("Probe() error = nil, want error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Probe() took %v, want bounded by the retry window", elapsed)
	}
}
