package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(2, 5*time.Second, 1)

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(1, time.Second, 1)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to pass: %v", err)
	}
	b.RecordFailure()

	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failed probe, got %s", state)
	}
}

func TestCircuitBreaker_RecordClassifiesErrors(t *testing.T) {
	errTransient := errors.New("transient")
	isTransient := func(err error) bool { return errors.Is(err, errTransient) }

	b := NewCircuitBreaker(1, time.Minute, 1)
	b.Record(errors.New("bad request"), isTransient)
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("non transient error must not open the breaker, got %s", state)
	}

	b.Record(errTransient, isTransient)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after transient failure, got %s", state)
	}
}

func TestCircuitBreaker_NotifiesTransitions(t *testing.T) {
	var seen []CircuitState
	b := NewCircuitBreaker(1, time.Minute, 1).Named("toralarm", func(name string, _, to CircuitState) {
		if name != "toralarm" {
			t.Errorf("unexpected breaker name %q", name)
		}
		seen = append(seen, to)
	})

	b.RecordFailure()
	b.RecordFailure()

	if len(seen) != 1 || seen[0] != CircuitStateOpen {
		t.Fatalf("expected a single open transition, got %v", seen)
	}
}

func TestNewBreakerFromConfig_Disabled(t *testing.T) {
	if b := NewBreakerFromConfig(CircuitBreakerConfig{Enabled: false}); b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	b := NewBreakerFromConfig(CircuitBreakerConfig{Enabled: true})
	if b == nil || b.failureThreshold != 5 {
		t.Fatalf("expected defaults to be applied, got %+v", b)
	}
}
