package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errors.New("boom") })
	}

	if cb.GetState() != StateOpen {
		t.Errorf("Expected open state, got %v", cb.GetState())
	}

	err := cb.Call(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	_ = cb.Call(func() error { return errors.New("boom") })
	_ = cb.Call(func() error { return errors.New("boom") })
	_ = cb.Call(func() error { return nil })
	_ = cb.Call(func() error { return errors.New("boom") })
	_ = cb.Call(func() error { return errors.New("boom") })

	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)

	_ = cb.Call(func() error { return errors.New("boom") })
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open state, got %v", cb.GetState())
	}

	time.Sleep(15 * time.Millisecond)

	// Three successes in half-open close the circuit
	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Expected call to be allowed, got %v", err)
		}
	}

	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state after recovery, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)

	_ = cb.Call(func() error { return errors.New("boom") })
	time.Sleep(15 * time.Millisecond)

	_ = cb.Call(func() error { return errors.New("still down") })

	if cb.GetState() != StateOpen {
		t.Errorf("Expected open state after half-open failure, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1*time.Hour)

	_ = cb.Call(func() error { return errors.New("boom") })
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open state, got %v", cb.GetState())
	}

	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state after reset, got %v", cb.GetState())
	}
}
