package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("apify", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("unexpected rejection on attempt %d", i)
		}
		b.Record(NewUpstreamError("apify", KindGeneric, errors.New("boom")))
	}

	if b.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
	if !errors.Is(b.Allow(), ErrCircuitOpen) {
		t.Error("expected ErrCircuitOpen")
	}
}

func TestBreaker_QuotaDoesNotTrip(t *testing.T) {
	b := NewBreaker("apify", BreakerConfig{FailureThreshold: 1})
	b.Record(NewUpstreamError("apify", KindQuota, errors.New("credits")))
	if b.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_HalfOpenTrialCall(t *testing.T) {
	now := time.Now()
	b := NewBreaker("serper", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("fail"))
	if !errors.Is(b.Allow(), ErrCircuitOpen) {
		t.Fatal("expected open circuit")
	}

	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected trial call to be allowed: %v", err)
	}
	if b.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}

	b.Record(nil)
	if b.State() != CircuitClosed {
		t.Errorf("expected closed after successful trial call, got %s", b.State())
	}
}

func TestBreaker_HalfOpenAdmitsSingleTrial(t *testing.T) {
	now := time.Now()
	b := NewBreaker("scorer", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("fail"))
	now = now.Add(2 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("expected trial call to be allowed: %v", err)
	}
	if !errors.Is(b.Allow(), ErrCircuitOpen) {
		t.Fatal("expected second caller to be rejected while trial call is in flight")
	}

	b.Release()
	if err := b.Allow(); err != nil {
		t.Fatalf("expected a new trial call after release: %v", err)
	}

	b.Record(nil)
	if err := b.Allow(); err != nil {
		t.Errorf("expected closed circuit to admit calls: %v", err)
	}
	if err := b.Allow(); err != nil {
		t.Errorf("expected closed circuit to admit concurrent calls: %v", err)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("serper", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Second})
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("fail"))
	b.Record(errors.New("fail"))
	now = now.Add(2 * time.Second)
	_ = b.Allow()
	b.Record(errors.New("fail again"))

	if b.State() != CircuitOpen {
		t.Errorf("expected reopen, got %s", b.State())
	}
}

func TestBreakers_GetOrCreate(t *testing.T) {
	r := NewBreakers(BreakerConfig{})
	a := r.Get("search")
	if a != r.Get("search") {
		t.Error("expected the same breaker instance")
	}
	r.Get("score")

	states := r.States()
	if len(states) != 2 || states["search"] != CircuitClosed {
		t.Errorf("unexpected states %v", states)
	}
}

func TestBreakers_ConcurrentAccess(t *testing.T) {
	r := NewBreakers(BreakerConfig{FailureThreshold: 1000})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := r.Get("fetch")
			_ = b.Allow()
			b.Record(errors.New("x"))
		}()
	}
	wg.Wait()
	if r.Get("fetch").State() != CircuitClosed {
		t.Error("expected breaker below threshold to stay closed")
	}
}

func TestCircuitState_String(t *testing.T) {
	if CircuitClosed.String() != "closed" || CircuitOpen.String() != "open" ||
		CircuitHalfOpen.String() != "half-open" || CircuitState(9).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
