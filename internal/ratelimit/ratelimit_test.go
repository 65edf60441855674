package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ossi-voice/ossi/internal/model"
)

func TestWait_SameKey_EnforcesMinDelay(t *testing.T) {
	limiter := NewLimiter(100 * time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "claude"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "claude"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentKeys_NoCrossBlocking(t *testing.T) {
	limiter := NewLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "model-a"); err != nil {
		t.Fatalf("model-a wait: %v", err)
	}

	// Immediately call for another key; should NOT block.
	start := time.Now()
	if err := limiter.Wait(ctx, "model-b"); err != nil {
		t.Fatalf("model-b wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected model-b wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ConcurrentCallersAreSpaced(t *testing.T) {
	limiter := NewLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(ctx, "claude"); err != nil {
				t.Errorf("wait: %v", err)
			}
		}()
	}
	wg.Wait()

	// Three callers: 0ms, 50ms, 100ms.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("expected >= 90ms for three spaced callers, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(5 * time.Second) // long delay
	ctx := context.Background()

	// First call to seed the reservation.
	if err := limiter.Wait(ctx, "claude"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(cctx, "claude")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

type countingTransport struct {
	calls int
}

func (c *countingTransport) Send(_ context.Context, _ model.MessageRequest) (*model.MessageResponse, error) {
	c.calls++
	return &model.MessageResponse{}, nil
}

func TestTransport_DelegatesAfterWait(t *testing.T) {
	inner := &countingTransport{}
	tr := NewTransport(inner, NewLimiter(0), "claude")

	for i := 0; i < 3; i++ {
		if _, err := tr.Send(context.Background(), model.MessageRequest{}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3", inner.calls)
	}
}

func TestTransport_CancelledWaitSkipsInner(t *testing.T) {
	inner := &countingTransport{}
	limiter := NewLimiter(time.Hour)
	tr := NewTransport(inner, limiter, "claude")

	if _, err := tr.Send(context.Background(), model.MessageRequest{}); err != nil {
		t.Fatalf("first Send: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Send(ctx, model.MessageRequest{}); err == nil {
		t.Fatal("expected error from cancelled wait")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}
