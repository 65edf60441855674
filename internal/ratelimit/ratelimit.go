package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ossi-voice/ossi/internal/model"
)

// Limiter enforces a minimum delay between requests that share a key
// (one key per API endpoint and model).
type Limiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: limiter key, value: earliest allowed start
	minDelay time.Duration
}

// NewLimiter creates a limiter that spaces requests with the same key by at least minDelay.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the caller's reserved slot for key arrives.
// Returns an error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := time.Now()
	slot, ok := l.next[key]
	if !ok || !slot.After(now) {
		// No pending reservation, proceed immediately.
		l.next[key] = now.Add(l.minDelay)
		l.mu.Unlock()
		return nil
	}

	// Reserve the slot while holding the lock so concurrent callers queue up
	// behind each other instead of all waking at once.
	l.next[key] = slot.Add(l.minDelay)
	l.mu.Unlock()

	t := time.NewTimer(slot.Sub(now))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-t.C:
	}
	return nil
}

// Ensure Transport implements model.Transport.
var _ model.Transport = (*Transport)(nil)

// Transport is a decorator that enforces request spacing before delegating
// to the wrapped model.Transport.
type Transport struct {
	inner   model.Transport
	limiter *Limiter
	key     string
}

// NewTransport wraps inner with rate limiting under key.
// All transports sharing one credential should share the same limiter instance.
func NewTransport(inner model.Transport, limiter *Limiter, key string) *Transport {
	return &Transport{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

// Send waits for the limiter, then delegates to the wrapped transport.
func (t *Transport) Send(ctx context.Context, req model.MessageRequest) (*model.MessageResponse, error) {
	if err := t.limiter.Wait(ctx, t.key); err != nil {
		return nil, err
	}
	return t.inner.Send(ctx, req)
}
