package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ossi-voice/ossi/internal/model"
)

// DefaultMaxAttempts is the total number of attempts for one logical call.
const DefaultMaxAttempts = 3

// DefaultBaseDelay is the wait after the first failed attempt; it doubles per attempt.
const DefaultBaseDelay = time.Second

// Sleeper blocks for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Ensure Transport implements model.Transport.
var _ model.Transport = (*Transport)(nil)

// Transport is a decorator that retries transient failures of the wrapped
// model.Transport with exponential backoff: attempt i is followed by a wait
// of baseDelay*2^i, and no wait follows the final attempt.
type Transport struct {
	inner       model.Transport
	maxAttempts int
	baseDelay   time.Duration
	sleep       Sleeper
	logger      *slog.Logger
}

// NewTransport wraps inner with retry logic.
// maxAttempts is the total attempt budget (default: 3).
// baseDelay is the wait after the first failure (default: 1s).
func NewTransport(inner model.Transport, maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *Transport {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Transport{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       ContextSleep,
		logger:      logger,
	}
}

// SetSleeper replaces the backoff wait. Tests use it to observe delays without sleeping.
func (t *Transport) SetSleeper(s Sleeper) {
	t.sleep = s
}

// MaxAttempts returns the configured attempt budget.
func (t *Transport) MaxAttempts() int {
	return t.maxAttempts
}

// Send runs the request through the retry state machine.
func (t *Transport) Send(ctx context.Context, req model.MessageRequest) (*model.MessageResponse, error) {
	for attempt := 0; attempt < t.maxAttempts; attempt++ {
		resp, err := t.inner.Send(ctx, req)
		if err == nil {
			return resp, nil
		}

		switch classify(err) {
		case outcomeFatal:
			t.logger.Error("llm request failed (no retry)", "attempt", attempt+1, "error", err)
			return nil, &model.NonRetryableError{Err: err}
		case outcomeAbort:
			return nil, err
		}

		if attempt == t.maxAttempts-1 {
			t.logger.Error("llm request failed after retries", "attempts", t.maxAttempts, "error", err)
			return nil, &model.RetryExhaustedError{Attempts: t.maxAttempts, Err: err}
		}

		delay := t.backoffDelay(attempt)
		args := []any{"attempt", attempt + 1, "max_attempts", t.maxAttempts, "delay", delay, "error", err}
		var httpErr *model.HTTPError
		if errors.As(err, &httpErr) {
			args = append(args, "status_code", httpErr.StatusCode)
		}
		t.logger.Warn("retrying llm request after transient error", args...)

		if err := t.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry cancelled: %w", err)
		}
	}
	// maxAttempts is always >= 1, so the loop returns before reaching here.
	return nil, errors.New("retry: no attempts made")
}

// backoffDelay returns baseDelay * 2^attempt for a 0-based attempt index.
func (t *Transport) backoffDelay(attempt int) time.Duration {
	delay := t.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

type outcome int

const (
	outcomeRetry outcome = iota
	outcomeFatal
	outcomeAbort
)

// classify decides what the state machine does with a failed attempt.
func classify(err error) outcome {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return outcomeFatal
		}
		return outcomeRetry
	}

	// Checked before context errors: a client timeout also matches context.DeadlineExceeded.
	var connErr *model.ConnectionError
	if errors.As(err, &connErr) {
		return outcomeRetry
	}

	// Caller cancellation, undecodable bodies and marshal failures will not improve on retry.
	return outcomeAbort
}
