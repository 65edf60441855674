package model

import (
	"fmt"
)

// HTTPError wraps a non-2xx status from the LLM service so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ConnectionError reports a request that never produced an HTTP status
// (DNS, refused connection, reset, client timeout).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NonRetryableError is returned without any retry for client errors (400, 401, 403).
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable request error: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// RetryExhaustedError is returned after the final allowed attempt failed with a retryable error.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}
