package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// AdapterError wraps a provider failure with the HTTP status that caused it,
// so callers can tell rate limits and outages apart from bad requests.
type AdapterError struct {
	Status    int
	Temporary bool
	Err       error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("adapter error (status=%d)", e.Status)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether a Generate failure is likely to succeed on a
// later turn: timeouts, rate limits, and provider 5xx responses. A canceled
// context is not transient; the caller asked to stop.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Temporary || ae.Status == 429 || ae.Status >= 500
	}
	return false
}
