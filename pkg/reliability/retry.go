package reliability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes how an external call is retried. Only transient errors
// are retried; anything else aborts immediately.
type Policy struct {
	MaxAttempts   int
	Delay         time.Duration
	BackoffFactor float64
}

// DefaultPolicy matches the provider-client defaults: three attempts with
// exponential backoff starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		Delay:         time.Second,
		BackoffFactor: 2.0,
	}
}

// TransientError marks an error as retryable (timeouts, 5xx responses)
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so Do will retry it
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is marked retryable
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Do calls fn until it succeeds, returns a non-transient error, or the
// policy's attempts are exhausted. Context cancellation is respected
// between attempts.
func Do(ctx context.Context, p Policy, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = 1
	}

	var err error
	delay := p.Delay

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !IsTransient(err) {
			return err
		}

		if attempt < p.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * p.BackoffFactor)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
}

// WithTimeout runs fn with a deadline. fn must honor context cancellation;
// the returned error is ctx.Err() when the deadline fires first.
func WithTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
