package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Failure classes reported by remote backends. Callers treat every cache
// error as a miss; the classes exist for logging and for retrying the
// initial connection.
var (
	// ErrNetwork means the backend could not be reached or dropped the
	// connection. It is worth retrying.
	ErrNetwork = errors.New("cache backend unreachable")

	// ErrBackend means the backend answered with an error reply, such as
	// OOM or a read-only replica. Retrying will not help.
	ErrBackend = errors.New("cache backend error")

	// ErrClosed means the cache was used after Close.
	ErrClosed = errors.New("cache closed")
)

// classifyRedis maps a go-redis error onto the failure classes above.
// redis.Nil is a miss, not an error, and must be handled before calling.
func classifyRedis(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		netErr   net.Error
		replyErr redis.Error
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, redis.ErrClosed):
		return fmt.Errorf("redis %s: %w", op, ErrClosed)
	case errors.As(err, &replyErr):
		return fmt.Errorf("redis %s: %w: %v", op, ErrBackend, err)
	case errors.As(err, &netErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return Retryable(fmt.Errorf("redis %s: %w: %v", op, ErrNetwork, err))
	}
	return fmt.Errorf("redis %s: %w", op, err)
}

// RetryableError marks an error that RetryWithBackoff should retry.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryDelay is the first backoff between connection attempts.
var retryDelay = time.Second

// RetryWithBackoff runs fn up to three times, doubling the wait after each
// retryable failure. Errors not marked Retryable are returned at once.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := retryDelay
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
