package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBase        = 2 * time.Second
)

var (
	// ErrMaxRetriesExceeded is returned once every attempt failed with a transient error.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrPermanent marks a failure that was not retried.
	ErrPermanent = errors.New("non-retryable failure")
)

// Policy describes how a single logical call is attempted.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	// Retryable reports whether a failed attempt may be tried again.
	Retryable func(error) bool
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	Log   *slog.Logger
}

// Delay returns the wait before the attempt following attempt (zero-indexed).
func (p Policy) Delay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = DefaultBase
	}
	return ExponentialBackoff(attempt, base)
}

// StatusCoder is implemented by errors that carry a remote status code.
type StatusCoder interface {
	HTTPStatus() int
}

// Do runs fn until it succeeds, fails permanently, or runs out of attempts.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = wait
	}
	log = log.With("op", op)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		log.Info("attempt started", "attempt", attempt, "max_attempts", attempts)
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if p.Retryable == nil || !p.Retryable(err) {
			log.Error("attempt failed permanently", "attempt", attempt, "err", err)
			return zero, fmt.Errorf("%s: %w: %w", op, ErrPermanent, err)
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		delay := p.Delay(attempt)
		args := []any{"attempt", attempt, "err", err, "delay", delay}
		var sc StatusCoder
		if errors.As(err, &sc) {
			args = append(args, "status", sc.HTTPStatus())
		}
		log.Warn("attempt failed, retrying", args...)
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	log.Error("retries exhausted", "attempts", attempts, "err", lastErr)
	return zero, fmt.Errorf("%s: %w after %d attempts: %w", op, ErrMaxRetriesExceeded, attempts, lastErr)
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
