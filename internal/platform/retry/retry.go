// Package retry runs operations with exponential backoff. It is used for
// start-up dependencies (PostgreSQL, Redis) that may not be reachable yet.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, use normal backoff
	Wait                // dependency still starting, use the longer backoff
)

type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// StartupBackoff replaces the current backoff when Classify returns Wait.
	StartupBackoff time.Duration
	OnRetry        func(attempt int, err error, backoff time.Duration)
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// StartupPolicy is used when connecting to backing services at boot.
var StartupPolicy = Policy{
	MaxAttempts:    8,
	InitialBackoff: 250 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	StartupBackoff: 2 * time.Second,
}

type Classify func(err error) Action

// Always retries every error.
func Always(error) Action { return Retry }

func Do[T any](ctx context.Context, p Policy, classify Classify, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, errors.New("retry: MaxAttempts must be at least 1")
	}
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	backoff := p.InitialBackoff
	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}

		action := classify(err)
		if action == Stop {
			return zero, &PermanentError{Err: err}
		}
		if attempt == p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		if action == Wait && p.StartupBackoff > backoff {
			backoff = p.StartupBackoff
		}
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, backoff)
		}

		select {
		case <-clock.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

func DoVoid(ctx context.Context, p Policy, classify Classify, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, classify, func(ctx context.Context) (struct{}, error) { return struct{}{}, op(ctx) })
	return err
}

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
