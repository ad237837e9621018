// Package retry wraps a resolver.Querier with a fixed-delay,
// attempt-capped retry policy. DNS queries are idempotent and transient
// network failures are common, so a blind fixed-delay retry is an
// acceptable, simple policy: no exponential backoff, no jitter, no
// retry budget shared across tasks.
package retry

import (
	"context"
	"time"

	"github.com/Kuraiyume/Akari/internal/log"
	"github.com/Kuraiyume/Akari/internal/resolver"
)

const (
	// DefaultAttempts is the total number of attempts, first try included.
	DefaultAttempts = 3
	// DefaultDelay is the fixed pause between attempts.
	DefaultDelay = 2 * time.Second
)

var _ resolver.Querier = (*Resolver)(nil)

// Resolver decorates a resolver.Querier with retries. Classified
// outcomes returned inside a Lookup are final answers and are never
// retried; only errors trigger another attempt.
type Resolver struct {
	Next     resolver.Querier
	Attempts uint
	Delay    time.Duration

	// sleep is swappable so tests don't burn wall-clock time.
	sleep func(ctx context.Context, d time.Duration) error
}

// New wraps next with the default policy (3 attempts, 2s apart).
func New(next resolver.Querier) *Resolver {
	return &Resolver{
		Next:     next,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
		sleep:    sleepCtx,
	}
}

// Resolve calls the wrapped querier, retrying on any error. After the
// attempts are exhausted the last error propagates to the caller.
func (r *Resolver) Resolve(ctx context.Context, domain, recordType string) (*resolver.Lookup, error) {
	attempts := r.Attempts
	if attempts == 0 {
		attempts = DefaultAttempts
	}

	var lastErr error
	for attempt := uint(1); attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := r.doSleep(ctx); err != nil {
				return nil, err
			}
		}

		lookup, err := r.Next.Resolve(ctx, domain, recordType)
		if err == nil {
			return lookup, nil
		}
		lastErr = err
		log.Debugf("retry: %s %s attempt %d/%d failed: %v",
			recordType, domain, attempt, attempts, err)
	}

	return nil, lastErr
}

func (r *Resolver) doSleep(ctx context.Context) error {
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	return sleep(ctx, r.Delay)
}

// sleepCtx pauses for d but returns early if ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
