// Package delivery retries acknowledged sends with a bounded number of attempts.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
)

// Policy bounds one reliable delivery.
type Policy struct {
	Attempts int
	Timeout  time.Duration
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Retry calls op until it succeeds or the attempts run out. Every attempt gets a
// fresh context bounded by p.Timeout. A closed connection or a cancelled parent
// context ends the loop early.
func Retry[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for range p.attempts() {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		actx, cancel := attemptContext(ctx, p.Timeout)
		v, err := op(actx)
		cancel()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if errors.Is(err, domain.ErrConnectionClosed) || ctx.Err() != nil {
			break
		}
	}
	return zero, fmt.Errorf("%w: %w", domain.ErrDeliveryRetriesExhausted, lastErr)
}

func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
