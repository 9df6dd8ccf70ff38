package timeout

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common bounds for outbound calls
const (
	Chat     = 30 * time.Second
	DB       = 5 * time.Second
	External = 10 * time.Second
)

// ErrTimeout matches any *Error via errors.Is
var ErrTimeout = errors.New("operation timed out")

// Error reports that an operation exceeded its bound
type Error struct {
	Label    string
	Duration time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%dms)", e.Label, e.Duration.Milliseconds())
}

func (e *Error) Is(target error) bool {
	return target == ErrTimeout
}

type result[T any] struct {
	value T
	err   error
}

// Do runs op with a deadline of d. If the deadline passes first, Do returns
// an *Error without waiting for op; op's context is cancelled so it can stop.
func Do[T any](ctx context.Context, d time.Duration, label string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so an abandoned op can still deliver and exit
	done := make(chan result[T], 1)
	go func() {
		value, err := op(opCtx)
		done <- result[T]{value: value, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		return zero, &Error{Label: label, Duration: d}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
