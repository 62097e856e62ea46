package upstream

import (
	"context"
	"time"
)

// DefaultBackoffBase is the delay before the second attempt. Later delays
// double: base, 2*base, 4*base, ...
const DefaultBackoffBase = 500 * time.Millisecond

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Backoff returns the delay to wait after the given failed attempt
// (1-based): base * 2^(attempt-1).
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
