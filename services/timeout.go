package services

import (
	"context"
	"time"
)

// DefaultOperationTimeout bounds storage work when no timeout is configured.
const DefaultOperationTimeout = 5 * time.Second

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		d = DefaultOperationTimeout
	}
	return context.WithTimeout(ctx, d)
}

// detached returns a context for post-commit side effects that must not be
// cut short by the caller's request being cancelled.
func detached(d time.Duration) (context.Context, context.CancelFunc) {
	return withTimeout(context.Background(), d)
}
