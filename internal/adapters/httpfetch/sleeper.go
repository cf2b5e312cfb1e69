package httpfetch

import (
	"context"
	"time"
)

// SystemSleeper waits on the wall clock and honours context cancellation.
type SystemSleeper struct{}

// Sleep blocks for d or until ctx is done.
func (SystemSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
