package checkout

import (
	"context"
	"time"
)

// Clock abstracts time so tests can run the pipeline without real waits.
type Clock interface {
	Now() time.Time

	// Sleep pauses for d or until the context is cancelled, whichever comes
	// first.
	Sleep(ctx context.Context, d time.Duration)
}

// SystemClock is the production Clock backed by the time package.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep implements Clock.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
