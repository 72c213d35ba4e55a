package bypass

import (
	"context"
	"time"
)

// Clock lets tests drive the polling loop without real waits.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration)
}

type systemClock struct{}

func (systemClock) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
