package browser

import (
	"context"
	"time"
)

const DefaultPollInterval = 250 * time.Millisecond

// Poll проверяет cond каждые interval, пока не истечёт timeout.
// cond вызывается хотя бы один раз, даже при нулевом timeout.
func Poll(ctx context.Context, timeout, interval time.Duration, cond func() bool) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	for {
		if cond() {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrTimeout
		}

		wait := interval
		if left := time.Until(deadline); left < wait {
			wait = left
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Pause: пауза, прерываемая отменой контекста
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
