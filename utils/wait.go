package utils

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// SleepOrWait provides context-aware long waiting or short sleeping on clk.
//
// For delay <= threshold, it sleeps directly, ignoring context cancellation.
// For delay > threshold, it respects context cancellation.
func SleepOrWait(ctx context.Context, clk clock.Clock, delay time.Duration, threshold time.Duration) error {
	if delay <= threshold {
		clk.Sleep(delay)
		return nil
	}

	timer := clk.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
