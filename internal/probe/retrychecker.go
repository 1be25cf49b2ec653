package probe

import (
	"context"
	"time"
)

// RetryChecker repeats a failing check up to Attempts times, waiting Backoff
// between tries. It stops early when ctx is done.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last CheckResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Success || i == attempts-1 {
			break
		}
		if !wait(ctx, r.Backoff) {
			break
		}
	}
	if !last.Success && attempts > 1 {
		last.Message = last.Message + " (after retries)"
	}
	return last
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
