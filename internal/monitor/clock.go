package monitor

import (
	"context"
	"time"
)

// TimestampLayout is how event timestamps are rendered in log lines.
const TimestampLayout = "2006-01-02 15:04:05"

type locationClock struct {
	loc *time.Location
}

// NewClock returns a wall clock that reports times in loc (time.Local when nil).
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return locationClock{loc: loc}
}

func (c locationClock) Now() time.Time { return time.Now().In(c.loc) }

type timerSleeper struct{}

// NewSleeper returns a Sleeper backed by a timer. Cancelling ctx ends the sleep early.
func NewSleeper() Sleeper { return timerSleeper{} }

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
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
