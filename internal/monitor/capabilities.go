package monitor

import (
	"context"
	"time"

	"github.com/hamed0406/routerwatch/internal/domain"
)

// Probe answers "is the network up right now". Implementations swallow transport
// errors and must return within a bounded time.
type Probe interface {
	Reachable(ctx context.Context) bool
}

// Clock returns the current time in the display location.
type Clock interface {
	Now() time.Time
}

// Sleeper suspends the caller. It returns ctx.Err() if ctx ends first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ResetTrigger fires the external reset action. A nil error means the reset was accepted.
type ResetTrigger interface {
	Fire(ctx context.Context) error
}

// Observer receives monitor events. Calls happen on the monitor goroutine.
type Observer interface {
	StateChanged(from, to State, at time.Time)
	Probed(state State, up bool, at time.Time)
	ResetAttempted(at time.Time, err error)
	OutageResolved(o domain.Outage)
}

// Observers fans events out to each non-nil observer in order.
type Observers []Observer

func (o Observers) StateChanged(from, to State, at time.Time) {
	for _, ob := range o {
		if ob != nil {
			ob.StateChanged(from, to, at)
		}
	}
}

func (o Observers) Probed(state State, up bool, at time.Time) {
	for _, ob := range o {
		if ob != nil {
			ob.Probed(state, up, at)
		}
	}
}

func (o Observers) ResetAttempted(at time.Time, err error) {
	for _, ob := range o {
		if ob != nil {
			ob.ResetAttempted(at, err)
		}
	}
}

func (o Observers) OutageResolved(out domain.Outage) {
	for _, ob := range o {
		if ob != nil {
			ob.OutageResolved(out)
		}
	}
}

type nopObserver struct{}

func (nopObserver) StateChanged(State, State, time.Time) {}
func (nopObserver) Probed(State, bool, time.Time)        {}
func (nopObserver) ResetAttempted(time.Time, error)      {}
func (nopObserver) OutageResolved(domain.Outage)         {}
