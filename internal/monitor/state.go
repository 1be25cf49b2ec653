package monitor

import "time"

// State is the monitor's current phase. Exactly one is active at a time.
type State int

const (
	StateInitializing State = iota
	StateOnline
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// States lists every state, in declaration order.
func States() []State {
	return []State{StateInitializing, StateOnline, StateOffline}
}

// OutageEpisode tracks one outage, from the first failed probe while online to
// the first successful probe after it.
type OutageEpisode struct {
	StartedAt           time.Time
	ConsecutiveFailures int
	ResetsIssued        int

	Failures      int // every failed probe in the episode
	ResetAttempts int // trigger invocations, successful or not
}

func newEpisode(at time.Time) *OutageEpisode {
	return &OutageEpisode{
		StartedAt:           at,
		ConsecutiveFailures: 1,
		Failures:            1,
	}
}
