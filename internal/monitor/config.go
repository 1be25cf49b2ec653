package monitor

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ErrInvalidConfig is wrapped by every validation failure reported by Config.Validate.
var ErrInvalidConfig = errors.New("invalid monitor config")

// Config is the immutable policy of a Monitor. Build it once at startup.
type Config struct {
	OfflinePollInterval time.Duration // sleep between probes while offline
	OnlinePollInterval  time.Duration // sleep between probes while online or acquiring
	PostResetCooldown   time.Duration // sleep after a reset attempt, replaces OfflinePollInterval
	ResetTimeout        time.Duration // upper bound for a single reset trigger call

	FailuresBeforeReset int // a reset is attempted every N consecutive failures
	HeartbeatInterval   int // successful online probes per liveness line
	MaxResetsPerOutage  int // successful resets allowed per outage; 0 disables resets
}

// DefaultConfig mirrors the defaults of the environment surface.
func DefaultConfig() Config {
	return Config{
		OfflinePollInterval: 60 * time.Second,
		OnlinePollInterval:  30 * time.Second,
		PostResetCooldown:   120 * time.Second,
		ResetTimeout:        10 * time.Second,
		FailuresBeforeReset: 3,
		HeartbeatInterval:   20,
		MaxResetsPerOutage:  3,
	}
}

// Validate reports every violated rule at once.
func (c Config) Validate() error {
	var err error
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			multierr.AppendInto(&err, fmt.Errorf("%w: %s must be > 0, got %s", ErrInvalidConfig, name, d))
		}
	}
	positive("offline poll interval", c.OfflinePollInterval)
	positive("online poll interval", c.OnlinePollInterval)
	positive("post-reset cooldown", c.PostResetCooldown)
	positive("reset timeout", c.ResetTimeout)

	if c.FailuresBeforeReset < 1 {
		multierr.AppendInto(&err, fmt.Errorf("%w: failures before reset must be >= 1, got %d", ErrInvalidConfig, c.FailuresBeforeReset))
	}
	if c.HeartbeatInterval < 1 {
		multierr.AppendInto(&err, fmt.Errorf("%w: heartbeat interval must be >= 1, got %d", ErrInvalidConfig, c.HeartbeatInterval))
	}
	if c.MaxResetsPerOutage < 0 {
		multierr.AppendInto(&err, fmt.Errorf("%w: max resets per outage must be >= 0, got %d", ErrInvalidConfig, c.MaxResetsPerOutage))
	}
	return err
}
