// Package monitor implements the connectivity watchdog: a sequential state
// machine that probes reachability, tracks outages and escalates to a reset
// trigger when an outage persists.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/routerwatch/internal/domain"
)

// Deps are the capabilities a Monitor consumes.
type Deps struct {
	Probe    Probe
	Clock    Clock
	Sleeper  Sleeper
	Trigger  ResetTrigger
	Logger   *zap.Logger
	Observer Observer
}

// Monitor is not safe for concurrent use; run it from a single goroutine.
type Monitor struct {
	cfg     Config
	probe   Probe
	clock   Clock
	sleeper Sleeper
	trigger ResetTrigger
	log     *zap.Logger
	obs     Observer

	state     State
	heartbeat int
	episode   *OutageEpisode
	attempts  int // acquisition attempts while initializing
}

func New(cfg Config, deps Deps) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Probe == nil:
		return nil, fmt.Errorf("%w: probe is required", ErrInvalidConfig)
	case deps.Clock == nil:
		return nil, fmt.Errorf("%w: clock is required", ErrInvalidConfig)
	case deps.Sleeper == nil:
		return nil, fmt.Errorf("%w: sleeper is required", ErrInvalidConfig)
	case deps.Trigger == nil:
		return nil, fmt.Errorf("%w: reset trigger is required", ErrInvalidConfig)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	return &Monitor{
		cfg:     cfg,
		probe:   deps.Probe,
		clock:   deps.Clock,
		sleeper: deps.Sleeper,
		trigger: deps.Trigger,
		log:     deps.Logger,
		obs:     deps.Observer,
		state:   StateInitializing,
	}, nil
}

// State returns the current state.
func (m *Monitor) State() State { return m.state }

// Episode returns a copy of the open outage episode, if any.
func (m *Monitor) Episode() (OutageEpisode, bool) {
	if m.episode == nil {
		return OutageEpisode{}, false
	}
	return *m.episode, true
}

// Run steps the state machine until the sleeper reports ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("monitoring_started", zap.String("at", m.clock.Now().Format(TimestampLayout)))
	for {
		if err := m.Step(ctx); err != nil {
			m.log.Info("monitoring_stopped", zap.String("state", m.state.String()), zap.Error(err))
			return err
		}
	}
}

// Step runs one iteration of the current state: a probe, the resulting
// transition, and at most one sleep. It returns only sleeper errors.
func (m *Monitor) Step(ctx context.Context) error {
	switch m.state {
	case StateOnline:
		return m.stepOnline(ctx)
	case StateOffline:
		return m.stepOffline(ctx)
	default:
		return m.stepInitializing(ctx)
	}
}

func (m *Monitor) stepInitializing(ctx context.Context) error {
	up := m.probe.Reachable(ctx)
	now := m.clock.Now()
	m.obs.Probed(StateInitializing, up, now)
	m.attempts++

	if up {
		m.log.Info("connection_acquired",
			zap.String("at", now.Format(TimestampLayout)),
			zap.Int("attempts", m.attempts),
		)
		m.transition(StateOnline, now)
		return nil
	}

	if m.attempts == 1 {
		m.log.Warn("connection_not_acquired", zap.String("at", now.Format(TimestampLayout)))
	} else {
		m.log.Debug("connection_not_acquired", zap.Int("attempts", m.attempts))
	}
	return m.sleeper.Sleep(ctx, m.cfg.OnlinePollInterval)
}

func (m *Monitor) stepOnline(ctx context.Context) error {
	up := m.probe.Reachable(ctx)
	now := m.clock.Now()
	m.obs.Probed(StateOnline, up, now)

	if !up {
		m.episode = newEpisode(now)
		m.log.Warn("disconnected", zap.String("at", now.Format(TimestampLayout)))
		m.transition(StateOffline, now)
		return nil
	}

	m.heartbeat++
	if m.heartbeat >= m.cfg.HeartbeatInterval {
		m.log.Info("still_monitoring", zap.Int("probes", m.heartbeat))
		m.heartbeat = 0
	}
	return m.sleeper.Sleep(ctx, m.cfg.OnlinePollInterval)
}

func (m *Monitor) stepOffline(ctx context.Context) error {
	ep := m.episode
	if ep == nil {
		// Offline always carries an episode; rebuild one if it was lost.
		ep = newEpisode(m.clock.Now())
		m.episode = ep
	}

	up := m.probe.Reachable(ctx)
	now := m.clock.Now()
	m.obs.Probed(StateOffline, up, now)

	if up {
		m.resolve(ep, now)
		return nil
	}
	ep.Failures++

	m.log.Warn("outage_progress",
		zap.Int("consecutive_failures", ep.ConsecutiveFailures),
		zap.Int("resets_issued", ep.ResetsIssued),
	)

	wait := m.cfg.OfflinePollInterval
	if m.resetDue(ep) {
		m.fireReset(ctx, ep, now)
		wait = m.cfg.PostResetCooldown
		ep.ConsecutiveFailures = 0
	}
	ep.ConsecutiveFailures++
	return m.sleeper.Sleep(ctx, wait)
}

// resetDue reports whether this failed iteration should attempt a reset.
// Only successful resets consume the per-outage budget, so a trigger that keeps
// failing is retried every FailuresBeforeReset failures without limit.
func (m *Monitor) resetDue(ep *OutageEpisode) bool {
	return ep.ConsecutiveFailures%m.cfg.FailuresBeforeReset == 0 &&
		ep.ResetsIssued < m.cfg.MaxResetsPerOutage
}

func (m *Monitor) fireReset(ctx context.Context, ep *OutageEpisode, now time.Time) {
	m.log.Warn("attempting_reset",
		zap.Int("attempt", ep.ResetAttempts+1),
		zap.Int("resets_issued", ep.ResetsIssued),
	)
	ep.ResetAttempts++

	err := m.callTrigger(ctx)
	m.obs.ResetAttempted(now, err)
	if err != nil {
		m.log.Error("reset_failed", zap.Error(err))
		return
	}
	ep.ResetsIssued++
	m.log.Warn("reset_issued", zap.Int("resets_issued", ep.ResetsIssued))
}

// callTrigger bounds the trigger call and converts a panic into an error so a
// misbehaving trigger cannot stop the loop.
func (m *Monitor) callTrigger(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reset trigger panicked: %v", r)
		}
	}()
	cctx, cancel := context.WithTimeout(ctx, m.cfg.ResetTimeout)
	defer cancel()
	err = m.trigger.Fire(cctx)
	if err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("reset trigger timed out after %s: %w", m.cfg.ResetTimeout, err)
	}
	return err
}

func (m *Monitor) resolve(ep *OutageEpisode, now time.Time) {
	elapsed := now.Sub(ep.StartedAt)
	downtime := FormatDowntime(elapsed)

	m.log.Info("connected_again", zap.String("at", now.Format(TimestampLayout)))
	m.log.Info("connection_unavailable",
		zap.String("for", downtime),
		zap.Int("failures", ep.Failures),
		zap.Int("resets_issued", ep.ResetsIssued),
	)

	secs := int64(elapsed.Seconds())
	if secs < 0 {
		secs = 0
	}
	m.obs.OutageResolved(domain.Outage{
		StartedAt:       ep.StartedAt,
		EndedAt:         now,
		Downtime:        downtime,
		DowntimeSeconds: secs,
		Failures:        ep.Failures,
		ResetAttempts:   ep.ResetAttempts,
		ResetsIssued:    ep.ResetsIssued,
	})

	m.episode = nil
	m.transition(StateOnline, now)
}

func (m *Monitor) transition(to State, at time.Time) {
	from := m.state
	m.state = to
	if to == StateOnline {
		m.heartbeat = 0
	}
	m.obs.StateChanged(from, to, at)
}
