package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/routerwatch/internal/domain"
)

// ---- fakes ----

// scriptProbe replays results in order, then returns fallback forever.
type scriptProbe struct {
	results  []bool
	fallback bool
	calls    int
}

func (p *scriptProbe) Reachable(context.Context) bool {
	p.calls++
	if p.calls <= len(p.results) {
		return p.results[p.calls-1]
	}
	return p.fallback
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// fakeSleeper advances the fake clock instead of blocking.
type fakeSleeper struct {
	clock *fakeClock
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.slept = append(s.slept, d)
	s.clock.now = s.clock.now.Add(d)
	return nil
}

type fakeTrigger struct {
	err    error
	calls  int
	onCall func()
}

func (f *fakeTrigger) Fire(context.Context) error {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	return f.err
}

type recordingObserver struct {
	transitions []State
	resolved    []domain.Outage
	resets      []error
	probes      int
}

func (r *recordingObserver) StateChanged(_, to State, _ time.Time) {
	r.transitions = append(r.transitions, to)
}
func (r *recordingObserver) Probed(State, bool, time.Time)         { r.probes++ }
func (r *recordingObserver) ResetAttempted(_ time.Time, err error) { r.resets = append(r.resets, err) }
func (r *recordingObserver) OutageResolved(o domain.Outage)        { r.resolved = append(r.resolved, o) }

type harness struct {
	m       *Monitor
	probe   *scriptProbe
	clock   *fakeClock
	sleeper *fakeSleeper
	trigger *fakeTrigger
	obs     *recordingObserver
	logs    *observer.ObservedLogs
}

var t0 = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		OfflinePollInterval: 60 * time.Second,
		OnlinePollInterval:  30 * time.Second,
		PostResetCooldown:   120 * time.Second,
		ResetTimeout:        time.Second,
		FailuresBeforeReset: 3,
		HeartbeatInterval:   20,
		MaxResetsPerOutage:  3,
	}
}

func newHarness(t *testing.T, cfg Config, probe *scriptProbe) *harness {
	t.Helper()
	clock := &fakeClock{now: t0}
	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		probe:   probe,
		clock:   clock,
		sleeper: &fakeSleeper{clock: clock},
		trigger: &fakeTrigger{},
		obs:     &recordingObserver{},
		logs:    logs,
	}
	m, err := New(cfg, Deps{
		Probe:    probe,
		Clock:    clock,
		Sleeper:  h.sleeper,
		Trigger:  h.trigger,
		Logger:   zap.New(core),
		Observer: h.obs,
	})
	require.NoError(t, err)
	h.m = m
	return h
}

func (h *harness) steps(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, h.m.Step(context.Background()))
		assert.Contains(t, States(), h.m.State())
	}
}

func (h *harness) count(msg string) int { return h.logs.FilterMessage(msg).Len() }

// ---- tests ----

func TestNew_RejectsInvalidConfigAndMissingDeps(t *testing.T) {
	bad := testConfig()
	bad.OnlinePollInterval = 0
	bad.FailuresBeforeReset = 0
	_, err := New(bad, Deps{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(testConfig(), Deps{Clock: &fakeClock{}, Sleeper: NewSleeper(), Trigger: &fakeTrigger{}})
	assert.ErrorIs(t, err, ErrInvalidConfig, "missing probe must be rejected")
}

func TestInitializing_RetriesUntilFirstSuccess(t *testing.T) {
	h := newHarness(t, testConfig(), &scriptProbe{results: []bool{false, false, false, true}, fallback: true})

	h.steps(t, 3)
	assert.Equal(t, StateInitializing, h.m.State())
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second, 30 * time.Second}, h.sleeper.slept)

	h.steps(t, 1)
	assert.Equal(t, StateOnline, h.m.State())
	assert.Equal(t, 1, h.count("connection_acquired"))
	assert.Equal(t, 0, h.trigger.calls, "no resets while initializing")
	assert.Equal(t, 0, h.count("outage_progress"), "no failed-ping counts while initializing")
	assert.Equal(t, 0, h.count("disconnected"))
	_, open := h.m.Episode()
	assert.False(t, open)
}

func TestInitializing_SingleSuccessGoesOnline(t *testing.T) {
	h := newHarness(t, testConfig(), &scriptProbe{fallback: true})
	h.steps(t, 1)
	assert.Equal(t, StateOnline, h.m.State())
	assert.Empty(t, h.sleeper.slept)
	assert.Equal(t, []State{StateOnline}, h.obs.transitions)
}

func TestOnline_RepeatedSuccessNeverOpensEpisode(t *testing.T) {
	h := newHarness(t, testConfig(), &scriptProbe{fallback: true})
	h.steps(t, 200)

	assert.Equal(t, StateOnline, h.m.State())
	_, open := h.m.Episode()
	assert.False(t, open)
	assert.Equal(t, 0, h.trigger.calls)
	assert.Equal(t, 0, h.count("disconnected"))
}

func TestOnline_HeartbeatEveryTwentyProbes(t *testing.T) {
	h := newHarness(t, testConfig(), &scriptProbe{fallback: true})
	h.steps(t, 1) // acquire

	h.steps(t, 19)
	assert.Equal(t, 0, h.count("still_monitoring"))
	h.steps(t, 1)
	require.Equal(t, 1, h.count("still_monitoring"))
	assert.Equal(t, int64(20), h.logs.FilterMessage("still_monitoring").All()[0].ContextMap()["probes"])

	h.steps(t, 60)
	assert.Equal(t, 4, h.count("still_monitoring"))
}

func TestOnline_HeartbeatCounterResetsAfterOutage(t *testing.T) {
	results := []bool{true}
	for i := 0; i < 10; i++ {
		results = append(results, true)
	}
	results = append(results, false, true) // outage, recovery
	h := newHarness(t, testConfig(), &scriptProbe{results: results, fallback: true})

	h.steps(t, 1+10+2)
	require.Equal(t, StateOnline, h.m.State())
	h.steps(t, 19)
	assert.Equal(t, 0, h.count("still_monitoring"), "counter restarts on entering online")
	h.steps(t, 1)
	assert.Equal(t, 1, h.count("still_monitoring"))
}

func TestScenario_SingleFailureThenRecovery(t *testing.T) {
	cfg := testConfig()
	cfg.OfflinePollInterval = 5 * time.Second
	// acquire, lose the link, fail once more while offline, then recover.
	h := newHarness(t, cfg, &scriptProbe{results: []bool{true, false, false}, fallback: true})

	h.steps(t, 2)
	assert.Equal(t, StateOffline, h.m.State())
	ep, open := h.m.Episode()
	require.True(t, open)
	assert.Equal(t, t0, ep.StartedAt)
	assert.Equal(t, 1, ep.ConsecutiveFailures)
	assert.Equal(t, 0, ep.ResetsIssued)

	h.steps(t, 2)
	assert.Equal(t, StateOnline, h.m.State())
	h.steps(t, 50)

	assert.Equal(t, 1, h.count("disconnected"))
	assert.Equal(t, 1, h.count("connected_again"))
	unavailable := h.logs.FilterMessage("connection_unavailable").All()
	require.Len(t, unavailable, 1)
	assert.Equal(t, "0:00:05", unavailable[0].ContextMap()["for"])
	assert.Equal(t, StateOnline, h.m.State())

	require.Len(t, h.obs.resolved, 1)
	assert.Equal(t, "0:00:05", h.obs.resolved[0].Downtime)
	assert.Equal(t, int64(5), h.obs.resolved[0].DowntimeSeconds)
	assert.Equal(t, 2, h.obs.resolved[0].Failures)
	_, open = h.m.Episode()
	assert.False(t, open, "episode is discarded on recovery")
}

func TestOffline_ResetAttemptsAtEveryThirdFailure(t *testing.T) {
	h := newHarness(t, testConfig(), &scriptProbe{results: []bool{true}, fallback: false})

	var at []int
	h.trigger.onCall = func() {
		// offline iteration = probes minus acquisition and the online failure
		at = append(at, h.probe.calls-2)
		ep, _ := h.m.Episode()
		assert.Equal(t, 3, ep.ConsecutiveFailures)
	}

	h.steps(t, 2)  // acquire + disconnect
	h.steps(t, 30) // long outage

	assert.Equal(t, []int{3, 6, 9}, at)
	ep, open := h.m.Episode()
	require.True(t, open)
	assert.Equal(t, 3, ep.ResetsIssued)
	assert.Equal(t, 3, h.count("reset_issued"))
}

func TestOffline_CooldownReplacesOfflineSleep(t *testing.T) {
	h := newHarness(t, testConfig(), &scriptProbe{results: []bool{true}, fallback: false})
	h.steps(t, 2)
	h.steps(t, 4)

	assert.Equal(t, []time.Duration{
		60 * time.Second,  // failure 1
		60 * time.Second,  // failure 2
		120 * time.Second, // failure 3, reset
		60 * time.Second,  // counter restarted at 1
	}, h.sleeper.slept)
	ep, _ := h.m.Episode()
	assert.Equal(t, 2, ep.ConsecutiveFailures)
}

func TestScenario_BudgetOfOneAllowsSingleReset(t *testing.T) {
	cfg := testConfig()
	cfg.MaxResetsPerOutage = 1
	h := newHarness(t, cfg, &scriptProbe{results: []bool{true}, fallback: false})

	h.steps(t, 2)
	h.steps(t, 500)

	assert.Equal(t, 1, h.trigger.calls)
	ep, _ := h.m.Episode()
	assert.Equal(t, 1, ep.ResetsIssued)
	assert.Equal(t, StateOffline, h.m.State())
}

func TestScenario_BudgetIsPerOutage(t *testing.T) {
	cfg := testConfig()
	cfg.MaxResetsPerOutage = 1
	results := []bool{true, false, false, false, false, true, false}
	h := newHarness(t, cfg, &scriptProbe{results: results, fallback: false})

	h.steps(t, 6) // acquire, outage with one reset, recover
	require.Equal(t, StateOnline, h.m.State())
	require.Equal(t, 1, h.trigger.calls)

	h.steps(t, 1+10) // second outage
	assert.Equal(t, 2, h.trigger.calls)
}

func TestZeroBudgetNeverResets(t *testing.T) {
	cfg := testConfig()
	cfg.MaxResetsPerOutage = 0
	h := newHarness(t, cfg, &scriptProbe{results: []bool{true}, fallback: false})
	h.steps(t, 50)
	assert.Equal(t, 0, h.trigger.calls)
	for _, d := range h.sleeper.slept {
		assert.Equal(t, 60*time.Second, d)
	}
}

// A failing trigger never consumes reset budget, so attempts continue past
// MaxResetsPerOutage. This is retained behaviour, not an oversight.
func TestRetainedBehaviour_FailedResetsDoNotConsumeBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MaxResetsPerOutage = 1
	h := newHarness(t, cfg, &scriptProbe{results: []bool{true}, fallback: false})
	h.trigger.err = errors.New("503 Service Unavailable")

	h.steps(t, 2)
	h.steps(t, 30)

	assert.Equal(t, 10, h.trigger.calls)
	ep, _ := h.m.Episode()
	assert.Equal(t, 0, ep.ResetsIssued)
	assert.Equal(t, 10, ep.ResetAttempts)
	assert.Equal(t, 10, h.count("reset_failed"))
	assert.Equal(t, 0, h.count("reset_issued"))
	require.Len(t, h.obs.resets, 10)
	assert.Error(t, h.obs.resets[0])
}

func TestResetTriggerPanicIsContained(t *testing.T) {
	h := newHarness(t, testConfig(), &scriptProbe{results: []bool{true}, fallback: false})
	h.trigger.onCall = func() { panic("boom") }

	h.steps(t, 5)
	assert.Equal(t, 1, h.count("reset_failed"))
	assert.Equal(t, StateOffline, h.m.State())
}

func TestRun_StopsAtSleepBoundaryWhenCancelled(t *testing.T) {
	h := newHarness(t, testConfig(), &scriptProbe{fallback: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, h.count("monitoring_started"))
	assert.Equal(t, 1, h.count("monitoring_stopped"))
}

func TestTimestampsUseClockLocation(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	h := newHarness(t, testConfig(), &scriptProbe{fallback: true})
	h.clock.now = time.Date(2026, 10, 19, 10, 15, 30, 999, loc)

	h.steps(t, 1)
	entry := h.logs.FilterMessage("connection_acquired").All()[0]
	assert.Equal(t, "2026-10-19 10:15:30", entry.ContextMap()["at"])
}
