// Package status keeps a live, concurrency-safe view of the monitor for the
// status API and records resolved outages.
package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/routerwatch/internal/domain"
	"github.com/hamed0406/routerwatch/internal/monitor"
	"github.com/hamed0406/routerwatch/internal/notify"
	"github.com/hamed0406/routerwatch/internal/repo"
)

const notifyTimeout = 10 * time.Second

// Recorder implements monitor.Observer.
type Recorder struct {
	log      *zap.Logger
	store    repo.OutageStore
	notifier notify.Notifier

	mu     sync.RWMutex
	status domain.Status
}

var _ monitor.Observer = (*Recorder)(nil)

// NewRecorder wires the history store and an optional notifier (nil disables it).
func NewRecorder(log *zap.Logger, store repo.OutageStore, n notify.Notifier, startedAt time.Time) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		log:      log,
		store:    store,
		notifier: n,
		status: domain.Status{
			State: monitor.StateInitializing.String(),
			Since: startedAt,
		},
	}
}

// Snapshot returns a copy of the current status.
func (r *Recorder) Snapshot() domain.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.status
	if s.LastProbeAt != nil {
		t := *s.LastProbeAt
		s.LastProbeAt = &t
	}
	if s.LastResetAt != nil {
		t := *s.LastResetAt
		s.LastResetAt = &t
	}
	return s
}

func (r *Recorder) StateChanged(_, to monitor.State, at time.Time) {
	r.mu.Lock()
	r.status.State = to.String()
	r.status.Since = at
	r.mu.Unlock()
}

func (r *Recorder) Probed(_ monitor.State, up bool, at time.Time) {
	r.mu.Lock()
	r.status.Probes++
	r.status.LastProbeUp = up
	r.status.LastProbeAt = &at
	r.mu.Unlock()
}

func (r *Recorder) ResetAttempted(at time.Time, err error) {
	r.mu.Lock()
	r.status.ResetAttempts++
	r.status.LastResetAt = &at
	if err != nil {
		r.status.LastResetError = err.Error()
	} else {
		r.status.ResetsIssued++
		r.status.LastResetError = ""
	}
	r.mu.Unlock()
}

// OutageResolved stores the outage and, when configured, notifies. Store and
// notify errors are logged only.
func (r *Recorder) OutageResolved(o domain.Outage) {
	r.mu.Lock()
	r.status.Outages++
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if r.store != nil {
		if err := r.store.Append(ctx, &o); err != nil {
			r.log.Warn("outage_store_error", zap.Error(err))
		}
	}
	if r.notifier == nil {
		return
	}
	text := fmt.Sprintf(
		"Down: %s\nUp: %s\nUnavailable for: %s\nFailed probes: %d\nResets issued: %d (attempts: %d)",
		o.StartedAt.Format(monitor.TimestampLayout), o.EndedAt.Format(monitor.TimestampLayout),
		o.Downtime, o.Failures, o.ResetsIssued, o.ResetAttempts,
	)
	if err := r.notifier.Send(ctx, "🟢 Connection restored", text); err != nil {
		r.log.Warn("notify_error", zap.Error(err))
	}
}
