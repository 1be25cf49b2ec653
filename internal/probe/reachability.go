package probe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Reachability adapts a Checker to the monitor's boolean probe. Each call is
// bounded by Timeout and never panics; any failure reads as "down".
type Reachability struct {
	Checker Checker
	Target  string
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewReachability(c Checker, target string, timeout time.Duration, log *zap.Logger) *Reachability {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reachability{Checker: c, Target: target, Timeout: timeout, Logger: log}
}

func (r *Reachability) Reachable(ctx context.Context) (up bool) {
	defer func() {
		if p := recover(); p != nil {
			r.Logger.Warn("probe_panic", zap.String("target", r.Target), zap.String("panic", fmt.Sprint(p)))
			up = false
		}
	}()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	out := r.Checker.Check(ctx, r.Target)
	r.Logger.Debug("probe_result",
		zap.String("checker", out.Name),
		zap.String("target", r.Target),
		zap.Bool("up", out.Success),
		zap.Float64("latency_ms", out.LatencyMS),
		zap.String("message", out.Message),
	)
	return out.Success
}
