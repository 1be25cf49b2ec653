// Package metrics exposes monitor events as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hamed0406/routerwatch/internal/domain"
	"github.com/hamed0406/routerwatch/internal/monitor"
)

// Collector implements monitor.Observer.
type Collector struct {
	state       *prometheus.GaugeVec
	probes      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	resets      *prometheus.CounterVec
	outages     prometheus.Counter
	downtime    prometheus.Histogram
}

var _ monitor.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "routerwatch_state",
				Help: "Current monitor state (1=active, 0=inactive)",
			},
			[]string{"state"},
		),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routerwatch_probes_total",
				Help: "Reachability probes by monitor state and result",
			},
			[]string{"state", "result"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routerwatch_state_transitions_total",
				Help: "State transitions by source and target state",
			},
			[]string{"from", "to"},
		),
		resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routerwatch_reset_attempts_total",
				Help: "Reset trigger calls by result",
			},
			[]string{"result"},
		),
		outages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routerwatch_outages_total",
			Help: "Resolved outages",
		}),
		downtime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "routerwatch_outage_duration_seconds",
			Help:    "Duration of resolved outages",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10), // 30s to ~4h
		}),
	}
	c.setState(monitor.StateInitializing)
	return c
}

// Register adds every metric to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{c.state, c.probes, c.transitions, c.resets, c.outages, c.downtime} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) setState(cur monitor.State) {
	for _, s := range monitor.States() {
		c.state.WithLabelValues(s.String()).Set(0)
	}
	c.state.WithLabelValues(cur.String()).Set(1)
}

func (c *Collector) StateChanged(from, to monitor.State, _ time.Time) {
	c.setState(to)
	if from != to {
		c.transitions.WithLabelValues(from.String(), to.String()).Inc()
	}
}

func (c *Collector) Probed(state monitor.State, up bool, _ time.Time) {
	result := "down"
	if up {
		result = "up"
	}
	c.probes.WithLabelValues(state.String(), result).Inc()
}

func (c *Collector) ResetAttempted(_ time.Time, err error) {
	result := "issued"
	if err != nil {
		result = "failed"
	}
	c.resets.WithLabelValues(result).Inc()
}

func (c *Collector) OutageResolved(o domain.Outage) {
	c.outages.Inc()
	c.downtime.Observe(float64(o.DowntimeSeconds))
}
