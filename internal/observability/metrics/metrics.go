// Package metrics records poll loop activity for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hwbot"

// Notification results.
const (
	ResultSent       = "sent"
	ResultSuppressed = "suppressed"
	ResultFailed     = "failed"
)

// Recorder owns a private registry; nothing is registered globally.
// A nil *Recorder is a valid no-op.
type Recorder struct {
	reg *prometheus.Registry

	polls         *prometheus.CounterVec
	pollDuration  prometheus.Histogram
	notifications *prometheus.CounterVec
	cursor        prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Poll iterations by outcome (ok or the failure kind).",
		}, []string{"outcome"}),
		pollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of one status API query.",
			Buckets:   prometheus.DefBuckets,
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification decisions by result.",
		}, []string{"result"}),
		cursor: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cursor_unix_seconds",
			Help:      "Lower bound of the next status query window.",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_unix_seconds",
			Help:      "Time of the last iteration that produced a status message.",
		}),
	}
}

// Registry exposes the private registry for the HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) ObservePoll(outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.polls.WithLabelValues(outcome).Inc()
	r.pollDuration.Observe(took.Seconds())
}

func (r *Recorder) Notification(result string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(result).Inc()
}

func (r *Recorder) Cursor(v int64) {
	if r == nil {
		return
	}
	r.cursor.Set(float64(v))
}

func (r *Recorder) Success(at time.Time) {
	if r == nil {
		return
	}
	r.lastSuccess.Set(float64(at.Unix()))
}
