package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "listmgmt"

// Metrics holds the Prometheus collectors for the list service. All methods
// are safe on a nil receiver so components can run without instrumentation.
type Metrics struct {
	cacheLookups       *prometheus.CounterVec
	mutations          *prometheus.CounterVec
	jobsEnqueued       *prometheus.CounterVec
	jobsApplied        *prometheus.CounterVec
	jobsFailed         *prometheus.CounterVec
	enqueueDuration    prometheus.Histogram
	notifications      *prometheus.CounterVec
	circuitOpen        *prometheus.GaugeVec
	cacheInvalidations prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups on the read path by result (hit, miss, tombstone)",
		}, []string{"result"}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Engine operations by operation and outcome code",
		}, []string{"operation", "code"}),
		jobsEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_enqueued_total",
			Help:      "Durability jobs accepted by the queue",
		}, []string{"action"}),
		jobsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_applied_total",
			Help:      "Durability jobs committed to the store",
		}, []string{"action"}),
		jobsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Durability jobs dropped after a failed apply",
		}, []string{"action"}),
		enqueueDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enqueue_duration_seconds",
			Help:      "Time to hand a durability job to the queue",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications by outcome (sent, failed, dropped)",
		}, []string{"outcome"}),
		circuitOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_open",
			Help:      "1 while the named circuit breaker is open",
		}, []string{"name"}),
		cacheInvalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidated_keys_total",
			Help:      "Cache keys removed by list type changes and list deletion",
		}),
	}
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Mutation records an engine outcome. code is empty on success.
func (m *Metrics) Mutation(operation, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	m.mutations.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) JobEnqueued(action string, took time.Duration) {
	if m == nil {
		return
	}
	m.jobsEnqueued.WithLabelValues(action).Inc()
	m.enqueueDuration.Observe(took.Seconds())
}

func (m *Metrics) JobApplied(action string) {
	if m == nil {
		return
	}
	m.jobsApplied.WithLabelValues(action).Inc()
}

func (m *Metrics) JobFailed(action string) {
	if m == nil {
		return
	}
	m.jobsFailed.WithLabelValues(action).Inc()
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CircuitState(name string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.circuitOpen.WithLabelValues(name).Set(v)
}

func (m *Metrics) KeysInvalidated(n int) {
	if m == nil {
		return
	}
	m.cacheInvalidations.Add(float64(n))
}
