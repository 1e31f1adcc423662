package replication

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels.
const (
	opFetch        = "fetch"
	opPersist      = "persist"
	opMemberExists = "member_exists"
	opPushMember   = "push_member"
	opPushAll      = "push_all"
)

// Metrics records replication outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewMetrics registers the replication metrics on the provided registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "splitledger",
		Name:      "replication_duration_seconds",
		Help:      "Duration of replication calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "splitledger",
		Name:      "replication_success_total",
		Help:      "Successful replication calls.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "splitledger",
		Name:      "replication_failures_total",
		Help:      "Failed replication calls. Failures are logged and swallowed.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure)
	return &Metrics{duration: duration, success: success, failure: failure}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.failure.WithLabelValues(op).Inc()
		return
	}
	m.success.WithLabelValues(op).Inc()
}
