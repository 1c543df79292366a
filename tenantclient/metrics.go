package tenantclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records client activity. A nil *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
	retries   prometheus.Counter
}

// NewMetrics creates the client collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "erp_client",
				Name:      "requests_total",
				Help:      "HTTP requests dispatched to tenant origins, retries included.",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "erp_client",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests to tenant origins.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "erp_client",
				Name:      "token_refreshes_total",
				Help:      "Access token refresh attempts by result.",
			},
			[]string{"result"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "erp_client",
				Name:      "auth_retries_total",
				Help:      "Requests replayed after a successful token refresh.",
			},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.refreshes, m.retries)
	return m
}

func (m *Metrics) observeRequest(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) observeRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}
