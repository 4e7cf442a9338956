package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/compose-network/spi-annotator/metrics"
)

// Metrics holds dispatch loop metrics. A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	IgnoredTotal    prometheus.Counter
	DecodeErrors    *prometheus.CounterVec
	HandlerFaults   *prometheus.CounterVec
	RepliesTotal    prometheus.Counter
	HandlerDuration *prometheus.HistogramVec
	ReplyValues     *prometheus.HistogramVec
}

// NewMetrics creates dispatch metrics registered with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	cr := metrics.NewComponentRegistry(reg, "annotator", "dispatch")

	return &Metrics{
		RequestsTotal: cr.NewCounterVec(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of recognized requests by kind",
		}, []string{"kind"}),

		IgnoredTotal: cr.NewCounter(prometheus.CounterOpts{
			Name: "ignored_lines_total",
			Help: "Lines with an unrecognized tag",
		}),

		DecodeErrors: cr.NewCounterVec(prometheus.CounterOpts{
			Name: "decode_errors_total",
			Help: "Malformed lines for a recognized tag",
		}, []string{"kind"}),

		HandlerFaults: cr.NewCounterVec(prometheus.CounterOpts{
			Name: "handler_faults_total",
			Help: "Handler calls that returned an error or panicked",
		}, []string{"operation", "cause"}),

		RepliesTotal: cr.NewCounter(prometheus.CounterOpts{
			Name: "replies_total",
			Help: "Reply frames written to the host",
		}),

		HandlerDuration: cr.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "handler_duration_seconds",
			Help:    "Time spent inside handler operations",
			Buckets: metrics.LatencyBuckets,
		}, []string{"operation"}),

		ReplyValues: cr.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reply_values",
			Help:    "Candidates, markers or texts carried by one reply",
			Buckets: metrics.CountBuckets,
		}, []string{"kind"}),
	}
}

func (m *Metrics) recordRequest(kind string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordIgnored() {
	if m == nil {
		return
	}
	m.IgnoredTotal.Inc()
}

func (m *Metrics) recordDecodeError(kind string) {
	if m == nil {
		return
	}
	m.DecodeErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordFault(operation, cause string) {
	if m == nil {
		return
	}
	m.HandlerFaults.WithLabelValues(operation, cause).Inc()
}

func (m *Metrics) recordReply() {
	if m == nil {
		return
	}
	m.RepliesTotal.Inc()
}

func (m *Metrics) observe(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.HandlerDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) observeReply(kind string, values int) {
	if m == nil {
		return
	}
	m.ReplyValues.WithLabelValues(kind).Observe(float64(values))
}
