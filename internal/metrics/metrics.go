// Package metrics defines the Prometheus metrics of the triage service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage pipeline
type Metrics struct {
	MessagesTotal        *prometheus.CounterVec
	RepliesTotal         *prometheus.CounterVec
	OracleCallsTotal     *prometheus.CounterVec
	OracleDecodeFailures *prometheus.CounterVec
	OracleDuration       *prometheus.HistogramVec
	FollowupsTotal       *prometheus.CounterVec
	CycleDuration        prometheus.Histogram
}

// New registers and returns the metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_triage_messages_total",
			Help: "Inbound messages processed by category and outcome.",
		}, []string{"category", "outcome"}),
		RepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_triage_replies_total",
			Help: "Replies by delivery result.",
		}, []string{"result"}),
		OracleCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_triage_oracle_calls_total",
			Help: "Oracle calls by purpose and result.",
		}, []string{"purpose", "result"}),
		OracleDecodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_triage_oracle_decode_failures_total",
			Help: "Oracle responses that could not be decoded as JSON.",
		}, []string{"purpose"}),
		OracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mail_triage_oracle_duration_seconds",
			Help:    "Duration of oracle calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9), // 0.25s .. 64s
		}, []string{"purpose"}),
		FollowupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_triage_followups_total",
			Help: "Quote follow-ups by result.",
		}, []string{"result"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mail_triage_cycle_duration_seconds",
			Help:    "Duration of a full polling cycle in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s .. ~512s
		}),
	}

	reg.MustRegister(
		m.MessagesTotal,
		m.RepliesTotal,
		m.OracleCallsTotal,
		m.OracleDecodeFailures,
		m.OracleDuration,
		m.FollowupsTotal,
		m.CycleDuration,
	)

	return m
}

// NewUnregistered returns metrics that are not registered anywhere, for
// tests and one-shot CLI runs
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveOracle records one oracle call
func (m *Metrics) ObserveOracle(purpose string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.OracleCallsTotal.WithLabelValues(purpose, result).Inc()
	m.OracleDuration.WithLabelValues(purpose).Observe(seconds)
}

// DecodeFailure records an undecodable oracle response
func (m *Metrics) DecodeFailure(purpose string) {
	if m == nil {
		return
	}
	m.OracleDecodeFailures.WithLabelValues(purpose).Inc()
}

// Message records a processed inbound message
func (m *Metrics) Message(category, outcome string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(category, outcome).Inc()
}

// Reply records a reply delivery result (sent, failed, dry_run)
func (m *Metrics) Reply(result string) {
	if m == nil {
		return
	}
	m.RepliesTotal.WithLabelValues(result).Inc()
}

// Followup records a follow-up result (sent, failed, dry_run)
func (m *Metrics) Followup(result string) {
	if m == nil {
		return
	}
	m.FollowupsTotal.WithLabelValues(result).Inc()
}

// Cycle records the duration of a polling cycle
func (m *Metrics) Cycle(seconds float64) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(seconds)
}
