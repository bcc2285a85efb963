// Package metrics holds the prometheus collectors of the client. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "overledger"

// Metrics groups the signing and submission collectors.
type Metrics struct {
	signs       *prometheus.CounterVec
	signLatency *prometheus.HistogramVec
	submits     *prometheus.CounterVec
	submitTime  prometheus.Histogram
	statuses    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		signs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_total",
			Help:      "Transactions signed, by dlt and result.",
		}, []string{"dlt", "result"}),
		signLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sign_duration_seconds",
			Help:      "Time to build and sign a transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"dlt"}),
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submit_total",
			Help:      "Submissions to the gateway, by HTTP status (0 on transport error).",
		}, []string{"status"}),
		submitTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_duration_seconds",
			Help:      "Gateway submission latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Submission status changes seen by the tracker, by dlt and new status.",
		}, []string{"dlt", "status"}),
	}

	for _, c := range []prometheus.Collector{m.signs, m.signLatency, m.submits, m.submitTime, m.statuses} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}

// ObserveSign records one signing attempt of dlt that started at start.
func (m *Metrics) ObserveSign(dlt string, start time.Time, err error) {
	if m == nil {
		return
	}

	m.signs.WithLabelValues(dlt, result(err)).Inc()
	m.signLatency.WithLabelValues(dlt).Observe(time.Since(start).Seconds())
}

// ObserveSubmit records one submission that got status (0 when no reply came back).
func (m *Metrics) ObserveSubmit(status int, start time.Time) {
	if m == nil {
		return
	}

	m.submits.WithLabelValues(strconv.Itoa(status)).Inc()
	m.submitTime.Observe(time.Since(start).Seconds())
}

// ObserveStatus records a submission of dlt moving to status.
func (m *Metrics) ObserveStatus(dlt, status string) {
	if m == nil {
		return
	}

	m.statuses.WithLabelValues(dlt, status).Inc()
}
