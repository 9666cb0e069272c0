// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Auth outcomes recorded by RecordLogin and RecordSignup.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds Curio's application metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LoginsTotal         *prometheus.CounterVec
	SignupsTotal        *prometheus.CounterVec
	SessionsReapedTotal prometheus.Counter
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors. A private registry keeps tests from colliding on the global
// one.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curio_http_requests_total",
				Help: "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curio_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curio_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		SignupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curio_signups_total",
				Help: "Signup attempts by outcome",
			},
			[]string{"outcome"},
		),
		SessionsReapedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "curio_sessions_reaped_total",
				Help: "Expired sessions removed by the reaper",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginsTotal,
		m.SignupsTotal,
		m.SessionsReapedTotal,
	)
	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordLogin counts a login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordSignup counts a signup attempt.
func (m *Metrics) RecordSignup(outcome string) {
	if m == nil {
		return
	}
	m.SignupsTotal.WithLabelValues(outcome).Inc()
}

// SessionsReaped adds n to the reaped-sessions counter. Its signature fits
// the reaper's observe callback.
func (m *Metrics) SessionsReaped(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsReapedTotal.Add(float64(n))
}
