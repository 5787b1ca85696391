// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SubmissionsTotal counts form submits by form kind and outcome
	// (succeeded, rejected, not_authenticated, write_error, in_flight).
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laxmi_submissions_total",
			Help: "Cumulative number of form submissions by form and outcome.",
		}, []string{"form", "outcome"})

	// AuthTotal counts identity operations by op and outcome (ok or an
	// identity error code).
	AuthTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laxmi_auth_total",
			Help: "Cumulative number of sign-up, sign-in, and sign-out calls.",
		}, []string{"op", "outcome"})

	ActiveForms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "laxmi_active_forms",
			Help: "Number of form instances currently held in memory.",
		})

	FormEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "laxmi_form_evict_total",
			Help: "Cumulative number of form instances evicted from the registry.",
		})

	SessionSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "laxmi_session_subscribers",
			Help: "Number of live session-change subscriptions.",
		})

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laxmi_dispatch_total",
			Help: "Deep-link dispatches by result (queued, dropped, relayed, relay_error).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		AuthTotal,
		ActiveForms,
		FormEvictTotal,
		SessionSubscribers,
		DispatchTotal,
	)
}
