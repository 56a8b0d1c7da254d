// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the prometheus collectors exported by the CRM core.

Collectors are registered against an injected [prometheus.Registerer] so tests
can use a private registry. Every recording method is safe on a nil receiver,
which lets components run without instrumentation.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crm"

// # Label Values

// Gate outcomes.
const (
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeAuthorized      = "authorized"
	OutcomeError           = "error"
)

// Login results.
const (
	LoginSucceeded = "succeeded"
	LoginRejected  = "rejected"
	LoginErrored   = "errored"
)

// Metrics groups the collectors of the auth, session and audit components.
type Metrics struct {
	gateDecisions      *prometheus.CounterVec
	loginAttempts      *prometheus.CounterVec
	auditWriteFailures prometheus.Counter
	sessionsPurged     prometheus.Counter
	purgeRuns          *prometheus.CounterVec
}

// New creates the collectors and registers them on registerer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Authorization gate decisions by outcome.",
		}, []string{"outcome"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		auditWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Audit entries that could not be persisted.",
		}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_purged_total",
			Help:      "Expired session rows physically deleted.",
		}),
		purgeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_purge_runs_total",
			Help:      "Purge sweeper ticks by result.",
		}, []string{"result"}),
	}

	registerer.MustRegister(m.gateDecisions, m.loginAttempts, m.auditWriteFailures, m.sessionsPurged, m.purgeRuns)
	return m
}

// GateDecision counts one gate outcome.
func (m *Metrics) GateDecision(outcome string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(outcome).Inc()
}

// LoginAttempt counts one login by result.
func (m *Metrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// AuditWriteFailed counts one dropped audit entry.
func (m *Metrics) AuditWriteFailed() {
	if m == nil {
		return
	}
	m.auditWriteFailures.Inc()
}

// SessionsPurged adds the number of rows removed by one sweep.
func (m *Metrics) SessionsPurged(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.sessionsPurged.Add(float64(count))
}

// PurgeRun counts one sweeper tick ("purged", "skipped" or "failed").
func (m *Metrics) PurgeRun(result string) {
	if m == nil {
		return
	}
	m.purgeRuns.WithLabelValues(result).Inc()
}

// Handler exposes the gatherer in the prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
