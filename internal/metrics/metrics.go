// Package metrics defines the Prometheus instrumentation for busdesk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xetiic/busdesk/internal/domain/auth"
	"github.com/xetiic/busdesk/internal/domain/session"
)

// Metrics holds all Prometheus metrics for busdesk.
// Pass to components that need to record metrics.
type Metrics struct {
	LoginsTotal        *prometheus.CounterVec
	RegistrationsTotal *prometheus.CounterVec
	RefreshesTotal     *prometheus.CounterVec
	RestoresTotal      *prometheus.CounterVec
	GuardDecisions     *prometheus.CounterVec
	SessionActive      prometheus.Gauge
}

// New creates and registers all metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		LoginsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "busdesk",
				Name:      "logins_total",
				Help:      "Total login attempts",
			},
			[]string{"result"}, // result=ok/invalid_credentials/error
		),
		RegistrationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "busdesk",
				Name:      "registrations_total",
				Help:      "Total registration attempts",
			},
			[]string{"result"}, // result=ok/email_exists/error
		),
		RefreshesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "busdesk",
				Name:      "token_refreshes_total",
				Help:      "Total token refresh attempts",
			},
			[]string{"result"}, // result=ok/error
		),
		RestoresTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "busdesk",
				Name:      "session_restores_total",
				Help:      "Total session restores from persistent storage",
			},
			[]string{"result"}, // result=ok/failed
		),
		GuardDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "busdesk",
				Name:      "guard_decisions_total",
				Help:      "Total access guard decisions by outcome",
			},
			[]string{"outcome"}, // outcome=content/loading/redirect_to_sign_in/forbidden
		),
		SessionActive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "busdesk",
				Name:      "session_active",
				Help:      "1 while a session is authenticated, 0 otherwise",
			},
		),
	}
}

// Sink adapts Metrics to session.EventSink so the session manager stays
// free of instrumentation concerns.
type Sink struct {
	m *Metrics
}

// NewSink creates an event sink recording into m.
func NewSink(m *Metrics) *Sink {
	return &Sink{m: m}
}

// Record counts the event into the matching series.
func (s *Sink) Record(ev session.Event) {
	switch ev.Kind {
	case session.EventLogin:
		s.m.LoginsTotal.WithLabelValues("ok").Inc()
		s.m.SessionActive.Set(1)
	case session.EventLoginFailed:
		s.m.LoginsTotal.WithLabelValues(failureLabel(ev)).Inc()
	case session.EventRegister:
		s.m.RegistrationsTotal.WithLabelValues("ok").Inc()
		s.m.SessionActive.Set(1)
	case session.EventRegisterFailed:
		s.m.RegistrationsTotal.WithLabelValues(failureLabel(ev)).Inc()
	case session.EventLogout:
		s.m.SessionActive.Set(0)
	case session.EventRefresh:
		s.m.RefreshesTotal.WithLabelValues("ok").Inc()
	case session.EventRefreshFailed:
		s.m.RefreshesTotal.WithLabelValues("error").Inc()
	case session.EventRestore:
		s.m.RestoresTotal.WithLabelValues("ok").Inc()
		s.m.SessionActive.Set(1)
	case session.EventRestoreFailed:
		s.m.RestoresTotal.WithLabelValues("failed").Inc()
	}
}

// failureLabel maps a failure event to a bounded result label.
func failureLabel(ev session.Event) string {
	switch ev.Error {
	case auth.ErrInvalidCredentials.Error():
		return "invalid_credentials"
	case auth.ErrEmailAlreadyExists.Error():
		return "email_exists"
	default:
		return "error"
	}
}

// Compile-time interface verification.
var _ session.EventSink = (*Sink)(nil)
