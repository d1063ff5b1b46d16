package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xetiic/busdesk/internal/domain/auth"
	"github.com/xetiic/busdesk/internal/domain/session"
)

func TestSinkCountsEvents(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)
	sink := NewSink(m)

	sink.Record(session.Event{Kind: session.EventLogin})
	sink.Record(session.Event{Kind: session.EventLoginFailed, Error: auth.ErrInvalidCredentials.Error()})
	sink.Record(session.Event{Kind: session.EventLoginFailed, Error: "network down"})
	sink.Record(session.Event{Kind: session.EventRegisterFailed, Error: auth.ErrEmailAlreadyExists.Error()})
	sink.Record(session.Event{Kind: session.EventRefresh})
	sink.Record(session.Event{Kind: session.EventRestore})
	sink.Record(session.Event{Kind: session.EventLogout})

	if got := testutil.ToFloat64(m.LoginsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("logins ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LoginsTotal.WithLabelValues("invalid_credentials")); got != 1 {
		t.Errorf("logins invalid_credentials = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LoginsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("logins error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RegistrationsTotal.WithLabelValues("email_exists")); got != 1 {
		t.Errorf("registrations email_exists = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RefreshesTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("refreshes ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RestoresTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("restores ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionActive); got != 0 {
		t.Errorf("session_active after logout = %v, want 0", got)
	}
}

func TestSessionActiveGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)
	sink := NewSink(m)

	sink.Record(session.Event{Kind: session.EventRestore})
	if got := testutil.ToFloat64(m.SessionActive); got != 1 {
		t.Errorf("session_active after restore = %v, want 1", got)
	}

	sink.Record(session.Event{Kind: session.EventLogout})
	if got := testutil.ToFloat64(m.SessionActive); got != 0 {
		t.Errorf("session_active after logout = %v, want 0", got)
	}
}

func TestMetricsRegisterOnce(t *testing.T) {
	t.Parallel()

	// promauto.With(reg) panics on duplicate registration; a fresh registry
	// must accept the full set.
	reg := prometheus.NewRegistry()
	_ = New(reg)
}
