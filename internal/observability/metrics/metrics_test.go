package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveConfirmed("cardiology")
	m.ObserveConfirmed("cardiology")
	m.ObserveCancelled()
	m.ObserveConfirmFailure("validation_failed")
	m.ObserveNotification("sent")
	m.ObserveChat("ok")
	m.ObserveConfirmLatency(0.25)

	if got := testutil.ToFloat64(m.confirmedTotal.WithLabelValues("cardiology")); got != 2 {
		t.Errorf("confirmed_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cancelledTotal); got != 1 {
		t.Errorf("cancelled_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.confirmFailures.WithLabelValues("validation_failed")); got != 1 {
		t.Errorf("confirm_failures_total = %v, want 1", got)
	}
}

func TestBookingMetrics_NilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveConfirmed("x")
	m.ObserveCancelled()
	m.ObserveConfirmFailure("y")
	m.ObserveNotification("z")
	m.ObserveChat("w")
	m.ObserveConfirmLatency(1)
}
