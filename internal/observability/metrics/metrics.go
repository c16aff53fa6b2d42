package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the appointment lifecycle.
// All methods are nil-safe so callers can skip wiring in tests.
type BookingMetrics struct {
	confirmedTotal  *prometheus.CounterVec
	cancelledTotal  prometheus.Counter
	confirmFailures *prometheus.CounterVec
	notifyTotal     *prometheus.CounterVec
	chatTotal       *prometheus.CounterVec
	confirmLatency  prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		confirmedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "booking",
			Name:      "confirmed_total",
			Help:      "Total confirmed appointments",
		}, []string{"service"}),
		cancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "booking",
			Name:      "cancelled_total",
			Help:      "Total cancelled appointments",
		}),
		confirmFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "booking",
			Name:      "confirm_failures_total",
			Help:      "Confirm attempts rejected or failed, by reason",
		}, []string{"reason"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Confirmation emails attempted, by outcome",
		}, []string{"status"}),
		chatTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "assistant",
			Name:      "chat_requests_total",
			Help:      "Assistant chat requests, by outcome",
		}, []string{"status"}),
		confirmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "healthfirst",
			Subsystem: "booking",
			Name:      "confirm_latency_seconds",
			Help:      "Latency of appointment confirmation including the list refetch",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.confirmedTotal, m.cancelledTotal, m.confirmFailures, m.notifyTotal, m.chatTotal, m.confirmLatency)
	return m
}

func (m *BookingMetrics) ObserveConfirmed(serviceID string) {
	if m == nil {
		return
	}
	m.confirmedTotal.WithLabelValues(serviceID).Inc()
}

func (m *BookingMetrics) ObserveCancelled() {
	if m == nil {
		return
	}
	m.cancelledTotal.Inc()
}

func (m *BookingMetrics) ObserveConfirmFailure(reason string) {
	if m == nil {
		return
	}
	m.confirmFailures.WithLabelValues(reason).Inc()
}

func (m *BookingMetrics) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notifyTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveChat(status string) {
	if m == nil {
		return
	}
	m.chatTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveConfirmLatency(seconds float64) {
	if m == nil {
		return
	}
	m.confirmLatency.Observe(seconds)
}
