package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking dialogue flow.
type BookingMetrics struct {
	turnsTotal       *prometheus.CounterVec
	bookingsTotal    prometheus.Counter
	conflictsTotal   prometheus.Counter
	oracleFailures   *prometheus.CounterVec
	searchSeconds    prometheus.Histogram
	sessionSaveFails prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"phase", "outcome"}),
		bookingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "dialogue",
			Name:      "bookings_total",
			Help:      "Total bookings written to the calendar",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "availability",
			Name:      "conflicts_total",
			Help:      "Total candidate intervals rejected as occupied",
		}),
		oracleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "oracle",
			Name:      "failures_total",
			Help:      "Total NLU oracle calls that failed or returned garbage",
		}, []string{"operation"}),
		searchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "availability",
			Name:      "search_seconds",
			Help:      "Duration of next-available-slot searches",
			Buckets:   prometheus.DefBuckets,
		}),
		sessionSaveFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "sessions",
			Name:      "save_failures_total",
			Help:      "Total session persistence failures (non-fatal)",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.turnsTotal,
		m.bookingsTotal,
		m.conflictsTotal,
		m.oracleFailures,
		m.searchSeconds,
		m.sessionSaveFails,
	)
	return m
}

func (m *BookingMetrics) ObserveTurn(phase, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(phase, outcome).Inc()
}

func (m *BookingMetrics) ObserveBooking() {
	if m == nil {
		return
	}
	m.bookingsTotal.Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *BookingMetrics) ObserveOracleFailure(operation string) {
	if m == nil {
		return
	}
	m.oracleFailures.WithLabelValues(operation).Inc()
}

func (m *BookingMetrics) ObserveSearchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.searchSeconds.Observe(seconds)
}

func (m *BookingMetrics) ObserveSessionSaveFailure() {
	if m == nil {
		return
	}
	m.sessionSaveFails.Inc()
}
