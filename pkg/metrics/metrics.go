package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Issuance metrics
	IssuanceAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certkeep_issuance_attempts_total",
			Help: "Total number of certificate issuance attempts by outcome",
		},
		[]string{"outcome"},
	)

	Renewals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certkeep_renewals_total",
			Help: "Total number of certificate renewal runs by outcome",
		},
		[]string{"outcome"},
	)

	RenewalChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certkeep_renewal_checks_total",
			Help: "Total number of renewal dry checks",
		},
	)

	// State metrics
	Registered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "certkeep_registered",
			Help: "Whether at least one issuance pass has succeeded (1 = registered)",
		},
	)

	PendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "certkeep_pending_requests",
			Help: "Number of certificate requests waiting for an issuance pass",
		},
	)

	CurrentStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "certkeep_status",
			Help: "Reported status (1 on the current state, 0 otherwise)",
		},
		[]string{"state"},
	)

	// Event metrics
	EventsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certkeep_events_handled_total",
			Help: "Total number of lifecycle events handled by type",
		},
		[]string{"type"},
	)
)

// Register registers all metrics with the default registry. Call once
// at startup.
func Register() {
	prometheus.MustRegister(
		IssuanceAttempts,
		Renewals,
		RenewalChecks,
		Registered,
		PendingRequests,
		CurrentStatus,
		EventsHandled,
	)
}

// SetStatus flips the status gauge so exactly one state reads 1.
func SetStatus(state string) {
	for _, s := range []string{"blocked", "waiting", "active"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		CurrentStatus.WithLabelValues(s).Set(v)
	}
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer starts the metrics HTTP server on the given address
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
