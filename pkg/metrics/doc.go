/*
Package metrics exposes Prometheus metrics for certkeep.

All collectors are package-level variables registered once at startup via
Register(). The daemon optionally serves them on /metrics when a metrics
address is configured.

# Metrics

Issuance:
  - certkeep_issuance_attempts_total{outcome}: issuance runs by outcome
  - certkeep_renewals_total{outcome}: real renewal runs by outcome
  - certkeep_renewal_checks_total: dry checks that probed whether a
    renewal was due

State:
  - certkeep_registered: 1 after at least one successful issuance pass
  - certkeep_pending_requests: queued certificate requests
  - certkeep_status{state}: 1 on the currently reported state

Events:
  - certkeep_events_handled_total{type}: lifecycle events by type

# Usage

	metrics.Register()
	go func() {
		if err := metrics.StartServer("127.0.0.1:9109"); err != nil {
			log.Errorf("metrics server failed", err)
		}
	}()

	metrics.IssuanceAttempts.WithLabelValues("success").Inc()
	metrics.SetStatus("active")

# Integration Points

  - pkg/issuer: attempt and renewal counters
  - pkg/lifecycle: state gauges and event counters
  - cmd/certkeep: registration and the /metrics listener
*/
package metrics
