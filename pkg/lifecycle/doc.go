/*
Package lifecycle is the top-level coordinator sequencing certkeep's
components in response to lifecycle events.

The coordinator is a state machine over durable conditions (installed,
registered, renew-requested) plus configuration gates (disable,
disable-renew). Every event is handled to completion before the next one
is considered; the daemon's single consumer goroutine is the only caller,
so no two transitions ever interleave and the stop/issue/restart window
is atomic with respect to other handlers.

# Architecture

	┌────────────────── EVENT DISPATCH ───────────────────┐
	│                                                     │
	│  install ──────────▶ handleInstall                  │
	│                       platform check → apt install  │
	│                       → open ports 80/443           │
	│                                                     │
	│  config.changed ───▶ handleConfigChanged            │
	│                       fqdn changed? clear registered│
	│                       then fall through to cycle    │
	│                                                     │
	│  certificate.requested ─▶ queue request, then cycle │
	│                                                     │
	│  update.status ────▶ cycle                          │
	│                       ├ registerServer              │
	│                       │  gates: installed ∧         │
	│                       │  ¬registered ∧ ¬disable     │
	│                       │  ports available?           │
	│                       │  → CreateCertificates       │
	│                       │  → arm cron, dhparam,       │
	│                       │    set registered           │
	│                       └ renewCert                   │
	│                          gates: installed ∧         │
	│                          registered ∧ requested ∧   │
	│                          ¬disable ∧ ¬disable-renew  │
	│                          clear signal FIRST         │
	│                          dry check → yielded renew  │
	└─────────────────────────────────────────────────────┘

# Transition Rules

  - uninstalled → installed: platform too old halts blocked, no further
    transitions possible (the installed gate stays closed forever)
  - installed, not-registered → registered: gated on port availability;
    requests are consumed by the attempt regardless of outcome
  - registered → not-registered: whenever the fqdn value changes from a
    previously-set value or is newly set
  - renew-requested: the signal is cleared before the renewal outcome
    is known, so a crash mid-renewal cannot loop; the next renewal
    waits for the next scheduled trigger
  - disable flags are pure gates: a skipped transition has no side
    effects and no status change

# Error Handling

External-client failures are translated into status plus log output at
the point of invocation and never propagate to Dispatch. The errors
Dispatch does return are store I/O faults, which the daemon logs and
survives.

# Integration Points

  - pkg/events: The daemon feeds events into Dispatch one at a time
  - pkg/store, pkg/ports, pkg/issuer, pkg/cron, pkg/service: the
    components being sequenced
  - cmd/certkeep: Constructs the coordinator and owns the event loop
*/
package lifecycle
