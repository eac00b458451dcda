/*
Package ports manages firewall-level availability of ports 80/443 for
standalone certificate issuance.

The issuance client binds ports 80/443 itself to answer the validation
challenge, so those ports must be reachable before any attempt. certkeep
opens them once during installation with tagged iptables rules, and before
every attempt reads the live rule state to decide whether issuance can
proceed.

# Architecture

	┌──────────────── PORT COORDINATION ────────────────┐
	│                                                    │
	│  ┌──────────────────────────────┐                  │
	│  │   OpenIssuancePorts (once,   │                  │
	│  │   during installation)       │                  │
	│  │   iptables -A INPUT          │                  │
	│  │     --dport 80/443           │                  │
	│  │     --comment certkeep       │                  │
	│  └──────────────┬───────────────┘                  │
	│                 │                                  │
	│  ┌──────────────▼───────────────┐                  │
	│  │   EnsureAvailable (before    │                  │
	│  │   every issuance attempt)    │                  │
	│  │   iptables -S INPUT          │                  │
	│  │   parse tagged rules         │                  │
	│  │   true iff 80/tcp or 443/tcp │                  │
	│  └──────────────────────────────┘                  │
	└────────────────────────────────────────────────────┘

# Design Rules

  - Availability is read fresh on every call, never cached: the rule set
    can change between events.
  - Rules carry the "certkeep" comment so the coordinator only ever
    matches its own rules, and re-opening is idempotent (-C before -A).
  - EnsureAvailable has no side effects. When neither port is open the
    caller reports waiting status and retries on a later cycle; it does
    not open ports at issuance time.

# Usage

	coord := ports.NewCoordinator()

	// Installation time:
	if err := coord.OpenIssuancePorts(ctx); err != nil { ... }

	// Before each issuance attempt:
	ok, err := coord.EnsureAvailable(ctx)
	if err != nil { ... }
	if !ok {
		// report waiting, retry next cycle
	}

# Integration Points

  - pkg/lifecycle: Opens ports during install, gates registration on
    EnsureAvailable
  - Tests inject a fake Runner instead of executing iptables
*/
package ports
