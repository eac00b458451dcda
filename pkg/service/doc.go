/*
Package service controls the web service that shares ports 80/443 with
the issuance client.

The critical resource on the host is the listening socket: the web service
and the standalone issuance client both want ports 80/443. This package
serializes ownership with a scoped stop/invoke/restart sequence.

# Architecture

	┌───────────── SERVICE YIELDING ─────────────┐
	│                                            │
	│  WithYielded(ctx, fn)                      │
	│                                            │
	│   1. capture run state  (is-active)        │
	│   2. stop if running    (systemctl stop)   │
	│   3. invoke fn          (client holds 80/  │
	│                          443)              │
	│   4. restart            (systemctl start,  │
	│      ── always, iff it was running:        │
	│         fn success, fn error, panic)       │
	│                                            │
	└────────────────────────────────────────────┘

# Design Rules

  - The run state is captured before stopping; the restart decision is
    honored on every exit path via defer, including panics.
  - An empty service name means no service to manage: IsRunning reports
    false, Start/Stop are no-ops, WithYielded just runs fn.
  - If stopping fails the wrapped function is never invoked; the service
    was not taken down, so it is not restarted either.

# Usage

	svc := service.NewController(cfg.ServiceName)

	err := svc.WithYielded(ctx, func() error {
		return issuer.Issue(ctx, request)
	})

# Integration Points

  - pkg/issuer: Every invocation of the issuance/renewal client that
    needs the ports runs inside WithYielded
  - Tests inject a fake Runner instead of executing systemctl
*/
package service
