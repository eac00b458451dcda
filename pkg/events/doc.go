/*
Package events provides the in-process event broker driving the daemon.

certkeep is event-driven: installation, configuration changes, explicit
certificate requests, and the periodic cycle all arrive as events. The
broker queues them; the daemon's single consumer goroutine handles each
event to completion before taking the next, which is the whole
concurrency model — no two lifecycle transitions ever interleave.

# Architecture

	┌──────────────── EVENT FLOW ────────────────┐
	│                                            │
	│   CLI / SIGHUP / ticker                    │
	│        │                                   │
	│        ▼ Publish                           │
	│  ┌───────────────┐    ┌─────────────────┐  │
	│  │    Broker     │───▶│ single consumer │  │
	│  │ buffered chan │    │ (daemon loop)   │  │
	│  └───────────────┘    │ dispatch one    │  │
	│                       │ event at a time │  │
	│                       └─────────────────┘  │
	└────────────────────────────────────────────┘

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for ev := range sub {
			_ = coordinator.Dispatch(ctx, ev)
		}
	}()

	broker.Emit(types.EventUpdateStatus)

# Integration Points

  - pkg/lifecycle: The consumer dispatches every event to the
    coordinator
  - cmd/certkeep: The daemon wires CLI triggers, SIGHUP and the
    periodic ticker into Publish calls
*/
package events
