/*
Package types defines the core data structures used throughout certkeep.

This package contains the fundamental types that represent certkeep's domain
model: certificate requests, reported status, and lifecycle events. These types
are used by all other packages for state management and event dispatch.

# Core Types

Certificate Requests:
  - CertificateRequest: Ordered set of FQDNs plus optional contact email
  - Requests are immutable once created
  - Requests are consumed after the first issuance attempt, success or not

Status Reporting:
  - Status: three-valued status channel reported outward
  - StatusBlocked: fatal, needs human attention, carries a message
  - StatusWaiting: transient, retried automatically on the next cycle
  - StatusActive: healthy, carries the registered name

Lifecycle Events:
  - Event: a single lifecycle event with optional request payload
  - EventInstall: one-time activation (platform check, client install, ports)
  - EventConfigChanged: configuration reload, fqdn may have changed
  - EventCertificateRequested: explicit external certificate request
  - EventUpdateStatus: periodic cycle, picks up pending registration/renewal

# Design Patterns

Enumeration Pattern:

	All enums use typed string constants for safety and clarity:
	  type StatusState string
	  const (
	      StatusBlocked StatusState = "blocked"
	      StatusWaiting StatusState = "waiting"
	      StatusActive  StatusState = "active"
	  )

Optional Fields:

	Optional payloads use pointers:
	  - Event.Request: nil unless the event carries a submitted request

# Integration Points

This package integrates with:

  - pkg/store: Persists requests and flags to BoltDB
  - pkg/events: Carries events through the broker
  - pkg/issuer: Consumes requests, produces status
  - pkg/lifecycle: Dispatches events and reports status

# Thread Safety

All types are plain data. Mutations must be synchronized by callers; in
practice the single-threaded event loop in pkg/lifecycle is the only writer.
*/
package types
