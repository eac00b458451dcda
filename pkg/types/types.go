package types

import (
	"time"
)

// CertificateRequest describes one issuance request: the set of subject
// names a single certificate should cover, plus the optional contact
// email passed to the issuance client. Requests are immutable once
// created and are consumed after the first issuance attempt regardless
// of outcome.
type CertificateRequest struct {
	ID           string    `json:"id"`
	FQDNs        []string  `json:"fqdns"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StatusState is the three-valued status channel reported outward.
type StatusState string

const (
	// StatusBlocked means a fatal condition that needs human attention.
	StatusBlocked StatusState = "blocked"
	// StatusWaiting means the system will retry automatically on the
	// next event cycle.
	StatusWaiting StatusState = "waiting"
	// StatusActive means healthy.
	StatusActive StatusState = "active"
)

// Status is a reported status with its message.
type Status struct {
	State      StatusState `json:"state"`
	Message    string      `json:"message"`
	ReportedAt time.Time   `json:"reported_at"`
}

// EventType represents a lifecycle event handled by the coordinator.
type EventType string

const (
	// EventInstall is the one-time activation event: platform check,
	// client installation and port opening.
	EventInstall EventType = "install"
	// EventConfigChanged fires when the configuration file was
	// reloaded and the fqdn value may have changed.
	EventConfigChanged EventType = "config.changed"
	// EventCertificateRequested fires when an external caller submits
	// an explicit certificate request.
	EventCertificateRequested EventType = "certificate.requested"
	// EventUpdateStatus is the periodic cycle. Registration and
	// renewal both piggyback on it: pending work recorded in the
	// store is picked up here.
	EventUpdateStatus EventType = "update.status"
)

// Event is a single lifecycle event. Events are handled to completion,
// one at a time, in the order they are published.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	// Request carries the submitted request for
	// EventCertificateRequested, nil otherwise.
	Request *CertificateRequest
}
