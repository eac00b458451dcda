package store

import (
	"github.com/certkeep/certkeep/pkg/types"
)

// Store defines the interface for certkeep's durable state.
// This is implemented by BoltDB-backed storage.
type Store interface {
	// Pending certificate requests
	AppendRequest(req *types.CertificateRequest) error
	PendingRequests() ([]*types.CertificateRequest, error)
	DrainRequests() error

	// Registration status
	Registered() (bool, error)
	SetRegistered(v bool) error

	// Renewal-requested signal set by the periodic trigger
	RenewRequested() (bool, error)
	SetRenewRequested(v bool) error

	// One-time installation marker
	Installed() (bool, error)
	SetInstalled(v bool) error

	// Last observed fqdn config value, for change detection
	LastFQDN() (string, error)
	SetLastFQDN(fqdn string) error

	// Last reported status
	LastStatus() (*types.Status, error)
	SetLastStatus(st *types.Status) error

	// Utility
	Close() error
}
