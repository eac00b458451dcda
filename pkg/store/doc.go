/*
Package store provides BoltDB-backed state persistence for certkeep.

The store package implements the Store interface using BoltDB as the
underlying database, holding the pending certificate request queue, the
durable condition flags, and small pieces of state such as the last
observed fqdn and the last reported status. All data is serialized as JSON
or plain bytes and stored in separate buckets.

# Architecture

	┌──────────────── BOLTDB STORAGE ─────────────────┐
	│                                                  │
	│  ┌────────────────────────────────┐              │
	│  │          BoltStore             │              │
	│  │  - File: <dataDir>/certkeep.db │              │
	│  │  - Transactions: ACID + fsync  │              │
	│  └───────────────┬────────────────┘              │
	│                  │                               │
	│  ┌───────────────▼────────────────┐              │
	│  │        Bucket Structure        │              │
	│  │  ┌──────────────────────────┐  │              │
	│  │  │ requests (seq → JSON)    │  │              │
	│  │  │ flags    (fixed keys)    │  │              │
	│  │  │ state    (fixed keys)    │  │              │
	│  │  └──────────────────────────┘  │              │
	│  └────────────────────────────────┘              │
	└──────────────────────────────────────────────────┘

# Buckets

requests:
  - Durable FIFO queue of pending CertificateRequests
  - Keys are big-endian bucket sequence numbers, so iteration order is
    submission order
  - Drained wholesale once an issuance pass has consumed the batch

flags:
  - registered: true only after at least one successful issuance pass
  - renew_requested: set by the periodic trigger, cleared when handled
  - installed: one-time installation marker
  - A cleared flag is deleted rather than written as "false"

state:
  - last_fqdn: previously observed fqdn config value (change detection)
  - last_status: most recently reported Status, as JSON

# Usage

Creating a Store:

	st, err := store.NewBoltStore("/var/lib/certkeep")
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

Queue operations:

	err := st.AppendRequest(&types.CertificateRequest{
		ID:    uuid.New().String(),
		FQDNs: []string{"x.example.com"},
	})
	pending, err := st.PendingRequests()
	err = st.DrainRequests()

Flags:

	registered, err := st.Registered()
	err = st.SetRegistered(true)

# Design Patterns

Idempotent writes:
  - SetX methods are upserts; clearing a flag deletes its key
  - DrainRequests on an empty queue is a no-op

Error Wrapping:
  - All errors wrapped with context: fmt.Errorf("op failed: %w", err)

Fail-fast open:
  - bolt.Open uses a one second lock timeout so a second certkeep
    process reports the conflict instead of hanging

# Integration Points

This package integrates with:

  - pkg/lifecycle: The coordinator is the only writer; all mutations
    happen from the single active event handler
  - pkg/types: Entity definitions
  - cmd/certkeep: One-shot commands (request, status) open the store
    briefly to enqueue work or read status; `renew --request` uses the
    lock-free sentinel file instead, since the daemon holds the
    database lock for its whole lifetime

# See Also

  - pkg/lifecycle for the event handling that drives all mutations
  - BoltDB documentation: https://github.com/etcd-io/bbolt
*/
package store
