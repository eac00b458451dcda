package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/certkeep/certkeep/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketRequests = []byte("requests")
	bucketFlags    = []byte("flags")
	bucketState    = []byte("state")
)

var (
	// Flag keys
	keyRegistered     = []byte("registered")
	keyRenewRequested = []byte("renew_requested")
	keyInstalled      = []byte("installed")

	// State keys
	keyLastFQDN   = []byte("last_fqdn")
	keyLastStatus = []byte("last_status")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "certkeep.db")

	// Timeout so a second certkeep process fails fast instead of
	// blocking on the file lock.
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketRequests,
			bucketFlags,
			bucketState,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Request operations

// AppendRequest adds a request to the tail of the pending queue. Keys
// are bucket sequence numbers so iteration order is submission order.
func (s *BoltStore) AppendRequest(req *types.CertificateRequest) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRequests)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

// PendingRequests returns all queued requests in submission order.
func (s *BoltStore) PendingRequests() ([]*types.CertificateRequest, error) {
	var requests []*types.CertificateRequest
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRequests)
		return b.ForEach(func(k, v []byte) error {
			var req types.CertificateRequest
			if err := json.Unmarshal(v, &req); err != nil {
				return err
			}
			requests = append(requests, &req)
			return nil
		})
	})
	return requests, err
}

// DrainRequests removes every queued request. Called once an issuance
// pass has consumed the batch, regardless of its outcome.
func (s *BoltStore) DrainRequests() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRequests)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Flag operations

func (s *BoltStore) Registered() (bool, error) {
	return s.getFlag(keyRegistered)
}

func (s *BoltStore) SetRegistered(v bool) error {
	return s.setFlag(keyRegistered, v)
}

func (s *BoltStore) RenewRequested() (bool, error) {
	return s.getFlag(keyRenewRequested)
}

func (s *BoltStore) SetRenewRequested(v bool) error {
	return s.setFlag(keyRenewRequested, v)
}

func (s *BoltStore) Installed() (bool, error) {
	return s.getFlag(keyInstalled)
}

func (s *BoltStore) SetInstalled(v bool) error {
	return s.setFlag(keyInstalled, v)
}

func (s *BoltStore) getFlag(key []byte) (bool, error) {
	var v bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFlags)
		v = string(b.Get(key)) == "true"
		return nil
	})
	return v, err
}

func (s *BoltStore) setFlag(key []byte, v bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFlags)
		if v {
			return b.Put(key, []byte("true"))
		}
		return b.Delete(key)
	})
}

// State operations

func (s *BoltStore) LastFQDN() (string, error) {
	var fqdn string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		fqdn = string(b.Get(keyLastFQDN))
		return nil
	})
	return fqdn, err
}

func (s *BoltStore) SetLastFQDN(fqdn string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		return b.Put(keyLastFQDN, []byte(fqdn))
	})
}

func (s *BoltStore) LastStatus() (*types.Status, error) {
	var st *types.Status
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		data := b.Get(keyLastStatus)
		if data == nil {
			return nil
		}
		st = &types.Status{}
		return json.Unmarshal(data, st)
	})
	return st, err
}

func (s *BoltStore) SetLastStatus(st *types.Status) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		return b.Put(keyLastStatus, data)
	})
}
