// Package store implements the embedded, optionally-encrypted key-value
// store that holds all domain state.  It wraps a single bbolt file with one
// named bucket per entity kind and exposes atomic read-modify-write
// transactions; all mutual exclusion between concurrent bookings happens
// inside these transactions.
package store

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names, one per entity kind plus secondary indexes.  Keys are
// entity IDs; values are JSON records sealed by the envelope when
// encryption is enabled.
const (
	BucketUsers           = "users"
	BucketUsersByUsername = "users_by_username"
	BucketUsersByEmail    = "users_by_email"
	BucketLots            = "lots"
	BucketSlots           = "slots"
	BucketSlotsByLot      = "slots_by_lot"
	BucketBookings        = "bookings"
	BucketBookingsBySlot  = "bookings_by_slot"
	BucketBookingsByUser  = "bookings_by_user"
	BucketVehicles        = "vehicles"
	BucketSessions        = "sessions"
	BucketAudit           = "audit"

	bucketMeta = "meta"
)

// Keys inside the meta bucket.
const (
	metaSchemaVersion  = "schema_version"
	metaEncryptionSalt = "encryption_salt"
	metaKeycheck       = "keycheck"
)

const currentSchemaVersion = "1"

// keycheckPlain is sealed and stored at create time; opening it with the
// derived key proves the passphrase before any record is read.
const keycheckPlain = "parking-slot-booking keycheck v1"

var (
	// ErrKeyNotFound is returned by Tx.Get when no record exists under the
	// requested key.
	ErrKeyNotFound = errors.New("store: key not found")
	// ErrPassphraseRequired is returned when opening an encrypted store
	// without a passphrase.
	ErrPassphraseRequired = errors.New("store: passphrase required for encrypted store")
	// ErrEncryptionMismatch is returned when a passphrase is supplied for a
	// store that was created without encryption.
	ErrEncryptionMismatch = errors.New("store: store was created without encryption")
	// ErrStoreMissing is returned when the file does not exist and
	// CreateIfMissing is false.
	ErrStoreMissing = errors.New("store: store file does not exist")
)

// Options configures Open.
type Options struct {
	// Path of the single store file.
	Path string
	// Passphrase enables encryption at rest when non-empty.
	Passphrase string
	// CreateIfMissing creates the file when it does not exist yet.
	CreateIfMissing bool
}

// Store owns the bbolt file and the in-memory key material for the process
// lifetime.  It is safe for concurrent use; bbolt serializes write
// transactions and lets read transactions proceed on a consistent snapshot.
type Store struct {
	db  *bolt.DB
	env *Envelope
}

var bucketNames = []string{
	BucketUsers, BucketUsersByUsername, BucketUsersByEmail,
	BucketLots, BucketSlots, BucketSlotsByLot,
	BucketBookings, BucketBookingsBySlot, BucketBookingsByUser,
	BucketVehicles, BucketSessions, BucketAudit,
	bucketMeta,
}

// Open opens or creates the store file, creates all buckets, and
// initializes or verifies the encryption envelope.  A wrong passphrase
// fails with ErrDecryptionFailed before any data is readable.
func Open(opts Options) (*Store, error) {
	if !opts.CreateIfMissing {
		if _, err := os.Stat(opts.Path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrStoreMissing, opts.Path)
		}
	}
	db, err := bolt.Open(opts.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store file: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(opts.Passphrase); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates missing buckets, persists the schema version and sets
// up the envelope.  The salt lives in the meta bucket so the same file can
// be reopened on any host with just the passphrase.
func (s *Store) initialize(passphrase string) error {
	var (
		fresh    bool
		saltHex  []byte
		keycheck []byte
	)
	err := s.db.Update(func(btx *bolt.Tx) error {
		for _, name := range bucketNames {
			if _, err := btx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		meta := btx.Bucket([]byte(bucketMeta))
		fresh = meta.Get([]byte(metaSchemaVersion)) == nil
		if fresh {
			if err := meta.Put([]byte(metaSchemaVersion), []byte(currentSchemaVersion)); err != nil {
				return err
			}
		}
		saltHex = bytes.Clone(meta.Get([]byte(metaEncryptionSalt)))
		keycheck = bytes.Clone(meta.Get([]byte(metaKeycheck)))
		return nil
	})
	if err != nil {
		return err
	}

	switch {
	case passphrase == "" && saltHex == nil:
		// Plaintext store, nothing to verify.
		return nil
	case passphrase == "":
		return ErrPassphraseRequired
	case saltHex == nil && !fresh:
		return ErrEncryptionMismatch
	}

	var salt []byte
	if saltHex != nil {
		salt, err = hex.DecodeString(string(saltHex))
		if err != nil {
			return fmt.Errorf("invalid salt in store: %w", err)
		}
	} else {
		salt, err = NewSalt()
		if err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
	}

	env, err := NewEnvelope(passphrase, salt)
	if err != nil {
		return err
	}

	if keycheck != nil {
		// Existing encrypted store: authenticate the canary with the
		// derived key before serving anything.
		if _, err := env.Open(keycheck); err != nil {
			return err
		}
		s.env = env
		return nil
	}

	sealed, err := env.Seal([]byte(keycheckPlain))
	if err != nil {
		return err
	}
	err = s.db.Update(func(btx *bolt.Tx) error {
		meta := btx.Bucket([]byte(bucketMeta))
		if err := meta.Put([]byte(metaEncryptionSalt), []byte(hex.EncodeToString(salt))); err != nil {
			return err
		}
		return meta.Put([]byte(metaKeycheck), sealed)
	})
	if err != nil {
		return err
	}
	s.env = env
	return nil
}

// Encrypted reports whether values are sealed at rest.
func (s *Store) Encrypted() bool {
	return s.env != nil
}

// Close releases the file lock and wipes the derived key material.
func (s *Store) Close() error {
	err := s.db.Close()
	s.env.wipe()
	s.env = nil
	return err
}

// Tx is one atomic unit of work against the store.  All reads observe a
// consistent snapshot; writes become visible only if the enclosing Update
// commits.  A Tx must not be retained after the closure returns.
type Tx struct {
	btx *bolt.Tx
	env *Envelope
}

// Update runs fn in a writable transaction.  If fn returns an error the
// whole transaction is rolled back and nothing is persisted; writes of
// concurrent Update calls are serialized by the engine, which is what makes
// the booking check-then-write race-free.
func (s *Store) Update(fn func(tx *Tx) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&Tx{btx: btx, env: s.env})
	})
}

// View runs fn in a read-only transaction over a consistent snapshot.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&Tx{btx: btx, env: s.env})
	})
}

// Put serializes v as JSON, seals it and writes it under key.
func (tx *Tx) Put(bucket, key string, v any) error {
	plain, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", bucket, key, err)
	}
	sealed, err := tx.env.Seal(plain)
	if err != nil {
		return err
	}
	return tx.btx.Bucket([]byte(bucket)).Put([]byte(key), sealed)
}

// Get loads the record under key, opens the envelope and unmarshals it
// into v.  Returns ErrKeyNotFound when the key is absent.
func (tx *Tx) Get(bucket, key string, v any) error {
	raw := tx.btx.Bucket([]byte(bucket)).Get([]byte(key))
	if raw == nil {
		return ErrKeyNotFound
	}
	plain, err := tx.env.Open(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("unmarshal %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Delete removes the record under key.  Deleting an absent key is a no-op.
func (tx *Tx) Delete(bucket, key string) error {
	return tx.btx.Bucket([]byte(bucket)).Delete([]byte(key))
}

// PutIndex writes a plaintext secondary-index entry mapping key to an
// entity ID.  Index values are IDs, not records, and stay unsealed.
func (tx *Tx) PutIndex(bucket, key, id string) error {
	return tx.btx.Bucket([]byte(bucket)).Put([]byte(key), []byte(id))
}

// GetIndex resolves a secondary-index key to its entity ID.
func (tx *Tx) GetIndex(bucket, key string) (string, error) {
	raw := tx.btx.Bucket([]byte(bucket)).Get([]byte(key))
	if raw == nil {
		return "", ErrKeyNotFound
	}
	return string(raw), nil
}

// ForEach iterates every record in bucket, handing fn the key and the
// unsealed JSON value.  Returning an error from fn stops the iteration.
func (tx *Tx) ForEach(bucket string, fn func(key string, plain []byte) error) error {
	return tx.btx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
		plain, err := tx.env.Open(v)
		if err != nil {
			return err
		}
		return fn(string(k), plain)
	})
}

// ForEachPrefix iterates records whose key starts with prefix, in key
// order.  Used for the slots_by_lot index whose keys are "lotID:slotID".
func (tx *Tx) ForEachPrefix(bucket, prefix string, fn func(key string, value []byte) error) error {
	c := tx.btx.Bucket([]byte(bucket)).Cursor()
	p := []byte(prefix)
	for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
		if err := fn(string(k), v); err != nil {
			return err
		}
	}
	return nil
}

// ForEachRange iterates records with from <= key < to in key order,
// handing fn the unsealed value.  The audit trail relies on this for
// time-ordered range scans.
func (tx *Tx) ForEachRange(bucket string, from, to []byte, fn func(key []byte, plain []byte) error) error {
	c := tx.btx.Bucket([]byte(bucket)).Cursor()
	for k, v := c.Seek(from); k != nil && (to == nil || bytes.Compare(k, to) < 0); k, v = c.Next() {
		plain, err := tx.env.Open(v)
		if err != nil {
			return err
		}
		if err := fn(k, plain); err != nil {
			return err
		}
	}
	return nil
}
