package repository

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/parking-slot-booking/internal/clock"
	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/store"
)

// AuditRepo appends entries to the audit trail.  Keys are the big-endian
// unix-nano timestamp followed by four random bytes, so entries sort
// chronologically in the bucket and two events in the same nanosecond
// cannot collide.  The trail is append-only; no update or delete API
// exists.
type AuditRepo struct {
	Store *store.Store
	Clock clock.Clock
}

// NewAuditRepo returns an AuditRepo bound to the given store.
func NewAuditRepo(s *store.Store, clk clock.Clock) *AuditRepo {
	return &AuditRepo{Store: s, Clock: clk}
}

// Record appends one audit entry.  Auditing is best-effort: a write failure
// is logged and swallowed so it can never fail the operation being audited.
func (r *AuditRepo) Record(action model.AuditAction, actorID, resource, resourceID string, payload any) {
	entry := model.AuditEntry{
		ID:         uuid.NewString(),
		Timestamp:  r.Clock.Now(),
		Action:     action,
		ActorID:    actorID,
		Resource:   resource,
		ResourceID: resourceID,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Printf("audit: marshal payload for %s: %v", action, err)
		} else {
			entry.Payload = raw
		}
	}
	key := auditKey(entry.Timestamp)
	err := r.Store.Update(func(tx *store.Tx) error {
		return tx.Put(store.BucketAudit, string(key), &entry)
	})
	if err != nil {
		log.Printf("audit: record %s: %v", action, err)
	}
}

// List returns the entries with from <= Timestamp < to in chronological
// order.  A zero `to` means no upper bound.
func (r *AuditRepo) List(from, to time.Time) ([]model.AuditEntry, error) {
	var hi []byte
	if !to.IsZero() {
		hi = auditKeyPrefix(to)
	}
	entries := make([]model.AuditEntry, 0)
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.ForEachRange(store.BucketAudit, auditKeyPrefix(from), hi, func(_ []byte, plain []byte) error {
			var e model.AuditEntry
			if err := unmarshalRecord(plain, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// auditKey builds the 12-byte bucket key for a new entry.
func auditKey(ts time.Time) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint64(key, uint64(ts.UnixNano()))
	// The random suffix only disambiguates same-nanosecond entries; a
	// failed read leaves zeros and ordering still holds.
	_, _ = rand.Read(key[8:])
	return key
}

// auditKeyPrefix is the smallest possible key for a timestamp, used as a
// range-scan boundary.  A zero or pre-epoch timestamp maps to the all-zero
// key, the unbounded lower edge; its negative UnixNano would otherwise
// wrap to a uint64 above every real entry.
func auditKeyPrefix(ts time.Time) []byte {
	key := make([]byte, 8)
	if ts.IsZero() || ts.UnixNano() <= 0 {
		return key
	}
	binary.BigEndian.PutUint64(key, uint64(ts.UnixNano()))
	return key
}
