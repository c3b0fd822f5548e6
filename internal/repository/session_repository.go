package repository

import (
	"errors"
	"time"

	"github.com/iliyamo/parking-slot-booking/internal/clock"
	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/store"
	"github.com/iliyamo/parking-slot-booking/internal/utils"
)

// SessionRepo is the session authority.  It issues opaque bearer tokens,
// validates them against the store and revokes them on logout or password
// change.  Sessions are keyed by the SHA-256 hash of the raw token; the raw
// value exists only in the response that delivered it to the client.
type SessionRepo struct {
	Store *store.Store
	Clock clock.Clock
	TTL   time.Duration
}

// NewSessionRepo returns a SessionRepo issuing sessions with the given
// lifetime.
func NewSessionRepo(s *store.Store, clk clock.Clock, ttl time.Duration) *SessionRepo {
	return &SessionRepo{Store: s, Clock: clk, TTL: ttl}
}

// Issue creates a session for the user and returns the raw token together
// with the stored record.  The record snapshots the user's role at issue
// time; later role changes do not retroactively alter live sessions.
func (r *SessionRepo) Issue(user *model.User) (string, *model.Session, error) {
	raw, err := utils.NewSessionToken()
	if err != nil {
		return "", nil, err
	}
	now := r.Clock.Now()
	sess := &model.Session{
		TokenHash: utils.HashSessionToken(raw),
		UserID:    user.ID,
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.TTL),
	}
	err = r.Store.Update(func(tx *store.Tx) error {
		return tx.Put(store.BucketSessions, sess.TokenHash, sess)
	})
	if err != nil {
		return "", nil, err
	}
	return raw, sess, nil
}

// Validate resolves a raw token to its session.  An unknown token yields
// ErrSessionInvalid; a known token whose expiry has been reached yields
// ErrSessionExpired.  A session is valid strictly before its expiry and
// invalid at the expiry instant itself.
func (r *SessionRepo) Validate(raw string) (*model.Session, error) {
	var sess model.Session
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.Get(store.BucketSessions, utils.HashSessionToken(raw), &sess)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	if !r.Clock.Now().Before(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// Revoke deletes the session for a raw token.  Revoking an unknown or
// already-revoked token is a no-op; logout never fails on a stale token.
func (r *SessionRepo) Revoke(raw string) error {
	return r.Store.Update(func(tx *store.Tx) error {
		return tx.Delete(store.BucketSessions, utils.HashSessionToken(raw))
	})
}

// RevokeAllForUser deletes every session belonging to a user.  Called on
// password change and account erasure so stolen tokens die with the event.
// Returns the number of sessions removed.
func (r *SessionRepo) RevokeAllForUser(userID string) (int, error) {
	count := 0
	err := r.Store.Update(func(tx *store.Tx) error {
		stale := make([]string, 0)
		err := tx.ForEach(store.BucketSessions, func(key string, plain []byte) error {
			var sess model.Session
			if err := unmarshalRecord(plain, &sess); err != nil {
				return err
			}
			if sess.UserID == userID {
				stale = append(stale, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(store.BucketSessions, key); err != nil {
				return err
			}
		}
		count = len(stale)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PurgeExpired removes sessions whose expiry has passed.  Run periodically
// so the sessions bucket does not grow without bound.
func (r *SessionRepo) PurgeExpired() (int, error) {
	now := r.Clock.Now()
	count := 0
	err := r.Store.Update(func(tx *store.Tx) error {
		dead := make([]string, 0)
		err := tx.ForEach(store.BucketSessions, func(key string, plain []byte) error {
			var sess model.Session
			if err := unmarshalRecord(plain, &sess); err != nil {
				return err
			}
			if !now.Before(sess.ExpiresAt) {
				dead = append(dead, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range dead {
			if err := tx.Delete(store.BucketSessions, key); err != nil {
				return err
			}
		}
		count = len(dead)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
