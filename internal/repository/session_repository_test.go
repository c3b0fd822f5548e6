package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
)

func TestSessionIssueAndValidate(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)

	raw, sess, err := e.sessions.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if raw == "" || raw == sess.TokenHash {
		t.Fatal("raw token must be returned and differ from its stored hash")
	}

	got, err := e.sessions.Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.UserID != u.ID || got.Role != model.RoleUser {
		t.Fatalf("validated session %+v", got)
	}

	if _, err := e.sessions.Validate("deadbeef"); !errors.Is(err, repository.ErrSessionInvalid) {
		t.Fatalf("unknown token: expected ErrSessionInvalid, got %v", err)
	}
}

func TestSessionExpiryBoundary(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)

	raw, sess, err := e.sessions.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// One second before expiry the session is still good.
	e.clk.Set(sess.ExpiresAt.Add(-time.Second))
	if _, err := e.sessions.Validate(raw); err != nil {
		t.Fatalf("validate just before expiry: %v", err)
	}

	// At the expiry instant it is rejected.
	e.clk.Set(sess.ExpiresAt)
	if _, err := e.sessions.Validate(raw); !errors.Is(err, repository.ErrSessionExpired) {
		t.Fatalf("validate at expiry: expected ErrSessionExpired, got %v", err)
	}
}

func TestSessionRevoke(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)

	raw, _, err := e.sessions.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := e.sessions.Revoke(raw); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := e.sessions.Validate(raw); !errors.Is(err, repository.ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid after revoke, got %v", err)
	}
	// Revoking again is a no-op.
	if err := e.sessions.Revoke(raw); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestSessionRevokeAllForUser(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice", model.RoleUser)
	bob := e.user(t, "bob", model.RoleUser)

	rawA1, _, _ := e.sessions.Issue(alice)
	rawA2, _, _ := e.sessions.Issue(alice)
	rawB, _, _ := e.sessions.Issue(bob)

	n, err := e.sessions.RevokeAllForUser(alice.ID)
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if n != 2 {
		t.Fatalf("revoked %d sessions, want 2", n)
	}
	for _, raw := range []string{rawA1, rawA2} {
		if _, err := e.sessions.Validate(raw); !errors.Is(err, repository.ErrSessionInvalid) {
			t.Fatalf("alice session survived revoke all: %v", err)
		}
	}
	if _, err := e.sessions.Validate(rawB); err != nil {
		t.Fatalf("bob's session must be untouched: %v", err)
	}
}

func TestSessionRoleSnapshot(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)

	raw, _, err := e.sessions.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := e.users.SetRole(u.ID, model.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}

	got, err := e.sessions.Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Role != model.RoleUser {
		t.Fatalf("session role %s, want the snapshot taken at issue time", got.Role)
	}
}

func TestSessionPurgeExpired(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice", model.RoleUser)

	_, sess, err := e.sessions.Issue(alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	e.clk.Set(sess.ExpiresAt.Add(time.Minute))
	rawFresh, _, err := e.sessions.Issue(alice)
	if err != nil {
		t.Fatalf("issue fresh: %v", err)
	}

	n, err := e.sessions.PurgeExpired()
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d sessions, want 1", n)
	}
	if _, err := e.sessions.Validate(rawFresh); err != nil {
		t.Fatalf("fresh session must survive purge: %v", err)
	}
}
