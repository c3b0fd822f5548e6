package repository_test

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
	"github.com/iliyamo/parking-slot-booking/internal/utils"
)

func TestUserCreateAndLookup(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "Alice", model.RoleUser)

	if u.Username != "alice" {
		t.Fatalf("username not normalized: %q", u.Username)
	}
	if !utils.VerifyPassword(u.PasswordHash, "password123") {
		t.Fatal("stored hash does not verify")
	}

	byName, err := e.users.GetByUsername("ALICE")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != u.ID {
		t.Fatalf("lookup returned %s, want %s", byName.ID, u.ID)
	}
}

func TestUserUniqueness(t *testing.T) {
	e := newEnv(t)
	e.user(t, "alice", model.RoleUser)

	_, err := e.users.Create("alice", "other@example.com", "", "password123", model.RoleUser, bcrypt.MinCost)
	if !errors.Is(err, repository.ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
	_, err = e.users.Create("alice2", "alice@example.com", "", "password123", model.RoleUser, bcrypt.MinCost)
	if !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestUserChangePassword(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)

	if err := e.users.ChangePassword(u.ID, "newpassword", bcrypt.MinCost); err != nil {
		t.Fatalf("change password: %v", err)
	}
	got, err := e.users.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if utils.VerifyPassword(got.PasswordHash, "password123") {
		t.Fatal("old password still verifies")
	}
	if !utils.VerifyPassword(got.PasswordHash, "newpassword") {
		t.Fatal("new password does not verify")
	}
}

func TestUserSetRole(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)

	if err := e.users.SetRole(u.ID, model.Role("janitor")); err == nil {
		t.Fatal("unknown role must be rejected")
	}
	if err := e.users.SetRole(u.ID, model.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}
	got, _ := e.users.GetByID(u.ID)
	if got.Role != model.RoleAdmin {
		t.Fatalf("role %s, want admin", got.Role)
	}
}

func TestUserErase(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)

	if err := e.users.Erase(u.ID); err != nil {
		t.Fatalf("erase: %v", err)
	}

	got, err := e.users.GetByID(u.ID)
	if err != nil {
		t.Fatalf("record must survive erasure: %v", err)
	}
	if got.Name != "" || got.PasswordHash != "" || got.IsActive {
		t.Fatalf("PII not cleared: %+v", got)
	}
	if !strings.HasPrefix(got.Username, "erased-") {
		t.Fatalf("username not anonymized: %q", got.Username)
	}

	if _, err := e.users.GetByUsername("alice"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("old username must be unresolvable, got %v", err)
	}
	// The released identifiers are free for a new registration.
	if _, err := e.users.Create("alice", "alice@example.com", "", "password123", model.RoleUser, bcrypt.MinCost); err != nil {
		t.Fatalf("re-register released username: %v", err)
	}
}
