package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/parking-slot-booking/internal/clock"
	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/store"
	"github.com/iliyamo/parking-slot-booking/internal/utils"
)

// UserRepo provides account persistence.  Usernames and emails are kept
// unique through the users_by_username and users_by_email index buckets,
// maintained in the same transaction as the user record itself.
type UserRepo struct {
	Store *store.Store
	Clock clock.Clock
}

// NewUserRepo returns a UserRepo bound to the given store.
func NewUserRepo(s *store.Store, clk clock.Clock) *UserRepo {
	return &UserRepo{Store: s, Clock: clk}
}

// Create registers a new user with a bcrypt-hashed password.  Username and
// email uniqueness are checked and claimed inside one transaction, so two
// concurrent registrations for the same name cannot both succeed.
func (r *UserRepo) Create(username, email, name, password string, role model.Role, bcryptCost int) (*model.User, error) {
	if !role.Valid() {
		role = model.RoleUser
	}
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := r.Clock.Now()
	u := &model.User{
		ID:           uuid.NewString(),
		Username:     strings.ToLower(strings.TrimSpace(username)),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = r.Store.Update(func(tx *store.Tx) error {
		if _, err := tx.GetIndex(store.BucketUsersByUsername, u.Username); err == nil {
			return ErrUsernameExists
		}
		if _, err := tx.GetIndex(store.BucketUsersByEmail, u.Email); err == nil {
			return ErrEmailExists
		}
		if err := tx.Put(store.BucketUsers, u.ID, u); err != nil {
			return err
		}
		if err := tx.PutIndex(store.BucketUsersByUsername, u.Username, u.ID); err != nil {
			return err
		}
		return tx.PutIndex(store.BucketUsersByEmail, u.Email, u.ID)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID loads a user record.
func (r *UserRepo) GetByID(id string) (*model.User, error) {
	var u model.User
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.Get(store.BucketUsers, id, &u)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername resolves the username index and loads the user.
func (r *UserRepo) GetByUsername(username string) (*model.User, error) {
	var u model.User
	err := r.Store.View(func(tx *store.Tx) error {
		id, err := tx.GetIndex(store.BucketUsersByUsername, strings.ToLower(strings.TrimSpace(username)))
		if err != nil {
			return err
		}
		return tx.Get(store.BucketUsers, id, &u)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all user records, for admin listings.
func (r *UserRepo) List() ([]model.User, error) {
	users := make([]model.User, 0)
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.ForEach(store.BucketUsers, func(_ string, plain []byte) error {
			var u model.User
			if err := unmarshalRecord(plain, &u); err != nil {
				return err
			}
			users = append(users, u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// TouchLogin stamps the last successful authentication time.
func (r *UserRepo) TouchLogin(id string) error {
	now := r.Clock.Now()
	return r.mutate(id, func(u *model.User) error {
		u.LastLogin = &now
		return nil
	})
}

// ChangePassword replaces the stored bcrypt hash.  The caller is
// responsible for revoking the user's sessions afterwards.
func (r *UserRepo) ChangePassword(id, newPassword string, bcryptCost int) error {
	hash, err := utils.HashPassword(newPassword, bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return r.mutate(id, func(u *model.User) error {
		u.PasswordHash = hash
		return nil
	})
}

// SetRole changes a user's access level.  Already-issued sessions keep
// their role snapshot until they expire or are revoked.
func (r *UserRepo) SetRole(id string, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	return r.mutate(id, func(u *model.User) error {
		u.Role = role
		return nil
	})
}

// Erase anonymizes the PII fields of a user record in place.  The record
// itself is retained so booking history keeps a resolvable owner id.  Old
// username and email index entries are removed in the same transaction so
// the identifiers become reusable.
func (r *UserRepo) Erase(id string) error {
	now := r.Clock.Now()
	err := r.Store.Update(func(tx *store.Tx) error {
		var u model.User
		if err := tx.Get(store.BucketUsers, id, &u); err != nil {
			return err
		}
		if err := tx.Delete(store.BucketUsersByUsername, u.Username); err != nil {
			return err
		}
		if err := tx.Delete(store.BucketUsersByEmail, u.Email); err != nil {
			return err
		}
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		u.Username = "erased-" + short
		u.Email = "erased-" + short + "@invalid"
		u.Name = ""
		u.PasswordHash = ""
		u.IsActive = false
		u.LastLogin = nil
		u.UpdatedAt = now
		return tx.Put(store.BucketUsers, id, &u)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return ErrUserNotFound
	}
	return err
}

// mutate loads, edits and rewrites a user record in one transaction.
func (r *UserRepo) mutate(id string, fn func(u *model.User) error) error {
	err := r.Store.Update(func(tx *store.Tx) error {
		var u model.User
		if err := tx.Get(store.BucketUsers, id, &u); err != nil {
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}
		u.UpdatedAt = r.Clock.Now()
		return tx.Put(store.BucketUsers, id, &u)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return ErrUserNotFound
	}
	return err
}
