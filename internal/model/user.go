package model

import "time"

// Role is the closed set of access levels a user can hold.  Authorization
// decisions switch exhaustively over these values instead of comparing
// free-form strings, so an unknown role can never slip through a check.
type Role string

const (
	RoleUser       Role = "user"       // regular account, may manage own bookings and vehicles
	RoleAdmin      Role = "admin"      // may manage lots, slots and any booking
	RoleSuperAdmin Role = "superadmin" // admin plus user management and role changes
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether r grants administrative privileges.  Superadmins
// are admins for every purpose except role management.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

// CanChangeRoles reports whether r may alter another user's role.
func (r Role) CanChangeRoles() bool {
	return r == RoleSuperAdmin
}

// User represents an account record stored in the `users` bucket.  Accounts
// are never physically deleted: a GDPR erasure request anonymizes the PII
// fields in place so booking history keeps a valid (but meaningless) owner.
//
// Fields:
//  ID           – UUID primary key.
//  Username     – unique login name; indexed via users_by_username.
//  Email        – unique email address; indexed via users_by_email.
//  Name         – display name (PII, blanked on erasure).
//  PasswordHash – bcrypt hashed password.
//  Role         – access level, one of the Role constants.
//  IsActive     – whether the account may authenticate.
//  CreatedAt    – timestamp of registration.
//  UpdatedAt    – timestamp of last mutation.
//  LastLogin    – last successful authentication (nil before first login).
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"password_hash"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}
