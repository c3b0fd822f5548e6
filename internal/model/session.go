package model

import "time"

// Session is a server-side record of an issued bearer token.  The raw token
// is returned to the client exactly once; only its SHA-256 hash is stored,
// so a leaked store file cannot be replayed against the API.  The role is a
// snapshot taken at issue time: changing a user's role does not affect
// sessions already issued until they expire or are revoked.
//
// Fields:
//  TokenHash – SHA-256 hex digest of the raw token; bucket key.
//  UserID    – owning user.
//  Role      – role snapshot at issue time.
//  IssuedAt  – when the session was created.
//  ExpiresAt – absolute expiry; the token is invalid at and after this instant.
type Session struct {
	TokenHash string    `json:"token_hash"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
