package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for session tokens
	"encoding/hex"  // hex encoding for tokens and digests
	"time"          // expiration handling

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed access tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header when
// calling protected endpoints; the durable credential is the opaque
// session token issued by the session authority.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT
// carries the subject (user id), the role snapshot from the session, the
// expiration and the issued-at time.
func NewAccessToken(secret, userID, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewSessionToken returns a cryptographically random opaque token.  The
// raw value is handed to the client exactly once; the store only ever sees
// its hash.  48 random bytes yield a 96 character hex string, far beyond
// brute-force range for a bearer credential.
func NewSessionToken() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashSessionToken returns the SHA-256 digest of a raw session token as a
// hex string.  Storing only the hash prevents a stolen store file from
// being replayed against the API.
func HashSessionToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
