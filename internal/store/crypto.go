package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// ErrDecryptionFailed is returned when a sealed value cannot be
// authenticated, which means either the passphrase is wrong or the store
// file has been tampered with.  Open surfaces this before any data is
// served so a wrong passphrase can never yield garbage records.
var ErrDecryptionFailed = errors.New("store: decryption failed")

const (
	envelopeKeyLen   = 32      // AES-256
	envelopeSaltLen  = 32      // random salt persisted in the meta bucket
	envelopeNonceLen = 12      // standard GCM nonce size
	kdfIterations    = 100_000 // PBKDF2-HMAC-SHA256 rounds
)

// Envelope seals and opens record values with AES-256-GCM using a key
// derived from the operator's passphrase.  A nil *Envelope is a valid
// pass-through: Seal and Open return their input unchanged, so callers are
// agnostic to whether encryption is active.
type Envelope struct {
	aead cipher.AEAD
	key  []byte
}

// NewEnvelope derives the symmetric key from passphrase and salt and
// prepares the AEAD cipher.  The passphrase itself is not retained.
func NewEnvelope(passphrase string, salt []byte) (*Envelope, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, kdfIterations, envelopeKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Envelope{aead: aead, key: key}, nil
}

// NewSalt returns a fresh random salt for key derivation.
func NewSalt() ([]byte, error) {
	salt := make([]byte, envelopeSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Seal encrypts plain and prepends the random nonce to the ciphertext.
func (e *Envelope) Seal(plain []byte) ([]byte, error) {
	if e == nil {
		return plain, nil
	}
	nonce := make([]byte, envelopeNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return e.aead.Seal(nonce, nonce, plain, nil), nil
}

// Open authenticates and decrypts a value produced by Seal.
func (e *Envelope) Open(blob []byte) ([]byte, error) {
	if e == nil {
		return blob, nil
	}
	if len(blob) < envelopeNonceLen {
		return nil, ErrDecryptionFailed
	}
	nonce, ciphertext := blob[:envelopeNonceLen], blob[envelopeNonceLen:]
	plain, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}

// wipe zeroes the derived key material.  Called from Store.Close; the
// envelope must not be used afterwards.
func (e *Envelope) wipe() {
	if e == nil {
		return
	}
	for i := range e.key {
		e.key[i] = 0
	}
	e.aead = nil
}
