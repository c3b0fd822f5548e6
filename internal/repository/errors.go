// Package repository implements the domain operations of the booking core
// on top of the store's transaction API.  Each repository performs its
// critical read-modify-write sequences inside a single store transaction,
// which is what guarantees that two concurrent requests can never both
// reserve the same slot.
//
// The sentinel errors below let handlers distinguish failure scenarios
// without inspecting error strings.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSlotUnavailable is returned when a booking cannot be created because
// the slot is not available or an existing non-terminal booking overlaps
// the requested window.  The condition is transient from the caller's
// point of view: retrying after the conflicting booking ends (or picking
// another slot) is legitimate.
var ErrSlotUnavailable = errors.New("slot unavailable")

// ErrAlreadyCancelled is returned when cancelling a booking that already
// reached a terminal status.  Callers may treat it as an idempotent no-op.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrForbidden is returned when the actor is neither the owner of the
// resource nor an admin.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrSessionExpired is returned by Validate when the session exists but
// its expiry has passed.  The caller must re-authenticate.
var ErrSessionExpired = errors.New("session expired")

// ErrSessionInvalid is returned by Validate when no session matches the
// presented token.
var ErrSessionInvalid = errors.New("session invalid")

// ErrInvalidWindow is returned when a booking window has non-positive
// duration or ends before it starts.
var ErrInvalidWindow = errors.New("invalid booking window")

// ErrInvalidStatus is returned when a booking state transition is not
// allowed from the booking's current status.
var ErrInvalidStatus = errors.New("invalid status transition")

// Not-found sentinels, one per entity kind, so handlers can map each to a
// precise 404 message.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrLotNotFound     = errors.New("parking lot not found")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
)

// Uniqueness conflicts during registration.
var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// unmarshalRecord decodes one store value during a ForEach scan.
func unmarshalRecord(plain []byte, v any) error {
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
