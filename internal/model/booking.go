package model

import "time"

// BookingStatus is the lifecycle state of a booking.  Completed and
// cancelled are terminal; every other status counts against the slot's
// availability for the booking's time window.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether the status ends the booking lifecycle.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled:
		return true
	case BookingPending, BookingConfirmed, BookingActive:
		return false
	}
	return false
}

// Window is a half-open time interval [Start, End).  End is always strictly
// after Start for a valid window.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window has positive duration.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps reports whether two half-open windows intersect.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// RedactedPlate replaces the vehicle plate on anonymized bookings.  The
// booking row itself is retained for legal-retention reasons.
const RedactedPlate = "REDACTED"

// Booking records a user's reservation of one slot for one time window.
// Bookings are retained indefinitely, even after account erasure; only the
// plate and vehicle reference are redacted on request.
//
// Fields:
//  ID           – UUID primary key.
//  UserID       – user who made the booking.
//  LotID        – lot containing the slot, denormalized for listing.
//  SlotID       – reserved slot.
//  VehicleID    – optional vehicle reference, cleared on anonymization.
//  LicensePlate – plate snapshot taken at booking time, redacted on request.
//  Window       – half-open reservation interval [start, end).
//  Status       – lifecycle state, see BookingStatus.
//  AmountCents  – price snapshot in cents.
//  Currency     – ISO currency code of the amount.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last status change.
type Booking struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	LotID        string        `json:"lot_id"`
	SlotID       string        `json:"slot_id"`
	VehicleID    string        `json:"vehicle_id,omitempty"`
	LicensePlate string        `json:"license_plate,omitempty"`
	Window       Window        `json:"window"`
	Status       BookingStatus `json:"status"`
	AmountCents  uint32        `json:"amount_cents"`
	Currency     string        `json:"currency"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
