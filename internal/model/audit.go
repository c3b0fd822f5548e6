package model

import (
	"encoding/json"
	"time"
)

// AuditAction names a security-relevant event recorded in the audit trail.
type AuditAction string

const (
	AuditLoginSuccess        AuditAction = "login_success"
	AuditLoginFailed         AuditAction = "login_failed"
	AuditLogout              AuditAction = "logout"
	AuditPasswordChanged     AuditAction = "password_changed"
	AuditBookingCreated      AuditAction = "booking_created"
	AuditBookingCancelled    AuditAction = "booking_cancelled"
	AuditBookingCheckedIn    AuditAction = "booking_checked_in"
	AuditBookingCheckedOut   AuditAction = "booking_checked_out"
	AuditBookingsAnonymized  AuditAction = "bookings_anonymized"
	AuditRoleChanged         AuditAction = "role_changed"
	AuditUserErased          AuditAction = "user_erased"
	AuditVehicleAdded        AuditAction = "vehicle_added"
	AuditVehicleRemoved      AuditAction = "vehicle_removed"
	AuditSlotStatusChanged   AuditAction = "slot_status_changed"
)

// AuditEntry is one immutable line of the append-only audit trail.  Entries
// are keyed by timestamp in the store so compliance tooling can range-scan
// them by time; the core offers no mutation or deletion API.
//
// Fields:
//  ID        – UUID of the entry.
//  Timestamp – when the event happened.
//  Action    – event kind, one of the AuditAction constants.
//  ActorID   – user who performed the action; empty for anonymous events
//              such as failed logins with an unknown username.
//  Resource  – optional kind of the affected resource ("booking", "user").
//  ResourceID– optional ID of the affected resource.
//  Payload   – compact JSON details, e.g. the booking window.
type AuditEntry struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Action     AuditAction     `json:"action"`
	ActorID    string          `json:"actor_id,omitempty"`
	Resource   string          `json:"resource,omitempty"`
	ResourceID string          `json:"resource_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
