// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types carried in BookingEvent.Type.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published whenever a booking is created or cancelled.
// It carries enough information for downstream consumers to log, notify or
// feed occupancy analytics without querying the primary store.
type BookingEvent struct {
	Type        string `json:"type"`
	BookingID   string `json:"booking_id"`
	UserID      string `json:"user_id"`
	LotID       string `json:"lot_id"`
	SlotID      string `json:"slot_id"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	AmountCents uint32 `json:"amount_cents"`
	Currency    string `json:"currency"`
	OccurredAt  string `json:"occurred_at"`
}
