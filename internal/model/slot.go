package model

import "time"

// SlotStatus is the availability state of a parking slot.  Transitions to
// reserved or occupied always happen in the same store transaction as the
// creation of the booking that causes them, and the transition back to
// available happens together with that booking reaching a terminal status.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotOccupied    SlotStatus = "occupied"
	SlotReserved    SlotStatus = "reserved"
	SlotMaintenance SlotStatus = "maintenance"
	SlotDisabled    SlotStatus = "disabled"
)

// Valid reports whether s is one of the known slot statuses.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotOccupied, SlotReserved, SlotMaintenance, SlotDisabled:
		return true
	}
	return false
}

// Bookable reports whether a slot in this status may accept a new booking.
func (s SlotStatus) Bookable() bool {
	return s == SlotAvailable
}

// SlotType classifies the physical kind of a slot.
type SlotType string

const (
	SlotTypeStandard   SlotType = "standard"
	SlotTypeCompact    SlotType = "compact"
	SlotTypeHandicap   SlotType = "handicap"
	SlotTypeElectric   SlotType = "electric"
	SlotTypeMotorcycle SlotType = "motorcycle"
)

// Slot is a single physical parking space, the atomic unit of reservation.
// It belongs to exactly one floor of exactly one lot.
//
// Fields:
//  ID         – UUID primary key.
//  LotID      – owning lot; also forms the slots_by_lot index key.
//  FloorID    – owning floor within the lot.
//  SlotNumber – human readable number painted on the ground.
//  Type       – physical classification of the space.
//  Status     – current availability state.
//  UpdatedAt  – timestamp of the last status change.
type Slot struct {
	ID         string     `json:"id"`
	LotID      string     `json:"lot_id"`
	FloorID    string     `json:"floor_id"`
	SlotNumber int        `json:"slot_number"`
	Type       SlotType   `json:"type"`
	Status     SlotStatus `json:"status"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
