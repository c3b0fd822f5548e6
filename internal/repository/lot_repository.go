package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/parking-slot-booking/internal/clock"
	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/store"
)

// LotRepo manages parking lots and their slots.  Slots are stored flat in
// their own bucket and reachable per lot through the slots_by_lot index,
// keyed "lotID:slotID".
type LotRepo struct {
	Store *store.Store
	Clock clock.Clock
}

// NewLotRepo returns a LotRepo bound to the given store.
func NewLotRepo(s *store.Store, clk clock.Clock) *LotRepo {
	return &LotRepo{Store: s, Clock: clk}
}

// CreateLot stores a new lot with its floors.  Floor IDs are assigned here
// so callers only supply names and numbers.
func (r *LotRepo) CreateLot(name, address string, floors []model.Floor) (*model.ParkingLot, error) {
	now := r.Clock.Now()
	lot := &model.ParkingLot{
		ID:        uuid.NewString(),
		Name:      name,
		Address:   address,
		Floors:    make([]model.Floor, len(floors)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, f := range floors {
		f.ID = uuid.NewString()
		lot.Floors[i] = f
	}
	err := r.Store.Update(func(tx *store.Tx) error {
		return tx.Put(store.BucketLots, lot.ID, lot)
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// GetLot loads a single lot.
func (r *LotRepo) GetLot(id string) (*model.ParkingLot, error) {
	var lot model.ParkingLot
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.Get(store.BucketLots, id, &lot)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// ListLots returns all lots for the public browse endpoint.
func (r *LotRepo) ListLots() ([]model.ParkingLot, error) {
	lots := make([]model.ParkingLot, 0)
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.ForEach(store.BucketLots, func(_ string, plain []byte) error {
			var lot model.ParkingLot
			if err := unmarshalRecord(plain, &lot); err != nil {
				return err
			}
			lots = append(lots, lot)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return lots, nil
}

// AddSlot creates a slot inside an existing lot.  The lot and, when given,
// the floor must exist.  New slots start out available.
func (r *LotRepo) AddSlot(lotID, floorID string, slotNumber int, typ model.SlotType) (*model.Slot, error) {
	slot := &model.Slot{
		ID:         uuid.NewString(),
		LotID:      lotID,
		FloorID:    floorID,
		SlotNumber: slotNumber,
		Type:       typ,
		Status:     model.SlotAvailable,
		UpdatedAt:  r.Clock.Now(),
	}
	err := r.Store.Update(func(tx *store.Tx) error {
		var lot model.ParkingLot
		if err := tx.Get(store.BucketLots, lotID, &lot); err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				return ErrLotNotFound
			}
			return err
		}
		if floorID != "" {
			found := false
			for _, f := range lot.Floors {
				if f.ID == floorID {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: floor %s not in lot", ErrLotNotFound, floorID)
			}
		}
		if err := tx.Put(store.BucketSlots, slot.ID, slot); err != nil {
			return err
		}
		return tx.PutIndex(store.BucketSlotsByLot, lotID+":"+slot.ID, slot.ID)
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// GetSlot loads a single slot.
func (r *LotRepo) GetSlot(id string) (*model.Slot, error) {
	var slot model.Slot
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.Get(store.BucketSlots, id, &slot)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListSlotsByLot returns every slot of a lot via the slots_by_lot index.
func (r *LotRepo) ListSlotsByLot(lotID string) ([]model.Slot, error) {
	slots := make([]model.Slot, 0)
	err := r.Store.View(func(tx *store.Tx) error {
		if err := tx.Get(store.BucketLots, lotID, &model.ParkingLot{}); err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				return ErrLotNotFound
			}
			return err
		}
		return tx.ForEachPrefix(store.BucketSlotsByLot, lotID+":", func(_ string, id []byte) error {
			var slot model.Slot
			if err := tx.Get(store.BucketSlots, string(id), &slot); err != nil {
				return err
			}
			slots = append(slots, slot)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// SetSlotStatus is the operator override for a slot's state, e.g. taking a
// slot out of service.  Marking a slot available while a non-terminal
// booking still references it is refused so a maintenance toggle cannot
// silently double-book the slot.
func (r *LotRepo) SetSlotStatus(slotID string, status model.SlotStatus) (*model.Slot, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown slot status %q", status)
	}
	var slot model.Slot
	err := r.Store.Update(func(tx *store.Tx) error {
		if err := tx.Get(store.BucketSlots, slotID, &slot); err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		if status == model.SlotAvailable && slot.Status == model.SlotReserved {
			active, err := hasLiveBooking(tx, slotID)
			if err != nil {
				return err
			}
			if active {
				return fmt.Errorf("%w: slot has a live booking", ErrInvalidStatus)
			}
		}
		slot.Status = status
		slot.UpdatedAt = r.Clock.Now()
		return tx.Put(store.BucketSlots, slotID, &slot)
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// hasLiveBooking reports whether any non-terminal booking references the
// slot, scanning only that slot's entries of the bookings_by_slot index.
func hasLiveBooking(tx *store.Tx, slotID string) (bool, error) {
	live := false
	err := tx.ForEachPrefix(store.BucketBookingsBySlot, slotID+":", func(_ string, id []byte) error {
		var b model.Booking
		if err := tx.Get(store.BucketBookings, string(id), &b); err != nil {
			return err
		}
		if !b.Status.Terminal() {
			live = true
		}
		return nil
	})
	return live, err
}
