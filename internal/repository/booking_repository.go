package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/parking-slot-booking/internal/clock"
	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/store"
)

// BookingRepo implements the booking ledger.  Every state transition runs
// in a single store transaction together with the slot status change it
// implies, so the check-then-write sequence can never interleave with a
// concurrent request for the same slot.
type BookingRepo struct {
	Store *store.Store
	Clock clock.Clock
}

// NewBookingRepo returns a BookingRepo bound to the given store.
func NewBookingRepo(s *store.Store, clk clock.Clock) *BookingRepo {
	return &BookingRepo{Store: s, Clock: clk}
}

// CreateParams carries the caller-supplied fields of a new booking.
type CreateParams struct {
	UserID      string
	SlotID      string
	VehicleID   string
	Window      model.Window
	AmountCents uint32
	Currency    string
}

// Create reserves a slot for the given window.  Inside one write
// transaction it verifies that the slot exists and is bookable and that no
// non-terminal booking for the slot overlaps the window; both conditions
// failing the same way, with ErrSlotUnavailable and no writes.  On success
// the booking is stored as confirmed and the slot flipped to reserved in
// the same transaction.
func (r *BookingRepo) Create(p CreateParams) (*model.Booking, error) {
	if !p.Window.Valid() {
		return nil, ErrInvalidWindow
	}
	now := r.Clock.Now()
	b := &model.Booking{
		ID:          uuid.NewString(),
		UserID:      p.UserID,
		SlotID:      p.SlotID,
		VehicleID:   p.VehicleID,
		Window:      p.Window,
		Status:      model.BookingConfirmed,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := r.Store.Update(func(tx *store.Tx) error {
		var slot model.Slot
		if err := tx.Get(store.BucketSlots, p.SlotID, &slot); err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		if !slot.Status.Bookable() {
			return ErrSlotUnavailable
		}
		conflict, err := overlappingBooking(tx, p.SlotID, p.Window)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotUnavailable
		}
		if p.VehicleID != "" {
			var v model.Vehicle
			if err := tx.Get(store.BucketVehicles, p.VehicleID, &v); err != nil {
				if errors.Is(err, store.ErrKeyNotFound) {
					return ErrVehicleNotFound
				}
				return err
			}
			if v.UserID != p.UserID {
				return ErrForbidden
			}
			b.LicensePlate = v.LicensePlate
		}
		b.LotID = slot.LotID

		if err := tx.Put(store.BucketBookings, b.ID, b); err != nil {
			return err
		}
		if err := tx.PutIndex(store.BucketBookingsBySlot, b.SlotID+":"+b.ID, b.ID); err != nil {
			return err
		}
		if err := tx.PutIndex(store.BucketBookingsByUser, b.UserID+":"+b.ID, b.ID); err != nil {
			return err
		}
		slot.Status = model.SlotReserved
		slot.UpdatedAt = now
		return tx.Put(store.BucketSlots, slot.ID, &slot)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel moves a booking to cancelled.  Only the owner or an admin may
// cancel; cancelling a booking that already reached a terminal status
// returns ErrAlreadyCancelled without touching anything, which makes the
// operation idempotent from the client's point of view.  The slot is
// released back to available in the same transaction unless another live
// booking still holds it or an operator has overridden its status.
func (r *BookingRepo) Cancel(bookingID, actorID string, actorRole model.Role) (*model.Booking, error) {
	var b model.Booking
	err := r.Store.Update(func(tx *store.Tx) error {
		if err := tx.Get(store.BucketBookings, bookingID, &b); err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if b.UserID != actorID && !actorRole.IsAdmin() {
			return ErrForbidden
		}
		if b.Status.Terminal() {
			return ErrAlreadyCancelled
		}
		now := r.Clock.Now()
		b.Status = model.BookingCancelled
		b.UpdatedAt = now
		if err := tx.Put(store.BucketBookings, b.ID, &b); err != nil {
			return err
		}
		return releaseSlot(tx, b.SlotID, now)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CheckIn marks the start of the parked period.  The booking must be
// confirmed; the slot moves from reserved to occupied.
func (r *BookingRepo) CheckIn(bookingID, actorID string, actorRole model.Role) (*model.Booking, error) {
	return r.transition(bookingID, actorID, actorRole,
		model.BookingConfirmed, model.BookingActive, model.SlotOccupied)
}

// CheckOut completes an active booking and releases the slot.
func (r *BookingRepo) CheckOut(bookingID, actorID string, actorRole model.Role) (*model.Booking, error) {
	return r.transition(bookingID, actorID, actorRole,
		model.BookingActive, model.BookingCompleted, model.SlotAvailable)
}

// transition applies one lifecycle step with its slot side effect.
func (r *BookingRepo) transition(bookingID, actorID string, actorRole model.Role, from, to model.BookingStatus, slotStatus model.SlotStatus) (*model.Booking, error) {
	var b model.Booking
	err := r.Store.Update(func(tx *store.Tx) error {
		if err := tx.Get(store.BucketBookings, bookingID, &b); err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if b.UserID != actorID && !actorRole.IsAdmin() {
			return ErrForbidden
		}
		if b.Status != from {
			return ErrInvalidStatus
		}
		now := r.Clock.Now()
		b.Status = to
		b.UpdatedAt = now
		if err := tx.Put(store.BucketBookings, b.ID, &b); err != nil {
			return err
		}
		if slotStatus == model.SlotAvailable {
			return releaseSlot(tx, b.SlotID, now)
		}
		var slot model.Slot
		if err := tx.Get(store.BucketSlots, b.SlotID, &slot); err != nil {
			return err
		}
		slot.Status = slotStatus
		slot.UpdatedAt = now
		return tx.Put(store.BucketSlots, slot.ID, &slot)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByID loads one booking, visible to its owner and to admins.
func (r *BookingRepo) GetByID(bookingID, actorID string, actorRole model.Role) (*model.Booking, error) {
	var b model.Booking
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.Get(store.BucketBookings, bookingID, &b)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.UserID != actorID && !actorRole.IsAdmin() {
		return nil, ErrForbidden
	}
	return &b, nil
}

// ListByUser returns all bookings of a user via the bookings_by_user index.
func (r *BookingRepo) ListByUser(userID string) ([]model.Booking, error) {
	bookings := make([]model.Booking, 0)
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.ForEachPrefix(store.BucketBookingsByUser, userID+":", func(_ string, id []byte) error {
			var b model.Booking
			if err := tx.Get(store.BucketBookings, string(id), &b); err != nil {
				return err
			}
			bookings = append(bookings, b)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// AnonymizeUserBookings redacts the personal data carried by a user's
// bookings while keeping the records themselves.  The plate snapshot is
// replaced and the vehicle reference cleared on every booking in one
// transaction; status and window stay untouched so occupancy history
// remains accurate.  Returns the number of bookings redacted.
func (r *BookingRepo) AnonymizeUserBookings(userID string) (int, error) {
	count := 0
	err := r.Store.Update(func(tx *store.Tx) error {
		now := r.Clock.Now()
		return tx.ForEachPrefix(store.BucketBookingsByUser, userID+":", func(_ string, id []byte) error {
			var b model.Booking
			if err := tx.Get(store.BucketBookings, string(id), &b); err != nil {
				return err
			}
			if b.LicensePlate == model.RedactedPlate && b.VehicleID == "" {
				return nil
			}
			if b.LicensePlate != "" {
				b.LicensePlate = model.RedactedPlate
			}
			b.VehicleID = ""
			b.UpdatedAt = now
			if err := tx.Put(store.BucketBookings, b.ID, &b); err != nil {
				return err
			}
			count++
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// overlappingBooking scans the slot's bookings for a non-terminal entry
// whose window intersects w.
func overlappingBooking(tx *store.Tx, slotID string, w model.Window) (bool, error) {
	conflict := false
	err := tx.ForEachPrefix(store.BucketBookingsBySlot, slotID+":", func(_ string, id []byte) error {
		var b model.Booking
		if err := tx.Get(store.BucketBookings, string(id), &b); err != nil {
			return err
		}
		if !b.Status.Terminal() && b.Window.Overlaps(w) {
			conflict = true
		}
		return nil
	})
	return conflict, err
}

// releaseSlot returns a slot to available unless another live booking still
// references it or an operator has set it to maintenance or disabled.
func releaseSlot(tx *store.Tx, slotID string, now time.Time) error {
	var slot model.Slot
	if err := tx.Get(store.BucketSlots, slotID, &slot); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	if slot.Status != model.SlotReserved && slot.Status != model.SlotOccupied {
		return nil
	}
	live, err := hasLiveBooking(tx, slotID)
	if err != nil {
		return err
	}
	if live {
		return nil
	}
	slot.Status = model.SlotAvailable
	slot.UpdatedAt = now
	return tx.Put(store.BucketSlots, slot.ID, &slot)
}
