package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/parking-slot-booking/internal/clock"
	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/store"
)

// VehicleRepo stores the vehicles users register for their bookings.
type VehicleRepo struct {
	Store *store.Store
	Clock clock.Clock
}

// NewVehicleRepo returns a VehicleRepo bound to the given store.
func NewVehicleRepo(s *store.Store, clk clock.Clock) *VehicleRepo {
	return &VehicleRepo{Store: s, Clock: clk}
}

// Add registers a vehicle for a user.
func (r *VehicleRepo) Add(userID, plate, maker, mdl, color string) (*model.Vehicle, error) {
	v := &model.Vehicle{
		ID:           uuid.NewString(),
		UserID:       userID,
		LicensePlate: strings.ToUpper(strings.TrimSpace(plate)),
		Make:         maker,
		Model:        mdl,
		Color:        color,
		CreatedAt:    r.Clock.Now(),
	}
	err := r.Store.Update(func(tx *store.Tx) error {
		return tx.Put(store.BucketVehicles, v.ID, v)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetByID loads a vehicle, visible to its owner and to admins.
func (r *VehicleRepo) GetByID(id, actorID string, actorRole model.Role) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.Get(store.BucketVehicles, id, &v)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	if v.UserID != actorID && !actorRole.IsAdmin() {
		return nil, ErrForbidden
	}
	return &v, nil
}

// ListByUser returns the user's vehicles.
func (r *VehicleRepo) ListByUser(userID string) ([]model.Vehicle, error) {
	vehicles := make([]model.Vehicle, 0)
	err := r.Store.View(func(tx *store.Tx) error {
		return tx.ForEach(store.BucketVehicles, func(_ string, plain []byte) error {
			var v model.Vehicle
			if err := unmarshalRecord(plain, &v); err != nil {
				return err
			}
			if v.UserID == userID {
				vehicles = append(vehicles, v)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Delete removes a vehicle.  Only the owner or an admin may delete it;
// bookings keep their own plate snapshot and are unaffected.
func (r *VehicleRepo) Delete(id, actorID string, actorRole model.Role) error {
	err := r.Store.Update(func(tx *store.Tx) error {
		var v model.Vehicle
		if err := tx.Get(store.BucketVehicles, id, &v); err != nil {
			return err
		}
		if v.UserID != actorID && !actorRole.IsAdmin() {
			return ErrForbidden
		}
		return tx.Delete(store.BucketVehicles, id)
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return ErrVehicleNotFound
	}
	return err
}

// DeleteAllForUser removes every vehicle of a user, part of account
// erasure.  Returns the number of vehicles removed.
func (r *VehicleRepo) DeleteAllForUser(userID string) (int, error) {
	count := 0
	err := r.Store.Update(func(tx *store.Tx) error {
		ids := make([]string, 0)
		err := tx.ForEach(store.BucketVehicles, func(key string, plain []byte) error {
			var v model.Vehicle
			if err := unmarshalRecord(plain, &v); err != nil {
				return err
			}
			if v.UserID == userID {
				ids = append(ids, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Delete(store.BucketVehicles, id); err != nil {
				return err
			}
		}
		count = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
