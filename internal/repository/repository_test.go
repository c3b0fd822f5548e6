package repository_test

import (
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/parking-slot-booking/internal/clock"
	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
	"github.com/iliyamo/parking-slot-booking/internal/store"
)

// env wires every repository against one temporary store and a manual
// clock pinned to a fixed instant.
type env struct {
	clk      *clock.Manual
	store    *store.Store
	users    *repository.UserRepo
	lots     *repository.LotRepo
	bookings *repository.BookingRepo
	vehicles *repository.VehicleRepo
	sessions *repository.SessionRepo
	audit    *repository.AuditRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := store.Open(store.Options{
		Path:            filepath.Join(t.TempDir(), "core.db"),
		Passphrase:      "test passphrase",
		CreateIfMissing: true,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clk := clock.NewManual(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	return &env{
		clk:      clk,
		store:    s,
		users:    repository.NewUserRepo(s, clk),
		lots:     repository.NewLotRepo(s, clk),
		bookings: repository.NewBookingRepo(s, clk),
		vehicles: repository.NewVehicleRepo(s, clk),
		sessions: repository.NewSessionRepo(s, clk, 24*time.Hour),
		audit:    repository.NewAuditRepo(s, clk),
	}
}

func (e *env) user(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()
	u, err := e.users.Create(username, username+"@example.com", username, "password123", role, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (e *env) slot(t *testing.T) *model.Slot {
	t.Helper()
	lot, err := e.lots.CreateLot("Central Garage", "1 Main St", []model.Floor{{Name: "Ground", FloorNumber: 0}})
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	s, err := e.lots.AddSlot(lot.ID, lot.Floors[0].ID, 1, model.SlotTypeStandard)
	if err != nil {
		t.Fatalf("add slot: %v", err)
	}
	return s
}

// window returns a booking window d1 after the current manual time lasting d2.
func (e *env) window(after, length time.Duration) model.Window {
	start := e.clk.Now().Add(after)
	return model.Window{Start: start, End: start.Add(length)}
}
