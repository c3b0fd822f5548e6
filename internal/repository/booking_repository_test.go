package repository_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
)

func TestCreateBookingReservesSlot(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)
	s := e.slot(t)

	b, err := e.bookings.Create(repository.CreateParams{
		UserID: u.ID,
		SlotID: s.ID,
		Window: e.window(time.Hour, 2*time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if b.Status != model.BookingConfirmed {
		t.Fatalf("expected confirmed, got %s", b.Status)
	}
	if b.LotID != s.LotID {
		t.Fatalf("booking lot %s, want %s", b.LotID, s.LotID)
	}

	got, err := e.lots.GetSlot(s.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if got.Status != model.SlotReserved {
		t.Fatalf("slot status %s, want reserved", got.Status)
	}
}

func TestCreateBookingInvalidWindow(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)
	s := e.slot(t)

	w := e.window(time.Hour, 2*time.Hour)
	w.Start, w.End = w.End, w.Start
	if _, err := e.bookings.Create(repository.CreateParams{UserID: u.ID, SlotID: s.ID, Window: w}); !errors.Is(err, repository.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestCreateBookingUnknownSlot(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)

	_, err := e.bookings.Create(repository.CreateParams{
		UserID: u.ID,
		SlotID: "no-such-slot",
		Window: e.window(time.Hour, time.Hour),
	})
	if !errors.Is(err, repository.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestNoDoubleBookingUnderConcurrency(t *testing.T) {
	e := newEnv(t)
	s := e.slot(t)
	w := e.window(time.Hour, 2*time.Hour)

	const workers = 16
	users := make([]*model.User, workers)
	for i := range users {
		users[i] = e.user(t, "driver"+string(rune('a'+i)), model.RoleUser)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.bookings.Create(repository.CreateParams{
				UserID: users[i].ID,
				SlotID: s.ID,
				Window: w,
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, repository.ErrSlotUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one winner, got %d", won)
	}
}

func TestCancelReleasesSlotAndIsIdempotent(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)
	s := e.slot(t)

	b, err := e.bookings.Create(repository.CreateParams{UserID: u.ID, SlotID: s.ID, Window: e.window(time.Hour, time.Hour)})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	cancelled, err := e.bookings.Cancel(b.ID, u.ID, u.Role)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.BookingCancelled {
		t.Fatalf("status %s, want cancelled", cancelled.Status)
	}
	slot, err := e.lots.GetSlot(s.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.Status != model.SlotAvailable {
		t.Fatalf("slot status %s, want available after cancel", slot.Status)
	}

	if _, err := e.bookings.Cancel(b.ID, u.ID, u.Role); !errors.Is(err, repository.ErrAlreadyCancelled) {
		t.Fatalf("second cancel: expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestCancelAuthorization(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", model.RoleUser)
	stranger := e.user(t, "stranger", model.RoleUser)
	admin := e.user(t, "admin", model.RoleAdmin)
	s := e.slot(t)

	b, err := e.bookings.Create(repository.CreateParams{UserID: owner.ID, SlotID: s.ID, Window: e.window(time.Hour, time.Hour)})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	if _, err := e.bookings.Cancel(b.ID, stranger.ID, stranger.Role); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("stranger cancel: expected ErrForbidden, got %v", err)
	}
	got, err := e.bookings.GetByID(b.ID, owner.ID, owner.Role)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != model.BookingConfirmed {
		t.Fatalf("booking must be untouched after forbidden cancel, got %s", got.Status)
	}

	if _, err := e.bookings.Cancel(b.ID, admin.ID, admin.Role); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestBookConflictCancelRetry(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice", model.RoleUser)
	bob := e.user(t, "bob", model.RoleUser)
	s := e.slot(t)
	w := e.window(time.Hour, 2*time.Hour)

	first, err := e.bookings.Create(repository.CreateParams{UserID: alice.ID, SlotID: s.ID, Window: w})
	if err != nil {
		t.Fatalf("alice books: %v", err)
	}

	if _, err := e.bookings.Create(repository.CreateParams{UserID: bob.ID, SlotID: s.ID, Window: w}); !errors.Is(err, repository.ErrSlotUnavailable) {
		t.Fatalf("bob conflicting booking: expected ErrSlotUnavailable, got %v", err)
	}

	if _, err := e.bookings.Cancel(first.ID, alice.ID, alice.Role); err != nil {
		t.Fatalf("alice cancels: %v", err)
	}

	second, err := e.bookings.Create(repository.CreateParams{UserID: bob.ID, SlotID: s.ID, Window: w})
	if err != nil {
		t.Fatalf("bob retries: %v", err)
	}
	if second.Status != model.BookingConfirmed {
		t.Fatalf("retry status %s, want confirmed", second.Status)
	}
}

func TestCheckInCheckOutLifecycle(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)
	s := e.slot(t)

	b, err := e.bookings.Create(repository.CreateParams{UserID: u.ID, SlotID: s.ID, Window: e.window(0, 2*time.Hour)})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	// Check-out before check-in is not a legal transition.
	if _, err := e.bookings.CheckOut(b.ID, u.ID, u.Role); !errors.Is(err, repository.ErrInvalidStatus) {
		t.Fatalf("checkout before checkin: expected ErrInvalidStatus, got %v", err)
	}

	active, err := e.bookings.CheckIn(b.ID, u.ID, u.Role)
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if active.Status != model.BookingActive {
		t.Fatalf("status %s, want active", active.Status)
	}
	slot, _ := e.lots.GetSlot(s.ID)
	if slot.Status != model.SlotOccupied {
		t.Fatalf("slot status %s, want occupied", slot.Status)
	}

	if _, err := e.bookings.CheckIn(b.ID, u.ID, u.Role); !errors.Is(err, repository.ErrInvalidStatus) {
		t.Fatalf("double checkin: expected ErrInvalidStatus, got %v", err)
	}

	done, err := e.bookings.CheckOut(b.ID, u.ID, u.Role)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if done.Status != model.BookingCompleted {
		t.Fatalf("status %s, want completed", done.Status)
	}
	slot, _ = e.lots.GetSlot(s.ID)
	if slot.Status != model.SlotAvailable {
		t.Fatalf("slot status %s, want available after checkout", slot.Status)
	}
}

func TestAnonymizeUserBookings(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice", model.RoleUser)
	s := e.slot(t)
	v, err := e.vehicles.Add(u.ID, "AB-123-CD", "", "", "")
	if err != nil {
		t.Fatalf("add vehicle: %v", err)
	}

	b, err := e.bookings.Create(repository.CreateParams{
		UserID:    u.ID,
		SlotID:    s.ID,
		VehicleID: v.ID,
		Window:    e.window(time.Hour, time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if b.LicensePlate != "AB-123-CD" {
		t.Fatalf("plate snapshot %q", b.LicensePlate)
	}

	n, err := e.bookings.AnonymizeUserBookings(u.ID)
	if err != nil {
		t.Fatalf("anonymize: %v", err)
	}
	if n != 1 {
		t.Fatalf("anonymized %d bookings, want 1", n)
	}

	got, err := e.bookings.GetByID(b.ID, u.ID, u.Role)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.LicensePlate != model.RedactedPlate {
		t.Fatalf("plate %q, want %q", got.LicensePlate, model.RedactedPlate)
	}
	if got.VehicleID != "" {
		t.Fatalf("vehicle reference not cleared: %q", got.VehicleID)
	}
	if got.Status != model.BookingConfirmed || !got.Window.Valid() {
		t.Fatalf("status and window must survive anonymization, got %+v", got)
	}

	// Running it again finds nothing left to redact.
	n, err = e.bookings.AnonymizeUserBookings(u.ID)
	if err != nil {
		t.Fatalf("second anonymize: %v", err)
	}
	if n != 0 {
		t.Fatalf("second anonymize touched %d bookings, want 0", n)
	}
}

func TestBookingVisibility(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", model.RoleUser)
	stranger := e.user(t, "stranger", model.RoleUser)
	s := e.slot(t)

	b, err := e.bookings.Create(repository.CreateParams{UserID: owner.ID, SlotID: s.ID, Window: e.window(time.Hour, time.Hour)})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	if _, err := e.bookings.GetByID(b.ID, stranger.ID, stranger.Role); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	mine, err := e.bookings.ListByUser(owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != b.ID {
		t.Fatalf("list returned %+v", mine)
	}
}
