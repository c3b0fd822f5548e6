package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/queue"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
	queue_publisher "github.com/iliyamo/parking-slot-booking/internal/service"
)

// BookingHandler serves the booking lifecycle endpoints.  Every mutation is
// delegated to the repository, which runs it in a single store transaction;
// the handler only translates HTTP to domain calls, records audit entries
// and publishes broker events after the commit.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Audit    *repository.AuditRepo
}

func NewBookingHandler(b *repository.BookingRepo, a *repository.AuditRepo) *BookingHandler {
	return &BookingHandler{Bookings: b, Audit: a}
}

type createBookingReq struct {
	SlotID      string    `json:"slot_id"`
	VehicleID   string    `json:"vehicle_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AmountCents uint32    `json:"amount_cents"`
	Currency    string    `json:"currency"`
}

// Create books a slot for the caller.  A conflicting booking or an
// unavailable slot yields 409 so the client can pick another slot or time.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SlotID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id required"})
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	uid := actorID(c)
	b, err := h.Bookings.Create(repository.CreateParams{
		UserID:      uid,
		SlotID:      req.SlotID,
		VehicleID:   req.VehicleID,
		Window:      model.Window{Start: req.Start, End: req.End},
		AmountCents: req.AmountCents,
		Currency:    currency,
	})
	if err != nil {
		return domainError(c, err)
	}

	h.Audit.Record(model.AuditBookingCreated, uid, "booking", b.ID, echo.Map{
		"slot_id": b.SlotID,
		"start":   b.Window.Start,
		"end":     b.Window.End,
	})
	h.publishEvent(queue.EventBookingCreated, b)
	return c.JSON(http.StatusCreated, b)
}

// Cancel cancels a booking owned by the caller (admins may cancel any).
// Cancelling an already terminal booking reports 409.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid := actorID(c)
	b, err := h.Bookings.Cancel(c.Param("id"), uid, actorRole(c))
	if err != nil {
		return domainError(c, err)
	}
	h.Audit.Record(model.AuditBookingCancelled, uid, "booking", b.ID, nil)
	h.publishEvent(queue.EventBookingCancelled, b)
	return c.JSON(http.StatusOK, b)
}

// CheckIn transitions a confirmed booking to active when the driver
// arrives.
func (h *BookingHandler) CheckIn(c echo.Context) error {
	uid := actorID(c)
	b, err := h.Bookings.CheckIn(c.Param("id"), uid, actorRole(c))
	if err != nil {
		return domainError(c, err)
	}
	h.Audit.Record(model.AuditBookingCheckedIn, uid, "booking", b.ID, nil)
	return c.JSON(http.StatusOK, b)
}

// CheckOut completes an active booking and frees the slot.
func (h *BookingHandler) CheckOut(c echo.Context) error {
	uid := actorID(c)
	b, err := h.Bookings.CheckOut(c.Param("id"), uid, actorRole(c))
	if err != nil {
		return domainError(c, err)
	}
	h.Audit.Record(model.AuditBookingCheckedOut, uid, "booking", b.ID, nil)
	return c.JSON(http.StatusOK, b)
}

// Get returns a single booking, owner or admin only.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.Bookings.GetByID(c.Param("id"), actorID(c), actorRole(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ListMine returns the caller's bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	bookings, err := h.Bookings.ListByUser(actorID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// publishEvent ships a booking event to the broker in the background.  The
// booking is already committed; a publish failure is logged by the
// publisher and otherwise ignored.
func (h *BookingHandler) publishEvent(eventType string, b *model.Booking) {
	ev := queue.BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		UserID:      b.UserID,
		LotID:       b.LotID,
		SlotID:      b.SlotID,
		WindowStart: b.Window.Start.UTC().Format(time.RFC3339),
		WindowEnd:   b.Window.End.UTC().Format(time.RFC3339),
		AmountCents: b.AmountCents,
		Currency:    b.Currency,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishBookingEvent(ctx, ev)
	}()
}
