package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
)

// LotHandler serves lot and slot browsing for everyone plus the admin-only
// management endpoints.
type LotHandler struct {
	Lots  *repository.LotRepo
	Audit *repository.AuditRepo
}

func NewLotHandler(l *repository.LotRepo, a *repository.AuditRepo) *LotHandler {
	return &LotHandler{Lots: l, Audit: a}
}

type createLotReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Floors  []struct {
		Name        string `json:"name"`
		FloorNumber int    `json:"floor_number"`
	} `json:"floors"`
}

type addSlotReq struct {
	FloorID    string `json:"floor_id"`
	SlotNumber int    `json:"slot_number"`
	Type       string `json:"type"`
}

type slotStatusReq struct {
	Status string `json:"status"`
}

// ListLots returns every lot; open to unauthenticated browsing.
func (h *LotHandler) ListLots(c echo.Context) error {
	lots, err := h.Lots.ListLots()
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"lots": lots})
}

// GetLot returns one lot with its floors.
func (h *LotHandler) GetLot(c echo.Context) error {
	lot, err := h.Lots.GetLot(c.Param("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// GetSlot returns a single slot with its current status.
func (h *LotHandler) GetSlot(c echo.Context) error {
	slot, err := h.Lots.GetSlot(c.Param("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, slot)
}

// ListSlots returns the slots of a lot with their current status, which is
// what a client renders as the availability map.
func (h *LotHandler) ListSlots(c echo.Context) error {
	slots, err := h.Lots.ListSlotsByLot(c.Param("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// CreateLot creates a lot with its floors (admin only).
func (h *LotHandler) CreateLot(c echo.Context) error {
	var req createLotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	floors := make([]model.Floor, len(req.Floors))
	for i, f := range req.Floors {
		floors[i] = model.Floor{Name: f.Name, FloorNumber: f.FloorNumber}
	}
	lot, err := h.Lots.CreateLot(req.Name, req.Address, floors)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, lot)
}

// AddSlot adds a slot to a lot (admin only).
func (h *LotHandler) AddSlot(c echo.Context) error {
	var req addSlotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	typ := model.SlotType(req.Type)
	if typ == "" {
		typ = model.SlotTypeStandard
	}
	slot, err := h.Lots.AddSlot(c.Param("id"), req.FloorID, req.SlotNumber, typ)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, slot)
}

// SetSlotStatus is the operator override for a slot's availability state
// (admin only), used for maintenance and decommissioning.
func (h *LotHandler) SetSlotStatus(c echo.Context) error {
	var req slotStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.SlotStatus(req.Status)
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	slot, err := h.Lots.SetSlotStatus(c.Param("slotID"), status)
	if err != nil {
		return domainError(c, err)
	}
	h.Audit.Record(model.AuditSlotStatusChanged, actorID(c), "slot", slot.ID, echo.Map{"status": slot.Status})
	return c.JSON(http.StatusOK, slot)
}
