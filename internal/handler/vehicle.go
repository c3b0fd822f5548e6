package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
)

// VehicleHandler manages the caller's registered vehicles.
type VehicleHandler struct {
	Vehicles *repository.VehicleRepo
	Audit    *repository.AuditRepo
}

func NewVehicleHandler(v *repository.VehicleRepo, a *repository.AuditRepo) *VehicleHandler {
	return &VehicleHandler{Vehicles: v, Audit: a}
}

type addVehicleReq struct {
	LicensePlate string `json:"license_plate"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}

// Add registers a vehicle for the caller.
func (h *VehicleHandler) Add(c echo.Context) error {
	var req addVehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.LicensePlate) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "license_plate required"})
	}
	uid := actorID(c)
	v, err := h.Vehicles.Add(uid, req.LicensePlate, req.Make, req.Model, req.Color)
	if err != nil {
		return domainError(c, err)
	}
	h.Audit.Record(model.AuditVehicleAdded, uid, "vehicle", v.ID, nil)
	return c.JSON(http.StatusCreated, v)
}

// List returns the caller's vehicles.
func (h *VehicleHandler) List(c echo.Context) error {
	vehicles, err := h.Vehicles.ListByUser(actorID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"vehicles": vehicles})
}

// Delete removes one of the caller's vehicles.  Booking history keeps its
// own plate snapshot and is unaffected.
func (h *VehicleHandler) Delete(c echo.Context) error {
	uid := actorID(c)
	id := c.Param("id")
	if err := h.Vehicles.Delete(id, uid, actorRole(c)); err != nil {
		return domainError(c, err)
	}
	h.Audit.Record(model.AuditVehicleRemoved, uid, "vehicle", id, nil)
	return c.NoContent(http.StatusNoContent)
}
