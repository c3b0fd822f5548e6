package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
)

// AdminHandler serves user administration and the audit trail.  All routes
// are behind RequireRole(admin, superadmin); role changes additionally
// require superadmin, checked here.
type AdminHandler struct {
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
	Bookings *repository.BookingRepo
	Vehicles *repository.VehicleRepo
	Audit    *repository.AuditRepo
}

func NewAdminHandler(u *repository.UserRepo, s *repository.SessionRepo, b *repository.BookingRepo, v *repository.VehicleRepo, a *repository.AuditRepo) *AdminHandler {
	return &AdminHandler{Users: u, Sessions: s, Bookings: b, Vehicles: v, Audit: a}
}

type setRoleReq struct {
	Role string `json:"role"`
}

// ListUsers returns every account without password hashes.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.List()
	if err != nil {
		return domainError(c, err)
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, echo.Map{
			"id":         u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"name":       u.Name,
			"role":       u.Role,
			"is_active":  u.IsActive,
			"created_at": u.CreatedAt,
			"last_login": u.LastLogin,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// SetRole changes a user's role; only super admins may do this.  The
// target's existing sessions keep their old role snapshot, so the change
// takes full effect once they log in again or their sessions are revoked.
func (h *AdminHandler) SetRole(c echo.Context) error {
	if !actorRole(c).CanChangeRoles() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req setRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	id := c.Param("id")
	if err := h.Users.SetRole(id, role); err != nil {
		return domainError(c, err)
	}
	h.Audit.Record(model.AuditRoleChanged, actorID(c), "user", id, echo.Map{"role": role})
	return c.NoContent(http.StatusNoContent)
}

// EraseUser runs the right-to-erasure flow on behalf of a user, for
// requests arriving through a support channel instead of the API.
func (h *AdminHandler) EraseUser(c echo.Context) error {
	id := c.Param("id")
	redacted, err := h.Bookings.AnonymizeUserBookings(id)
	if err != nil {
		return domainError(c, err)
	}
	if _, err := h.Vehicles.DeleteAllForUser(id); err != nil {
		return domainError(c, err)
	}
	if _, err := h.Sessions.RevokeAllForUser(id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	if err := h.Users.Erase(id); err != nil {
		return domainError(c, err)
	}
	if redacted > 0 {
		h.Audit.Record(model.AuditBookingsAnonymized, actorID(c), "user", id, echo.Map{"bookings_redacted": redacted})
	}
	h.Audit.Record(model.AuditUserErased, actorID(c), "user", id, nil)
	return c.NoContent(http.StatusNoContent)
}

// ListAudit returns audit entries in a time range.  Query parameters
// `from` and `to` take RFC 3339 timestamps; both are optional.
func (h *AdminHandler) ListAudit(c echo.Context) error {
	var from, to time.Time
	var err error
	if s := c.QueryParam("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from"})
		}
	}
	if s := c.QueryParam("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to"})
		}
	}
	entries, err := h.Audit.List(from, to)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}
