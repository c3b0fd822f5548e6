package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
)

// actorID returns the authenticated user ID placed in the context by the
// JWT middleware, or "" for unauthenticated requests.
func actorID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok {
		return s
	}
	return ""
}

// actorRole returns the role snapshot from the access token.
func actorRole(c echo.Context) model.Role {
	if s, ok := c.Get("role").(string); ok {
		return model.Role(s)
	}
	return ""
}

// domainError maps repository sentinel errors to HTTP responses so every
// handler reports the same status for the same failure.  Unrecognized
// errors become a generic 500 without leaking internals.
func domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable"})
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	case errors.Is(err, repository.ErrInvalidStatus):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
	case errors.Is(err, repository.ErrInvalidWindow):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking window"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrLotNotFound),
		errors.Is(err, repository.ErrSlotNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrVehicleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrUsernameExists),
		errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSessionExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
	case errors.Is(err, repository.ErrSessionInvalid):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
