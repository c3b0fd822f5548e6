package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project

	"github.com/iliyamo/parking-slot-booking/internal/store"
)

// HealthHandler reports liveness for load balancers and monitoring.
type HealthHandler struct {
	Store *store.Store
}

// Health returns 200 with the store's encryption state.  A request that
// reaches this handler proves the process is up and the store file was
// opened successfully at startup.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"encrypted": h.Store.Encrypted(),
	})
}
