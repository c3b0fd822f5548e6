package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/parking-slot-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/parking-slot-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/parking-slot-booking/internal/model"
)

// RegisterHealth exposes the health check.  Load balancers and monitoring
// probe this endpoint without authentication.
func RegisterHealth(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers all authentication-related routes.  Operations
// that establish or exchange credentials live under /v1/auth and need no
// bearer token; account self-service endpoints live under /v1 behind
// JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh exchanges an opaque session token for a fresh access token.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a session_token in the body and needs no JWT, so a
	// client with an expired access token can still end its session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/me/password", a.ChangePassword)
	auth.DELETE("/me", a.EraseMe)
	// Authenticated logout without a body revokes every session of the
	// caller across devices.
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated browse endpoints: lots,
// their floors and the live slot availability map.
func RegisterPublic(e *echo.Echo, l *handler.LotHandler) {
	e.GET("/v1/lots", l.ListLots)
	e.GET("/v1/lots/:id", l.GetLot)
	e.GET("/v1/lots/:id/slots", l.ListSlots)
	e.GET("/v1/slots/:id", l.GetSlot)
}

// RegisterBookings registers the booking lifecycle and vehicle endpoints.
// All routes require a valid access token; any known role may book.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, v *handler.VehicleHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin),
	)
	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.ListMine)
	g.GET("/bookings/:id", b.Get)
	g.DELETE("/bookings/:id", b.Cancel)
	g.POST("/bookings/:id/checkin", b.CheckIn)
	g.POST("/bookings/:id/checkout", b.CheckOut)

	g.POST("/vehicles", v.Add)
	g.GET("/vehicles", v.List)
	g.DELETE("/vehicles/:id", v.Delete)
}

// RegisterAdmin registers lot management, user administration and the
// audit trail under /v1/admin.  Routes require the admin or superadmin
// role; role changes are further restricted to superadmins inside the
// handler.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, l *handler.LotHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin),
	)
	g.POST("/lots", l.CreateLot)
	g.POST("/lots/:id/slots", l.AddSlot)
	g.PATCH("/slots/:slotID/status", l.SetSlotStatus)

	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id/role", a.SetRole)
	g.DELETE("/users/:id", a.EraseUser)

	g.GET("/audit", a.ListAudit)
}
