package handler

import (
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // expiry fields in responses

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/parking-slot-booking/internal/config"     // app configuration
	"github.com/iliyamo/parking-slot-booking/internal/model"      // domain models
	"github.com/iliyamo/parking-slot-booking/internal/repository" // store-backed repositories
	"github.com/iliyamo/parking-slot-booking/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
	Bookings *repository.BookingRepo
	Vehicles *repository.VehicleRepo
	Audit    *repository.AuditRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *repository.SessionRepo, b *repository.BookingRepo, v *repository.VehicleRepo, a *repository.AuditRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Bookings: b, Vehicles: v, Audit: a}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type sessionReq struct {
	SessionToken string `json:"session_token"`
}
type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Session tokenPart `json:"session"`
}

// issuePair creates an opaque session plus a short-lived access token for
// the user and assembles the response body shared by register and login.
func (h *AuthHandler) issuePair(u *model.User) (*authResp, error) {
	raw, sess, err := h.Sessions.Issue(u)
	if err != nil {
		return nil, err
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(sess.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	return &authResp{
		User:    userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Session: tokenPart{Token: raw, Expires: sess.ExpiresAt}, // raw back to client exactly once
	}, nil
}

// Register: create user and return tokens immediately.  Self-registration
// always yields the user role; elevated roles are granted by an admin.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too short"})
	}

	u, err := h.Users.Create(req.Username, req.Email, req.Name, req.Password, model.RoleUser, h.Cfg.BcryptCost)
	if err != nil {
		return domainError(c, err)
	}

	resp, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login: verify credentials and return a new session/access pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	u, err := h.Users.GetByUsername(req.Username)
	if err != nil || !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Audit.Record(model.AuditLoginFailed, "", "user", "", echo.Map{"username": req.Username})
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	_ = h.Users.TouchLogin(u.ID)
	h.Audit.Record(model.AuditLoginSuccess, u.ID, "user", u.ID, nil)
	return c.JSON(http.StatusOK, resp)
}

// Refresh: validate the opaque session and mint a fresh access token.  The
// session itself is not rotated; the role claim comes from the session's
// snapshot, not from the current user record.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.SessionToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_token required"})
	}

	sess, err := h.Sessions.Validate(strings.TrimSpace(req.SessionToken))
	if err != nil {
		return domainError(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, sess.UserID, string(sess.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout: revoke one session by its token, or every session of the
// authenticated user when no token is supplied.  Revocation of an unknown
// token still succeeds so logout is idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req sessionReq
	_ = c.Bind(&req)
	token := strings.TrimSpace(req.SessionToken)

	uid := actorID(c)
	if token == "" && uid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide session_token or Authorization header"})
	}

	if token != "" {
		if err := h.Sessions.Revoke(token); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	} else {
		if _, err := h.Sessions.RevokeAllForUser(uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	}
	if uid != "" {
		h.Audit.Record(model.AuditLogout, uid, "user", uid, nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint returning the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.Users.GetByID(actorID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"last_login": u.LastLogin,
	})
}

// ChangePassword: verify the old password, store the new hash and revoke
// every session so stolen tokens die with the old credential.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too short"})
	}

	uid := actorID(c)
	u, err := h.Users.GetByID(uid)
	if err != nil {
		return domainError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err := h.Users.ChangePassword(uid, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return domainError(c, err)
	}
	if _, err := h.Sessions.RevokeAllForUser(uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	h.Audit.Record(model.AuditPasswordChanged, uid, "user", uid, nil)
	return c.NoContent(http.StatusNoContent)
}

// EraseMe implements the right-to-erasure flow for the calling user: the
// plate data on their bookings is redacted, their vehicles deleted, all
// sessions revoked and the account record anonymized.  Each step is
// idempotent, so the endpoint can be retried after a partial failure.
func (h *AuthHandler) EraseMe(c echo.Context) error {
	uid := actorID(c)
	redacted, err := h.Bookings.AnonymizeUserBookings(uid)
	if err != nil {
		return domainError(c, err)
	}
	if _, err := h.Vehicles.DeleteAllForUser(uid); err != nil {
		return domainError(c, err)
	}
	if _, err := h.Sessions.RevokeAllForUser(uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	if err := h.Users.Erase(uid); err != nil {
		return domainError(c, err)
	}
	if redacted > 0 {
		h.Audit.Record(model.AuditBookingsAnonymized, uid, "user", uid, echo.Map{"bookings_redacted": redacted})
	}
	h.Audit.Record(model.AuditUserErased, uid, "user", uid, nil)
	return c.NoContent(http.StatusNoContent)
}
