package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/autonow/autonow-backend/internal/auth"
	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/repository"
	"github.com/autonow/autonow-backend/internal/store"
)

// AdminHandler serves the admin panel. User and driver listings return
// the raw records, originalPassword included. The panel displays it, and
// hiding it here would only pretend the field is not in storage.
type AdminHandler struct {
	Auth  *auth.Service
	Store *store.Store
}

func NewAdminHandler(a *auth.Service, s *store.Store) *AdminHandler {
	return &AdminHandler{Auth: a, Store: s}
}

type activeReq struct {
	IsActive bool `json:"isActive"`
}

type verifyReq struct {
	IsVerified bool `json:"isVerified"`
}

// Users lists every user record.
func (h *AdminHandler) Users(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Auth.Users.All(c.Request().Context()))
}

// Drivers lists every driver record.
func (h *AdminHandler) Drivers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Auth.Drivers.All(c.Request().Context()))
}

// Sessions lists every session record, zombies included; useful when
// debugging why a login "still works".
func (h *AdminHandler) Sessions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Auth.Sessions.All(c.Request().Context()))
}

// SetUserActive activates or deactivates an account. Deactivation also
// kills the user's sessions so the lockout is immediate.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	var req activeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	u, err := h.Auth.Users.Update(ctx, c.Param("id"), model.UserPatch{IsActive: &req.IsActive})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if !req.IsActive {
		if _, err := h.Auth.LogoutAll(ctx, u.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session invalidation failed"})
		}
	}
	return c.JSON(http.StatusOK, u)
}

// VerifyDriver flips a driver's verification flag; only verified drivers
// are eligible for matching.
func (h *AdminHandler) VerifyDriver(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	d, err := h.Auth.Drivers.Update(c.Request().Context(), c.Param("id"), model.DriverPatch{IsVerified: &req.IsVerified})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "driver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, d)
}

// DeleteUser removes an account record outright.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	removed, err := h.Auth.Users.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Mirror returns the cached identity snapshots the client UIs restore
// from on load.
func (h *AdminHandler) Mirror(c echo.Context) error {
	ctx := c.Request().Context()
	out := echo.Map{}
	for name, key := range map[string]string{
		"user":   store.KeyAuthUser,
		"driver": store.KeyAuthDriver,
		"admin":  store.KeyAdminUser,
	} {
		raw, found, err := h.Store.ReadRaw(ctx, key)
		if err != nil || !found {
			out[name] = nil
			continue
		}
		out[name] = json.RawMessage(raw)
	}
	return c.JSON(http.StatusOK, out)
}

// Cleanup triggers an expiry sweep on demand.
func (h *AdminHandler) Cleanup(c echo.Context) error {
	removed, err := h.Auth.CleanupExpiredData(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cleanup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}
