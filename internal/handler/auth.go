package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/autonow/autonow-backend/internal/auth"
	"github.com/autonow/autonow-backend/internal/middleware"
	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/repository"
)

// AuthHandler bundles the passenger-facing auth endpoints.
type AuthHandler struct {
	Auth *auth.Service
}

func NewAuthHandler(a *auth.Service) *AuthHandler { return &AuthHandler{Auth: a} }

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type resetRequestReq struct {
	Email string `json:"email"`
}

type resetConfirmReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type sessionResp struct {
	User    model.PublicUser `json:"user"`
	Token   string           `json:"token"`
	Expires time.Time        `json:"expires"`
}

// Register creates a passenger account and logs it straight in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Phone) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, phone and password required"})
	}

	ctx := c.Request().Context()
	u, err := h.Auth.RegisterUser(ctx, req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrPhoneExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	sess, err := h.Auth.CreateSession(ctx, u, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusCreated, sessionResp{User: u.Public(), Token: sess.Token, Expires: sess.ExpiresAt})
}

// Login authenticates by email or phone. All denials share one response
// body so the caller cannot tell which part of the credential failed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" || (req.Email == "" && req.Phone == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email or phone, and password required"})
	}

	ctx := c.Request().Context()
	var u *model.User
	if req.Email != "" {
		u = h.Auth.AuthenticateUser(ctx, req.Email, req.Password)
	} else {
		u = h.Auth.AuthenticateUserByPhone(ctx, req.Phone, req.Password)
	}
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	sess, err := h.Auth.CreateSession(ctx, *u, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusOK, sessionResp{User: u.Public(), Token: sess.Token, Expires: sess.ExpiresAt})
}

// Logout invalidates the presented session.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, _ := c.Get(middleware.CtxSessionToken).(string)
	if _, err := h.Auth.Logout(c.Request().Context(), token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll invalidates every session of the authenticated user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	u, _ := c.Get(middleware.CtxUser).(model.User)
	if _, err := h.Auth.LogoutAll(c.Request().Context(), u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, _ := c.Get(middleware.CtxUser).(model.User)
	return c.JSON(http.StatusOK, u.Public())
}

// RequestPasswordReset issues a reset token for the account behind the
// email. The demo has no mail delivery, so the token comes back in the
// response; an unknown email gets the same 200 to avoid account probing.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx := c.Request().Context()
	u, err := h.Auth.Users.ByEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
	reset, err := h.Auth.CreatePasswordReset(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"token":   reset.Token,
		"expires": reset.ExpiresAt,
	})
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
// Expired, used and unknown tokens all answer the same way.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and password required"})
	}

	if err := h.Auth.UsePasswordReset(c.Request().Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
