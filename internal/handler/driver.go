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
	"github.com/autonow/autonow-backend/internal/service"
)

// DriverHandler serves the driver dashboard: registration, login,
// availability and the assigned-ride workflow.
type DriverHandler struct {
	Auth    *auth.Service
	Booking *service.Booking
}

func NewDriverHandler(a *auth.Service, b *service.Booking) *DriverHandler {
	return &DriverHandler{Auth: a, Booking: b}
}

type driverRegisterReq struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Password      string `json:"password"`
	VehicleNumber string `json:"vehicleNumber"`
	LicenseNumber string `json:"licenseNumber"`
}

type driverStatusReq struct {
	Status string `json:"status"`
}

type driverLocationReq struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type driverSessionResp struct {
	Driver  model.PublicDriver `json:"driver"`
	Token   string             `json:"token"`
	Expires time.Time          `json:"expires"`
}

// Register creates a driver account. The account stays unverified (and
// unmatchable) until an admin approves it.
func (h *DriverHandler) Register(c echo.Context) error {
	var req driverRegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Phone) == "" ||
		req.Password == "" || strings.TrimSpace(req.VehicleNumber) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, phone, password and vehicleNumber required"})
	}

	ctx := c.Request().Context()
	d, err := h.Auth.RegisterDriver(ctx, req.Name, req.Email, req.Phone, req.Password,
		req.VehicleNumber, req.LicenseNumber)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) ||
			errors.Is(err, repository.ErrPhoneExists) ||
			errors.Is(err, repository.ErrVehicleExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create driver failed"})
	}

	sess, err := h.Auth.CreateDriverSession(ctx, d, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusCreated, driverSessionResp{Driver: d.Public(), Token: sess.Token, Expires: sess.ExpiresAt})
}

// Login authenticates a driver by email or phone.
func (h *DriverHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" || (req.Email == "" && req.Phone == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email or phone, and password required"})
	}

	ctx := c.Request().Context()
	var d *model.Driver
	if req.Email != "" {
		d = h.Auth.AuthenticateDriver(ctx, req.Email, req.Password)
	} else {
		d = h.Auth.AuthenticateDriverByPhone(ctx, req.Phone, req.Password)
	}
	if d == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	sess, err := h.Auth.CreateDriverSession(ctx, *d, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusOK, driverSessionResp{Driver: d.Public(), Token: sess.Token, Expires: sess.ExpiresAt})
}

// Logout invalidates the presented driver session.
func (h *DriverHandler) Logout(c echo.Context) error {
	token, _ := c.Get(middleware.CtxSessionToken).(string)
	if _, err := h.Auth.LogoutDriver(c.Request().Context(), token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll invalidates every session of the authenticated driver.
func (h *DriverHandler) LogoutAll(c echo.Context) error {
	d, _ := c.Get(middleware.CtxDriver).(model.Driver)
	if _, err := h.Auth.LogoutAllDriver(c.Request().Context(), d.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated driver's profile.
func (h *DriverHandler) Me(c echo.Context) error {
	d, _ := c.Get(middleware.CtxDriver).(model.Driver)
	return c.JSON(http.StatusOK, d.Public())
}

// UpdateStatus toggles the driver between available, busy and offline.
func (h *DriverHandler) UpdateStatus(c echo.Context) error {
	d, _ := c.Get(middleware.CtxDriver).(model.Driver)
	var req driverStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Status {
	case model.DriverAvailable, model.DriverBusy, model.DriverOffline:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	updated, err := h.Auth.Drivers.Update(c.Request().Context(), d.ID, model.DriverPatch{Status: &req.Status})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, updated.Public())
}

// UpdateLocation stores the driver's reported position.
func (h *DriverHandler) UpdateLocation(c echo.Context) error {
	d, _ := c.Get(middleware.CtxDriver).(model.Driver)
	var req driverLocationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	loc := &model.Location{Lat: req.Lat, Lng: req.Lng, Address: req.Address}
	updated, err := h.Auth.Drivers.Update(c.Request().Context(), d.ID, model.DriverPatch{Location: loc})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, updated.Public())
}

// Rides lists the rides assigned to the authenticated driver.
func (h *DriverHandler) Rides(c echo.Context) error {
	d, _ := c.Get(middleware.CtxDriver).(model.Driver)
	return c.JSON(http.StatusOK, h.Booking.Rides.ByDriver(c.Request().Context(), d.ID))
}

// StartRide moves one of the driver's assigned rides into progress.
func (h *DriverHandler) StartRide(c echo.Context) error {
	d, _ := c.Get(middleware.CtxDriver).(model.Driver)
	ride, err := h.ownRide(c, d)
	if err != nil {
		return err
	}
	started, err := h.Booking.StartRide(c.Request().Context(), ride.ID)
	if err != nil {
		if errors.Is(err, service.ErrRideState) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ride is not assigned"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "start failed"})
	}
	return c.JSON(http.StatusOK, started)
}

// CompleteRide finishes one of the driver's rides.
func (h *DriverHandler) CompleteRide(c echo.Context) error {
	d, _ := c.Get(middleware.CtxDriver).(model.Driver)
	ride, err := h.ownRide(c, d)
	if err != nil {
		return err
	}
	done, err := h.Booking.CompleteRide(c.Request().Context(), ride.ID)
	if err != nil {
		if errors.Is(err, service.ErrRideState) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ride is not in progress"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete failed"})
	}
	return c.JSON(http.StatusOK, done)
}

// ownRide loads the :id ride and checks it belongs to the driver.
func (h *DriverHandler) ownRide(c echo.Context, d model.Driver) (model.Ride, error) {
	ride, err := h.Booking.Rides.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return model.Ride{}, echo.NewHTTPError(http.StatusNotFound, "ride not found")
	}
	if ride.DriverID != d.ID {
		return model.Ride{}, echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return ride, nil
}
