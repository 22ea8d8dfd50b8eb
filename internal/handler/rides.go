package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/autonow/autonow-backend/internal/middleware"
	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/repository"
	"github.com/autonow/autonow-backend/internal/service"
)

// RideHandler serves the passenger booking flow.
type RideHandler struct {
	Booking *service.Booking
}

func NewRideHandler(b *service.Booking) *RideHandler { return &RideHandler{Booking: b} }

type bookReq struct {
	Pickup  model.Location `json:"pickup"`
	Dropoff model.Location `json:"dropoff"`
}

// Book quotes and creates a ride for the authenticated user. When no
// driver is free the ride is still created in the requested state and the
// response says so.
func (h *RideHandler) Book(c echo.Context) error {
	u, _ := c.Get(middleware.CtxUser).(model.User)
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ride, err := h.Booking.BookRide(c.Request().Context(), u.ID, req.Pickup, req.Dropoff)
	if err != nil {
		if errors.Is(err, service.ErrNoDriver) {
			return c.JSON(http.StatusAccepted, echo.Map{
				"ride":    ride,
				"warning": "no driver available yet",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	return c.JSON(http.StatusCreated, ride)
}

// List returns the authenticated user's rides, newest first.
func (h *RideHandler) List(c echo.Context) error {
	u, _ := c.Get(middleware.CtxUser).(model.User)
	return c.JSON(http.StatusOK, h.Booking.Rides.ByUser(c.Request().Context(), u.ID))
}

// Get returns one ride; passengers can only read their own.
func (h *RideHandler) Get(c echo.Context) error {
	u, _ := c.Get(middleware.CtxUser).(model.User)
	ride, err := h.Booking.Rides.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load failed"})
	}
	if ride.UserID != u.ID && u.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, ride)
}

// Cancel cancels the user's own ride while it has not completed.
func (h *RideHandler) Cancel(c echo.Context) error {
	u, _ := c.Get(middleware.CtxUser).(model.User)
	ctx := c.Request().Context()

	ride, err := h.Booking.Rides.ByID(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
	}
	if ride.UserID != u.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	cancelled, err := h.Booking.CancelRide(ctx, ride.ID)
	if err != nil {
		if errors.Is(err, service.ErrRideState) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ride already finished"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, cancelled)
}
