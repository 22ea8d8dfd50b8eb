package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/autonow/autonow-backend/internal/middleware"
	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The demo UI is served from arbitrary origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ProgressHandler streams simulated trip progress over a websocket.
type ProgressHandler struct {
	Booking *service.Booking
	// Tick is the interval between progress updates.
	Tick time.Duration
}

func NewProgressHandler(b *service.Booking) *ProgressHandler {
	return &ProgressHandler{Booking: b, Tick: time.Second}
}

type progressMsg struct {
	RideID   string `json:"rideId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// Stream upgrades the connection and pushes one progress tick per
// interval until the ride completes, is cancelled, or the client leaves.
// An assigned ride is started on the first tick so the passenger sees
// movement as soon as they connect.
func (h *ProgressHandler) Stream(c echo.Context) error {
	u, _ := c.Get(middleware.CtxUser).(model.User)
	ctx := c.Request().Context()

	ride, err := h.Booking.Rides.ByID(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
	}
	if ride.UserID != u.ID && u.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if ride.Status == model.RideAssigned {
		if ride, err = h.Booking.StartRide(ctx, ride.ID); err != nil {
			log.Printf("ws: start ride %s failed: %v", c.Param("id"), err)
			return nil
		}
	}

	ticker := time.NewTicker(h.Tick)
	defer ticker.Stop()
	for {
		if err := conn.WriteJSON(progressMsg{RideID: ride.ID, Status: ride.Status, Progress: ride.Progress}); err != nil {
			return nil // client went away
		}
		if ride.Status != model.RideInProgress {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		ride, err = h.Booking.AdvanceProgress(ctx, ride.ID)
		if err != nil {
			if errors.Is(err, service.ErrRideState) {
				// Completed or cancelled from another path; report the
				// final state and stop.
				if final, ferr := h.Booking.Rides.ByID(ctx, c.Param("id")); ferr == nil {
					_ = conn.WriteJSON(progressMsg{RideID: final.ID, Status: final.Status, Progress: final.Progress})
				}
				return nil
			}
			log.Printf("ws: progress tick failed: %v", err)
			return nil
		}
	}
}
