// Package handler implements the HTTP endpoints for the passenger booking
// flow, the driver dashboard and the admin panel.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness for load balancers and monitors.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
