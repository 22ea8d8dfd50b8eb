// Package router wires handlers, session middleware and the rate limiter
// onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/autonow/autonow-backend/internal/auth"
	"github.com/autonow/autonow-backend/internal/config"
	"github.com/autonow/autonow-backend/internal/handler"
	"github.com/autonow/autonow-backend/internal/middleware"
	"github.com/autonow/autonow-backend/internal/model"
)

// Deps carries everything the routes need.
type Deps struct {
	Auth     *auth.Service
	AuthH    *handler.AuthHandler
	DriverH  *handler.DriverHandler
	RideH    *handler.RideHandler
	AdminH   *handler.AdminHandler
	Progress *handler.ProgressHandler

	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

// Register mounts every route. Credential endpoints go through the
// rate limiter; everything under a session group goes through the
// matching session middleware.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.RequestID())

	e.GET("/healthz", handler.Health)

	limited := middleware.LoginRateLimit(d.RateLimit, d.Redis)

	// Passenger auth.
	pub := e.Group("/v1/auth")
	pub.POST("/register", d.AuthH.Register, limited)
	pub.POST("/login", d.AuthH.Login, limited)
	pub.POST("/password-reset", d.AuthH.RequestPasswordReset, limited)
	pub.POST("/password-reset/confirm", d.AuthH.ConfirmPasswordReset, limited)

	// Driver auth.
	dpub := e.Group("/v1/driver/auth")
	dpub.POST("/register", d.DriverH.Register, limited)
	dpub.POST("/login", d.DriverH.Login, limited)

	// Passenger session.
	user := e.Group("/v1", middleware.UserSession(d.Auth))
	user.POST("/auth/logout", d.AuthH.Logout)
	user.POST("/auth/logout-all", d.AuthH.LogoutAll)
	user.GET("/me", d.AuthH.Me)
	user.POST("/rides", d.RideH.Book)
	user.GET("/rides", d.RideH.List)
	user.GET("/rides/:id", d.RideH.Get)
	user.POST("/rides/:id/cancel", d.RideH.Cancel)
	user.GET("/ws/rides/:id/progress", d.Progress.Stream)

	// Driver dashboard.
	drv := e.Group("/v1/driver", middleware.DriverSession(d.Auth))
	drv.POST("/auth/logout", d.DriverH.Logout)
	drv.POST("/auth/logout-all", d.DriverH.LogoutAll)
	drv.GET("/me", d.DriverH.Me)
	drv.PATCH("/status", d.DriverH.UpdateStatus)
	drv.PATCH("/location", d.DriverH.UpdateLocation)
	drv.GET("/rides", d.DriverH.Rides)
	drv.POST("/rides/:id/start", d.DriverH.StartRide)
	drv.POST("/rides/:id/complete", d.DriverH.CompleteRide)

	// Admin panel.
	admin := e.Group("/v1/admin", middleware.UserSession(d.Auth), middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", d.AdminH.Users)
	admin.GET("/drivers", d.AdminH.Drivers)
	admin.GET("/sessions", d.AdminH.Sessions)
	admin.PATCH("/users/:id/active", d.AdminH.SetUserActive)
	admin.DELETE("/users/:id", d.AdminH.DeleteUser)
	admin.PATCH("/drivers/:id/verify", d.AdminH.VerifyDriver)
	admin.GET("/mirror", d.AdminH.Mirror)
	admin.POST("/cleanup", d.AdminH.Cleanup)
}
