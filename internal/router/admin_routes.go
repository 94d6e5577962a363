package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recital-seat-booking/internal/handler"
	"github.com/iliyamo/recital-seat-booking/internal/middleware"
)

// RegisterAdmin registers the show management endpoints under /admin.  Every
// route requires the admin secret.  purge, when non-nil, drops cached show
// responses after each successful write so new layouts appear at once.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, secretHash string, purge echo.MiddlewareFunc) {
	g := e.Group("/admin", middleware.RequireAdmin(secretHash))
	if purge != nil {
		g.Use(purge)
	}
	g.GET("/shows", h.ListShows)
	g.POST("/shows", h.CreateShow)
	g.DELETE("/shows/:id", h.DeleteShow)
	g.POST("/shows/:id/seats", h.AddRows)
	g.GET("/shows/:id/bookings", h.ShowBookings)
}
