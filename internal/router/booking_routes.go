package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recital-seat-booking/internal/handler"
	"github.com/iliyamo/recital-seat-booking/internal/middleware"
)

// RegisterBookings registers the guest booking endpoints.  Reserving and
// listing require a session; check-in is authorized by the confirmation id
// alone so that door staff can scan it.  limiter and purge may be nil.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, auth middleware.Authenticator, limiter, purge echo.MiddlewareFunc) {
	g := e.Group("/bookings")

	reserve := []echo.MiddlewareFunc{middleware.GuestAuth(auth)}
	if limiter != nil {
		// runs after GuestAuth so the bucket can be keyed by guest
		reserve = append(reserve, limiter)
	}
	if purge != nil {
		reserve = append(reserve, purge)
	}
	g.POST("", h.Reserve, reserve...)
	g.GET("/mine", h.Mine, middleware.GuestAuth(auth))
	g.GET("/my-bookings", h.Mine, middleware.GuestAuth(auth)) // legacy path

	g.GET("/check-in/:confirmationId", h.CheckIn)
	g.POST("/check-in/:confirmationId", h.CheckIn)
}
