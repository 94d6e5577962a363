// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/recital-seat-booking/internal/handler"
	"github.com/iliyamo/recital-seat-booking/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: the health check used
// by load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the unauthenticated show endpoints.  cache may be
// nil; the seat map is then always read from the database.
func RegisterPublic(e *echo.Echo, h *handler.ShowHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/shows", h.ListShows, mw...)
	e.GET("/shows/:id", h.GetShow, mw...)
}

// RegisterAuth registers the passwordless login flow.  Requesting and
// verifying a login link need no session; /auth/me does.
func RegisterAuth(e *echo.Echo, h *handler.AuthHandler, auth middleware.Authenticator) {
	g := e.Group("/auth")
	g.POST("/request-login", h.RequestLogin)
	g.POST("/verify-login", h.VerifyLogin)
	g.GET("/me", h.Me, middleware.GuestAuth(auth))
}
