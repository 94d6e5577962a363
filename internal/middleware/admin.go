package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/recital-seat-booking/internal/utils"
)

// AdminHeader carries the shared admin secret.
const AdminHeader = "X-Admin-Password"

// RequireAdmin returns a middleware that only lets requests through whose
// X-Admin-Password header matches the bcrypt hash of the admin secret.  A
// missing header and a wrong secret both yield 401.
func RequireAdmin(secretHash string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            given := c.Request().Header.Get(AdminHeader)
            if given == "" || !utils.VerifyPassword(secretHash, given) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "admin access denied", "code": "unauthorized"})
            }
            return next(c)
        }
    }
}
