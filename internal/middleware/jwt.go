package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "errors"
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/recital-seat-booking/internal/model"
    "github.com/iliyamo/recital-seat-booking/internal/repository"
)

// Authenticator resolves a session token to the guest it was issued to.
// service.Identity implements it.
type Authenticator interface {
    Authenticate(ctx context.Context, sessionToken string) (*model.Guest, error)
}

// GuestAuth returns an Echo middleware that validates a Bearer session token
// and makes the guest available to handlers via GuestID and CurrentGuest.
// The guest is looked up on every request, so a deleted guest loses access
// immediately even while the token has not expired.
func GuestAuth(auth Authenticator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token", "code": "unauthorized"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

            guest, err := auth.Authenticate(c.Request().Context(), raw)
            if err != nil {
                if errors.Is(err, repository.ErrTransient) {
                    c.Response().Header().Set("Retry-After", "1")
                    return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "try again", "code": "transient"})
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token", "code": "unauthorized"})
            }

            c.Set(guestIDKey, guest.ID)
            c.Set(guestKey, guest)
            return next(c)
        }
    }
}
