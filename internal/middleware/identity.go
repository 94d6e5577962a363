package middleware

// identity.go holds the context keys shared across middleware files and the
// helpers handlers use to read the authenticated guest.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/recital-seat-booking/internal/model"
)

const (
    guestIDKey = "guest_id"
    guestKey   = "guest"
)

// GuestID returns the id of the authenticated guest.  ok is false on routes
// not wrapped by GuestAuth.
func GuestID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(guestIDKey).(uint64)
    return id, ok && id != 0
}

// CurrentGuest returns the authenticated guest, or nil.
func CurrentGuest(c echo.Context) *model.Guest {
    g, _ := c.Get(guestKey).(*model.Guest)
    return g
}

// guestKeyPart identifies the caller for rate limiting.  It returns "guest"
// when no one is authenticated.
func guestKeyPart(c echo.Context) string {
    if id, ok := GuestID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
