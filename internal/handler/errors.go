// Package handler exposes the HTTP handlers of the booking API.  Handlers
// bind and check the request shape, call a service with a bounded context
// and translate the service's sentinel errors into status codes.
package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/recital-seat-booking/internal/repository"
    "github.com/iliyamo/recital-seat-booking/internal/service"
)

// DefaultTimeout bounds the store work of a single request when the handler
// was built without an explicit timeout.
const DefaultTimeout = 5 * time.Second

// Error codes returned in the "code" field of error bodies.
const (
    CodeInvalidInput = "invalid_input"
    CodeUnauthorized = "unauthorized"
    CodeNotFound     = "not_found"
    CodeSeatTaken    = "seat_taken"
    CodeRowExists    = "row_exists"
    CodeConflict     = "conflict"
    CodeUnavailable  = "unavailable"
    CodeInternal     = "internal"
)

func errorBody(msg, code string) echo.Map {
    return echo.Map{"error": msg, "code": code}
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, errorBody(msg, CodeInvalidInput))
}

// respondError writes the JSON error matching err's category.  Unknown
// errors are logged and hidden behind a generic 500.
func respondError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrInvalidInput):
        return c.JSON(http.StatusBadRequest, errorBody(err.Error(), CodeInvalidInput))
    case errors.Is(err, service.ErrUnauthorized):
        return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", CodeUnauthorized))
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, errorBody(err.Error(), CodeNotFound))
    case errors.Is(err, repository.ErrSeatTaken):
        return c.JSON(http.StatusConflict, errorBody("seat is already booked", CodeSeatTaken))
    case errors.Is(err, repository.ErrRowExists):
        return c.JSON(http.StatusConflict, errorBody("row label already exists", CodeRowExists))
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, errorBody("conflict", CodeConflict))
    case errors.Is(err, repository.ErrTransient),
        errors.Is(err, context.DeadlineExceeded),
        errors.Is(err, context.Canceled):
        c.Response().Header().Set("Retry-After", "1")
        return c.JSON(http.StatusServiceUnavailable, errorBody("temporarily unavailable, please retry", CodeUnavailable))
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
    return c.JSON(http.StatusInternalServerError, errorBody("internal error", CodeInternal))
}

// withTimeout derives the store context of a request.
func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
    if d <= 0 {
        d = DefaultTimeout
    }
    return context.WithTimeout(c.Request().Context(), d)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}
