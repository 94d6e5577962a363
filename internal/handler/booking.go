package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/recital-seat-booking/internal/middleware"
    "github.com/iliyamo/recital-seat-booking/internal/model"
    "github.com/iliyamo/recital-seat-booking/internal/service"
)

// Reserver books seats.  *service.Engine implements it.
type Reserver interface {
    Reserve(ctx context.Context, in service.ReserveInput) (service.Reservation, error)
    ListForGuest(ctx context.Context, guestID uint64) ([]model.GuestBooking, error)
}

// CheckInService marks bookings as checked in.  *service.CheckIn implements it.
type CheckInService interface {
    CheckIn(ctx context.Context, confirmationID string) (*model.Booking, error)
}

// NotifyWarning is returned next to a committed booking whose confirmation
// could not be queued.  The booking stands; the guest can find it under
// GET /bookings/mine.
const NotifyWarning = "booking confirmed but the confirmation message could not be sent"

// BookingHandler serves the guest booking and check-in endpoints.
type BookingHandler struct {
    Engine      Reserver
    CheckIns    CheckInService
    FrontendURL string
    Timeout     time.Duration
}

func NewBookingHandler(engine Reserver, checkIns CheckInService, frontendURL string, timeout time.Duration) *BookingHandler {
    return &BookingHandler{Engine: engine, CheckIns: checkIns, FrontendURL: frontendURL, Timeout: timeout}
}

type reserveReq struct {
    SeatID uint64 `json:"seat_id"`
    ShowID uint64 `json:"show_id"`
    // camelCase aliases sent by older clients
    SeatIDAlt uint64 `json:"seatId"`
    ShowIDAlt uint64 `json:"showId"`
}

// Reserve handles POST /bookings.
func (h *BookingHandler) Reserve(c echo.Context) error {
    guestID, ok := middleware.GuestID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", CodeUnauthorized))
    }
    var req reserveReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    if req.SeatID == 0 {
        req.SeatID = req.SeatIDAlt
    }
    if req.ShowID == 0 {
        req.ShowID = req.ShowIDAlt
    }
    if req.SeatID == 0 || req.ShowID == 0 {
        return badRequest(c, "seat_id and show_id are required")
    }

    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()

    res, err := h.Engine.Reserve(ctx, service.ReserveInput{SeatID: req.SeatID, ShowID: req.ShowID, GuestID: guestID})
    if err != nil {
        return respondError(c, err)
    }
    body := echo.Map{"booking": reservationJSON(res)}
    if res.NotifyErr != nil {
        body["warning"] = NotifyWarning
    }
    return c.JSON(http.StatusCreated, body)
}

// Mine handles GET /bookings/mine (and the older /bookings/my-bookings).
func (h *BookingHandler) Mine(c echo.Context) error {
    guestID, ok := middleware.GuestID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", CodeUnauthorized))
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    list, err := h.Engine.ListForGuest(ctx, guestID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": guestBookingsJSON(list, h.FrontendURL)})
}

// CheckIn handles GET and POST /bookings/check-in/:confirmationId.  The
// confirmation id is the credential, so the route is unauthenticated.
// Repeating the call returns the original check-in time.
func (h *BookingHandler) CheckIn(c echo.Context) error {
    id := strings.TrimSpace(c.Param("confirmationId"))
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    b, err := h.CheckIns.CheckIn(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Successfully checked in",
        "booking": toBookingJSON(*b),
    })
}
