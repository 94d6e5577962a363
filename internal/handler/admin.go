package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/recital-seat-booking/internal/service"
)

// AdminHandler serves the endpoints behind the admin secret.
type AdminHandler struct {
    Layout  LayoutService
    Timeout time.Duration
}

func NewAdminHandler(layout LayoutService, timeout time.Duration) *AdminHandler {
    return &AdminHandler{Layout: layout, Timeout: timeout}
}

type createShowReq struct {
    Name        string `json:"name"`
    Description string `json:"description"`
    Date        string `json:"date"`
}

// parseShowDate accepts a full RFC 3339 timestamp or a bare date.
func parseShowDate(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t.UTC(), true
    }
    if t, err := time.Parse("2006-01-02", s); err == nil {
        return t, true
    }
    return time.Time{}, false
}

// CreateShow handles POST /admin/shows.
func (h *AdminHandler) CreateShow(c echo.Context) error {
    var req createShowReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    if strings.TrimSpace(req.Date) == "" {
        return badRequest(c, "date is required")
    }
    date, ok := parseShowDate(req.Date)
    if !ok {
        return badRequest(c, "invalid date format")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    show, err := h.Layout.CreateShow(ctx, service.NewShow{Name: req.Name, Description: req.Description, Date: date})
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"show": toShowJSON(*show)})
}

type rowReq struct {
    Label           string `json:"label"`
    RowName         string `json:"rowName"` // legacy alias for label
    Sections        int    `json:"sections"`
    Columns         int    `json:"columns"` // legacy alias for sections
    SeatsPerSection int    `json:"seats_per_section"`
    SeatsPerColumn  int    `json:"seatsPerColumn"` // legacy alias for seats_per_section
    SeatCount       int    `json:"seatCount"`      // single-section shorthand
}

func (r rowReq) spec() service.RowSpec {
    spec := service.RowSpec{Label: r.Label, Sections: r.Sections, SeatsPerSection: r.SeatsPerSection}
    if strings.TrimSpace(spec.Label) == "" {
        spec.Label = r.RowName
    }
    if spec.Sections == 0 {
        spec.Sections = r.Columns
    }
    if spec.SeatsPerSection == 0 {
        spec.SeatsPerSection = r.SeatsPerColumn
    }
    if spec.SeatsPerSection == 0 && r.SeatCount > 0 {
        spec.SeatsPerSection = r.SeatCount
        if spec.Sections == 0 {
            spec.Sections = 1
        }
    }
    return spec
}

type addRowsReq struct {
    Rows []rowReq `json:"rows"`
}

// AddRows handles POST /admin/shows/:id/seats.  All rows of the request are
// created together or not at all.
func (h *AdminHandler) AddRows(c echo.Context) error {
    showID, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid show id")
    }
    var req addRowsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    if len(req.Rows) == 0 {
        return badRequest(c, "rows are required")
    }
    specs := make([]service.RowSpec, 0, len(req.Rows))
    for _, r := range req.Rows {
        specs = append(specs, r.spec())
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    rows, err := h.Layout.AddRows(ctx, showID, specs)
    if err != nil {
        return respondError(c, err)
    }
    seats := 0
    for _, r := range rows {
        seats += r.SeatCount()
    }
    return c.JSON(http.StatusCreated, echo.Map{"rows": toRows(rows), "seats_created": seats})
}

// ListShows handles GET /admin/shows.
func (h *AdminHandler) ListShows(c echo.Context) error {
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    list, err := h.Layout.ListShows(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"shows": toSummaries(list)})
}

// DeleteShow handles DELETE /admin/shows/:id.  Rows, seats and bookings of
// the show go with it.
func (h *AdminHandler) DeleteShow(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid show id")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    if err := h.Layout.DeleteShow(ctx, id); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "show deleted"})
}

// ShowBookings handles GET /admin/shows/:id/bookings.
func (h *AdminHandler) ShowBookings(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid show id")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    list, err := h.Layout.ListShowBookings(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": showBookingsJSON(list)})
}
