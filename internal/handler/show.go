package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/recital-seat-booking/internal/model"
    "github.com/iliyamo/recital-seat-booking/internal/service"
)

// LayoutService is the show and seat layout API used by the public and admin
// handlers.  *service.Layout implements it.
type LayoutService interface {
    CreateShow(ctx context.Context, in service.NewShow) (*model.Show, error)
    AddRows(ctx context.Context, showID uint64, specs []service.RowSpec) ([]model.Row, error)
    GetShow(ctx context.Context, id uint64) (*service.ShowDetail, error)
    ListShows(ctx context.Context) ([]model.ShowSummary, error)
    SearchShows(ctx context.Context, q service.ShowQuery) (*service.ShowPage, error)
    DeleteShow(ctx context.Context, id uint64) error
    ListShowBookings(ctx context.Context, showID uint64) ([]model.ShowBooking, error)
}

// ShowHandler serves the public, unauthenticated show endpoints.
type ShowHandler struct {
    Layout  LayoutService
    Timeout time.Duration
}

func NewShowHandler(layout LayoutService, timeout time.Duration) *ShowHandler {
    return &ShowHandler{Layout: layout, Timeout: timeout}
}

// ListShows handles GET /shows.  Optional query parameters: q filters by
// name, when=upcoming hides past shows, page and page_size page the result.
func (h *ShowHandler) ListShows(c echo.Context) error {
    q := service.ShowQuery{
        Name:     strings.TrimSpace(c.QueryParam("q")),
        Upcoming: strings.EqualFold(c.QueryParam("when"), "upcoming"),
    }
    var err error
    if q.Page, err = intParam(c, "page"); err != nil {
        return badRequest(c, "invalid page")
    }
    if q.PageSize, err = intParam(c, "page_size"); err != nil {
        return badRequest(c, "invalid page_size")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    page, err := h.Layout.SearchShows(ctx, q)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "shows":     toSummaries(page.Shows),
        "total":     page.Total,
        "page":      page.Page,
        "page_size": page.PageSize,
    })
}

// intParam reads an optional integer query parameter; absent means 0.
func intParam(c echo.Context, name string) (int, error) {
    v := strings.TrimSpace(c.QueryParam(name))
    if v == "" {
        return 0, nil
    }
    return strconv.Atoi(v)
}

// GetShow handles GET /shows/:id and returns the full seat map.
func (h *ShowHandler) GetShow(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid show id")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    detail, err := h.Layout.GetShow(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "show":  toShowJSON(detail.Show),
        "rows":  toRows(detail.Rows),
        "seats": toSeats(detail.Seats),
    })
}
