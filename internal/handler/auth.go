package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/recital-seat-booking/internal/middleware"
    "github.com/iliyamo/recital-seat-booking/internal/service"
)

// IdentityService is the passwordless login flow.  *service.Identity
// implements it.
type IdentityService interface {
    RequestLogin(ctx context.Context, req service.LoginRequest) (*service.LoginChallenge, error)
    VerifyLogin(ctx context.Context, rawToken string) (*service.Session, error)
}

// AuthHandler bundles the guest login endpoints.
type AuthHandler struct {
    Identity    IdentityService
    FrontendURL string
    // ExposeLink returns the login link in the response body.  Only for
    // local development, where no notifier delivers it.
    ExposeLink bool
    Timeout    time.Duration
}

func NewAuthHandler(identity IdentityService, frontendURL string, exposeLink bool, timeout time.Duration) *AuthHandler {
    return &AuthHandler{Identity: identity, FrontendURL: frontendURL, ExposeLink: exposeLink, Timeout: timeout}
}

type requestLoginReq struct {
    Email        string `json:"email"`
    FirstName    string `json:"first_name"`
    LastName     string `json:"last_name"`
    FirstNameAlt string `json:"firstName"`
    LastNameAlt  string `json:"lastName"`
}

type verifyLoginReq struct {
    Token string `json:"token"`
}

// RequestLogin handles POST /auth/request-login.  The raw token only
// travels through the notification queue.
func (h *AuthHandler) RequestLogin(c echo.Context) error {
    var req requestLoginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    if req.FirstName == "" {
        req.FirstName = req.FirstNameAlt
    }
    if req.LastName == "" {
        req.LastName = req.LastNameAlt
    }
    if strings.TrimSpace(req.Email) == "" {
        return badRequest(c, "email is required")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    ch, err := h.Identity.RequestLogin(ctx, service.LoginRequest{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName})
    if err != nil {
        return respondError(c, err)
    }
    body := echo.Map{"message": "login link sent", "expires_at": ch.ExpiresAt}
    if ch.NotifyErr != nil {
        body["warning"] = "login link could not be sent, please try again"
    }
    if h.ExposeLink {
        body["login_url"] = service.LoginURL(h.FrontendURL, ch.Token)
    }
    return c.JSON(http.StatusOK, body)
}

// VerifyLogin handles POST /auth/verify-login and exchanges a one-time login
// token for a session token.
func (h *AuthHandler) VerifyLogin(c echo.Context) error {
    var req verifyLoginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    if strings.TrimSpace(req.Token) == "" {
        return badRequest(c, "token is required")
    }
    ctx, cancel := withTimeout(c, h.Timeout)
    defer cancel()
    s, err := h.Identity.VerifyLogin(ctx, strings.TrimSpace(req.Token))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "token":   s.Token,
        "expires": s.Expires,
        "guest":   toGuestJSON(s.Guest),
    })
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
    g := middleware.CurrentGuest(c)
    if g == nil {
        return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", CodeUnauthorized))
    }
    return c.JSON(http.StatusOK, echo.Map{"guest": toGuestJSON(*g)})
}
