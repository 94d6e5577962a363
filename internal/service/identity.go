package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/iliyamo/recital-seat-booking/internal/clock"
	"github.com/iliyamo/recital-seat-booking/internal/model"
	"github.com/iliyamo/recital-seat-booking/internal/monitoring"
	"github.com/iliyamo/recital-seat-booking/internal/queue"
	"github.com/iliyamo/recital-seat-booking/internal/repository"
	"github.com/iliyamo/recital-seat-booking/internal/utils"
)

type IdentityConfig struct {
	JWTSecret     string
	SessionTTL    time.Duration
	LoginTokenTTL time.Duration
	FrontendURL   string
	NotifyTimeout time.Duration
}

// LoginRequest starts a passwordless sign-in.
type LoginRequest struct {
	Email     string
	FirstName string
	LastName  string
}

// LoginChallenge is the outcome of RequestLogin.  Token is the raw one-time
// credential; it only leaves the process inside the login link.
type LoginChallenge struct {
	Guest     model.Guest
	Token     string
	ExpiresAt time.Time
	NotifyErr error
}

// Session is an issued session credential.
type Session struct {
	Token   string
	Expires time.Time
	Guest   model.Guest
}

// Identity turns login links into sessions and sessions into guests.
type Identity struct {
	tx       TxRunner
	guests   GuestStore
	notifier Notifier
	clock    clock.Clock
	cfg      IdentityConfig
}

func NewIdentity(tx TxRunner, guests GuestStore, notifier Notifier, clk clock.Clock, cfg IdentityConfig) *Identity {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.LoginTokenTTL <= 0 {
		cfg.LoginTokenTTL = 24 * time.Hour
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 3 * time.Second
	}
	return &Identity{tx: tx, guests: guests, notifier: notifier, clock: clk, cfg: cfg}
}

// RequestLogin creates the guest if needed, replaces any pending login token
// and queues the login link for delivery.
func (s *Identity) RequestLogin(ctx context.Context, req LoginRequest) (*LoginChallenge, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat, validation.Length(3, 255)),
		validation.Field(&req.FirstName, validation.Length(0, 100)),
		validation.Field(&req.LastName, validation.Length(0, 100)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	name := strings.TrimSpace(strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName))

	tok, err := utils.NewLoginToken(s.clock.Now(), s.cfg.LoginTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue login token: %w", err)
	}
	guest, err := s.guests.UpsertLoginToken(ctx, req.Email, name, utils.HashToken(tok.Raw), tok.Exp)
	if err != nil {
		return nil, err
	}

	ch := &LoginChallenge{Guest: *guest, Token: tok.Raw, ExpiresAt: tok.Exp}
	if s.notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
		defer cancel()
		err := s.notifier.PublishLoginRequested(nctx, queue.LoginRequestedEvent{
			GuestID:   guest.ID,
			Email:     guest.Email,
			Name:      guest.DisplayName,
			LoginURL:  LoginURL(s.cfg.FrontendURL, tok.Raw),
			ExpiresAt: tok.Exp.Format(time.RFC3339),
		})
		if err != nil {
			monitoring.NotificationFailed(queue.LoginRequestedQueue)
			log.Printf("identity: login link for guest %d not queued: %v", guest.ID, err)
			ch.NotifyErr = err
		}
	}
	return ch, nil
}

// VerifyLogin redeems a one-time login token for a session.  A token works
// once; unknown, used and expired tokens all yield ErrUnauthorized.
func (s *Identity) VerifyLogin(ctx context.Context, rawToken string) (*Session, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrUnauthorized
	}
	now := s.clock.Now()
	var guest *model.Guest
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		g, exp, err := s.guests.ConsumeLoginToken(ctx, utils.HashToken(rawToken))
		if err != nil {
			return err
		}
		if !now.Before(exp) {
			return ErrUnauthorized
		}
		guest = g
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	tok, err := utils.NewSessionToken(s.cfg.JWTSecret, guest.ID, guest.Email, now, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Session{Token: tok.Token, Expires: tok.Exp, Guest: *guest}, nil
}

// Authenticate resolves a session token to its guest.
func (s *Identity) Authenticate(ctx context.Context, sessionToken string) (*model.Guest, error) {
	id, err := utils.ParseSessionToken(s.cfg.JWTSecret, sessionToken, s.clock.Now())
	if err != nil {
		return nil, ErrUnauthorized
	}
	return s.Resolve(ctx, id)
}

// Resolve returns the guest with the given id, or ErrUnauthorized when no
// such guest exists.
func (s *Identity) Resolve(ctx context.Context, guestID uint64) (*model.Guest, error) {
	g, err := s.guests.GetByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return g, nil
}

// LoginURL is the magic link mailed to a guest.
func LoginURL(frontendURL, rawToken string) string {
	return strings.TrimRight(frontendURL, "/") + "/verify?token=" + url.QueryEscape(rawToken)
}
