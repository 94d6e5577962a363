package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/recital-seat-booking/internal/clock"
	"github.com/iliyamo/recital-seat-booking/internal/model"
	"github.com/iliyamo/recital-seat-booking/internal/monitoring"
	"github.com/iliyamo/recital-seat-booking/internal/queue"
	"github.com/iliyamo/recital-seat-booking/internal/repository"
)

// ReserveInput names the seat a guest wants.  ShowID must be the show the
// seat belongs to.
type ReserveInput struct {
	SeatID  uint64
	ShowID  uint64
	GuestID uint64
}

// Reservation is the result of a committed booking.  NotifyErr is set when
// the confirmation could not be queued; the booking stands regardless.
type Reservation struct {
	Booking    model.Booking
	RowLabel   string
	SeatNumber int
	CheckInURL string
	NotifyErr  error
}

// EngineConfig carries the engine's tunables.
type EngineConfig struct {
	FrontendURL   string
	NotifyTimeout time.Duration
}

// Engine performs seat reservations.  All coordination happens in the
// store: the seat row lock taken by SeatStore.GetForUpdate serialises
// competing requests, so several server processes can share one database.
type Engine struct {
	tx       TxRunner
	shows    ShowStore
	seats    SeatStore
	guests   GuestStore
	bookings BookingStore
	notifier Notifier
	clock    clock.Clock
	cfg      EngineConfig
}

func NewEngine(tx TxRunner, shows ShowStore, seats SeatStore, guests GuestStore, bookings BookingStore, notifier Notifier, clk clock.Clock, cfg EngineConfig) *Engine {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 3 * time.Second
	}
	return &Engine{
		tx:       tx,
		shows:    shows,
		seats:    seats,
		guests:   guests,
		bookings: bookings,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
	}
}

// Reserve books one seat for a guest.
//
// Inside a single transaction it locks the seat, rejects it when it belongs
// to another show (ErrSeatNotFound) or is taken (ErrSeatTaken), flips it to
// booked and inserts the booking with a fresh confirmation identifier.  Of N
// concurrent calls for one free seat exactly one succeeds and the others
// observe ErrConflict.  Reserve is not idempotent: repeating a call that
// already committed also returns ErrConflict.
//
// The confirmation notification is sent after commit; its failure is
// reported in Reservation.NotifyErr and never affects the booking.
func (e *Engine) Reserve(ctx context.Context, in ReserveInput) (Reservation, error) {
	if in.SeatID == 0 || in.ShowID == 0 {
		return Reservation{}, fmt.Errorf("%w: seat_id and show_id are required", ErrInvalidInput)
	}
	guest, err := e.guests.GetByID(ctx, in.GuestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Reservation{}, ErrUnauthorized
		}
		return Reservation{}, err
	}

	confirmation, err := uuid.NewRandom()
	if err != nil {
		return Reservation{}, fmt.Errorf("generate confirmation id: %w", err)
	}

	var res Reservation
	start := time.Now()
	err = e.tx.WithTx(ctx, func(ctx context.Context) error {
		seat, err := e.seats.GetForUpdate(ctx, in.SeatID)
		if err != nil {
			return err
		}
		if seat.ShowID != in.ShowID {
			return repository.ErrSeatNotFound
		}
		if seat.IsBooked {
			return repository.ErrSeatTaken
		}

		now := e.clock.Now()
		if err := e.seats.MarkBooked(ctx, seat.ID, guest.ID, now); err != nil {
			return err
		}
		b := model.Booking{
			GuestID:        guest.ID,
			SeatID:         seat.ID,
			ShowID:         seat.ShowID,
			ConfirmationID: confirmation.String(),
			BookedAt:       now,
		}
		if err := e.bookings.Create(ctx, &b); err != nil {
			return err
		}
		res = Reservation{Booking: b, RowLabel: seat.RowLabel, SeatNumber: seat.Number}
		return nil
	})
	monitoring.ObserveReservation(outcomeOf(err), time.Since(start))
	if err != nil {
		return Reservation{}, err
	}

	res.CheckInURL = CheckInURL(e.cfg.FrontendURL, res.Booking.ConfirmationID)
	res.NotifyErr = e.notifyConfirmed(ctx, guest, res)
	return res, nil
}

// notifyConfirmed publishes booking.confirmed.  It runs on a context that
// survives the caller hanging up, bounded by NotifyTimeout.
func (e *Engine) notifyConfirmed(ctx context.Context, guest *model.Guest, res Reservation) error {
	if e.notifier == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.NotifyTimeout)
	defer cancel()

	ev := queue.BookingConfirmedEvent{
		BookingID:      res.Booking.ID,
		ConfirmationID: res.Booking.ConfirmationID,
		GuestID:        guest.ID,
		GuestEmail:     guest.Email,
		GuestName:      guest.DisplayName,
		ShowID:         res.Booking.ShowID,
		RowLabel:       res.RowLabel,
		SeatNumber:     res.SeatNumber,
		CheckInURL:     res.CheckInURL,
		BookedAt:       res.Booking.BookedAt.Format(time.RFC3339),
	}
	if show, err := e.shows.GetByID(ctx, res.Booking.ShowID); err == nil {
		ev.ShowName = show.Name
		ev.ShowDate = show.Date.Format(time.RFC3339)
	}
	if err := e.notifier.PublishBookingConfirmed(ctx, ev); err != nil {
		monitoring.NotificationFailed(queue.BookingConfirmedQueue)
		log.Printf("reservation: confirmation for booking %d not queued: %v", res.Booking.ID, err)
		return err
	}
	return nil
}

// ListForGuest returns the guest's bookings.  It is the recovery path for a
// client whose reservation request timed out after commit.
func (e *Engine) ListForGuest(ctx context.Context, guestID uint64) ([]model.GuestBooking, error) {
	return e.bookings.ListByGuest(ctx, guestID)
}

// CheckInURL is the link encoded in a booking's QR code.
func CheckInURL(frontendURL, confirmationID string) string {
	return strings.TrimRight(frontendURL, "/") + "/check-in/" + confirmationID
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return monitoring.OutcomeOK
	case errors.Is(err, repository.ErrConflict):
		return monitoring.OutcomeConflict
	case errors.Is(err, repository.ErrNotFound):
		return monitoring.OutcomeNotFound
	case errors.Is(err, repository.ErrTransient):
		return monitoring.OutcomeTransient
	}
	return monitoring.OutcomeError
}
