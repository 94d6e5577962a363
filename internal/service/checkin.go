package service

import (
	"context"
	"strings"

	"github.com/iliyamo/recital-seat-booking/internal/clock"
	"github.com/iliyamo/recital-seat-booking/internal/model"
	"github.com/iliyamo/recital-seat-booking/internal/monitoring"
	"github.com/iliyamo/recital-seat-booking/internal/repository"
)

// CheckIn moves bookings from pending to checked in.  The confirmation
// identifier is the only credential: whoever holds it may check in.
type CheckIn struct {
	tx       TxRunner
	bookings BookingStore
	clock    clock.Clock
}

func NewCheckIn(tx TxRunner, bookings BookingStore, clk clock.Clock) *CheckIn {
	return &CheckIn{tx: tx, bookings: bookings, clock: clk}
}

// CheckIn marks the booking checked in and returns it.  Repeated calls
// succeed and keep the first check-in timestamp; a checked-in booking never
// returns to pending.  An unknown identifier yields ErrBookingNotFound.
func (s *CheckIn) CheckIn(ctx context.Context, confirmationID string) (*model.Booking, error) {
	confirmationID = strings.TrimSpace(confirmationID)
	if confirmationID == "" {
		monitoring.ObserveCheckIn(monitoring.OutcomeNotFound)
		return nil, repository.ErrBookingNotFound
	}
	var b *model.Booking
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.bookings.CheckIn(ctx, confirmationID, s.clock.Now())
		return err
	})
	monitoring.ObserveCheckIn(outcomeOf(err))
	if err != nil {
		return nil, err
	}
	return b, nil
}
