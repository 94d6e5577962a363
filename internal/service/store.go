// Package service holds the booking domain: the venue layout, the seat
// reservation engine, check-in and guest identity.  Services depend on the
// narrow store interfaces below; internal/repository provides the MySQL
// implementations.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/recital-seat-booking/internal/model"
	"github.com/iliyamo/recital-seat-booking/internal/queue"
	"github.com/iliyamo/recital-seat-booking/internal/repository"
)

// TxRunner runs fn inside one store transaction.  fn's context carries the
// transaction; it commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ShowStore interface {
	Create(ctx context.Context, s *model.Show) error
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
	List(ctx context.Context) ([]model.ShowSummary, error)
	Search(ctx context.Context, q repository.ShowSearchQuery) ([]model.ShowSummary, int64, error)
	Delete(ctx context.Context, id uint64) error
}

type SeatStore interface {
	CreateRow(ctx context.Context, row *model.Row) error
	CreateSeats(ctx context.Context, rowID uint64, numbers []int) error
	ListRows(ctx context.Context, showID uint64) ([]model.Row, error)
	ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error)
	GetForUpdate(ctx context.Context, seatID uint64) (*model.Seat, error)
	MarkBooked(ctx context.Context, seatID, guestID uint64, at time.Time) error
}

type GuestStore interface {
	UpsertLoginToken(ctx context.Context, email, displayName, tokenHash string, exp time.Time) (*model.Guest, error)
	ConsumeLoginToken(ctx context.Context, tokenHash string) (*model.Guest, time.Time, error)
	GetByID(ctx context.Context, id uint64) (*model.Guest, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByConfirmation(ctx context.Context, confirmationID string) (*model.Booking, error)
	CheckIn(ctx context.Context, confirmationID string, at time.Time) (*model.Booking, error)
	ListByGuest(ctx context.Context, guestID uint64) ([]model.GuestBooking, error)
	ListByShow(ctx context.Context, showID uint64) ([]model.ShowBooking, error)
}

// Notifier publishes guest-facing notifications.  Calls happen after the
// originating transaction committed; failures never undo it.
type Notifier interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishLoginRequested(ctx context.Context, ev queue.LoginRequestedEvent) error
}
