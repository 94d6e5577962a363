package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/recital-seat-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  The seat_id and
// confirmation_id columns are both unique, so the store itself refuses a
// second booking for a seat.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// Create inserts a booking and sets its ID.  A duplicate seat or
// confirmation identifier yields ErrSeatTaken.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (guest_id, seat_id, show_id, confirmation_id, checked_in, booked_at)
	           VALUES (?, ?, ?, ?, FALSE, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, b.GuestID, b.SeatID, b.ShowID, b.ConfirmationID, b.BookedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrSeatTaken
		}
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CheckedIn = false
	b.CheckedInAt = nil
	return nil
}

const bookingColumns = `b.id, b.guest_id, b.seat_id, b.show_id, b.confirmation_id, b.checked_in, b.booked_at, b.checked_in_at`

// GetByConfirmation looks a booking up by its confirmation identifier.
func (r *BookingRepo) GetByConfirmation(ctx context.Context, confirmationID string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.confirmation_id = ?`
	var b model.Booking
	var checkedInAt sql.NullTime
	err := conn(ctx, r.db).QueryRowContext(ctx, q, confirmationID).Scan(
		&b.ID, &b.GuestID, &b.SeatID, &b.ShowID, &b.ConfirmationID, &b.CheckedIn, &b.BookedAt, &checkedInAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, classify(err)
	}
	if checkedInAt.Valid {
		t := checkedInAt.Time
		b.CheckedInAt = &t
	}
	return &b, nil
}

// CheckIn marks the booking as checked in.  The first timestamp wins:
// repeated calls leave checked_in_at untouched and return the same booking.
func (r *BookingRepo) CheckIn(ctx context.Context, confirmationID string, at time.Time) (*model.Booking, error) {
	const q = `UPDATE bookings
	           SET checked_in = TRUE, checked_in_at = COALESCE(checked_in_at, ?)
	           WHERE confirmation_id = ?`
	if _, err := conn(ctx, r.db).ExecContext(ctx, q, at, confirmationID); err != nil {
		return nil, classify(err)
	}
	return r.GetByConfirmation(ctx, confirmationID)
}

// ListByGuest returns a guest's bookings with show and seat details,
// newest first.
func (r *BookingRepo) ListByGuest(ctx context.Context, guestID uint64) ([]model.GuestBooking, error) {
	const q = `SELECT ` + bookingColumns + `, sh.name, sh.show_date, sr.label, s.seat_number
	           FROM bookings b
	           JOIN shows sh ON sh.id = b.show_id
	           JOIN seats s ON s.id = b.seat_id
	           JOIN seat_rows sr ON sr.id = s.row_id
	           WHERE b.guest_id = ?
	           ORDER BY b.booked_at DESC, b.id DESC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, guestID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := []model.GuestBooking{}
	for rows.Next() {
		var (
			gb          model.GuestBooking
			checkedInAt sql.NullTime
		)
		if err := rows.Scan(
			&gb.ID, &gb.GuestID, &gb.SeatID, &gb.ShowID, &gb.ConfirmationID, &gb.CheckedIn, &gb.BookedAt, &checkedInAt,
			&gb.ShowName, &gb.ShowDate, &gb.RowLabel, &gb.SeatNumber,
		); err != nil {
			return nil, err
		}
		if checkedInAt.Valid {
			t := checkedInAt.Time
			gb.CheckedInAt = &t
		}
		result = append(result, gb)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// ListByShow returns the roster of a show ordered by row and seat.
func (r *BookingRepo) ListByShow(ctx context.Context, showID uint64) ([]model.ShowBooking, error) {
	const q = `SELECT ` + bookingColumns + `, g.email, g.display_name, sr.label, s.seat_number
	           FROM bookings b
	           JOIN guests g ON g.id = b.guest_id
	           JOIN seats s ON s.id = b.seat_id
	           JOIN seat_rows sr ON sr.id = s.row_id
	           WHERE b.show_id = ?
	           ORDER BY sr.id, s.seat_number`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, showID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := []model.ShowBooking{}
	for rows.Next() {
		var (
			sb          model.ShowBooking
			checkedInAt sql.NullTime
		)
		if err := rows.Scan(
			&sb.ID, &sb.GuestID, &sb.SeatID, &sb.ShowID, &sb.ConfirmationID, &sb.CheckedIn, &sb.BookedAt, &checkedInAt,
			&sb.GuestEmail, &sb.GuestName, &sb.RowLabel, &sb.SeatNumber,
		); err != nil {
			return nil, err
		}
		if checkedInAt.Valid {
			t := checkedInAt.Time
			sb.CheckedInAt = &t
		}
		result = append(result, sb)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}
