package repository // repository defines data access for rows and seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/recital-seat-booking/internal/model"
)

// SeatRepo provides methods to work with seat rows and seats.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateRow inserts a row of a show and sets its ID.  A label already used
// in the same show yields ErrRowExists.
func (r *SeatRepo) CreateRow(ctx context.Context, row *model.Row) error {
	const q = `INSERT INTO seat_rows (show_id, label, sections, seats_per_section) VALUES (?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, row.ShowID, row.Label, row.Sections, row.SeatsPerSection)
	if err != nil {
		if isDuplicate(err) {
			return ErrRowExists
		}
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	row.ID = uint64(id)
	return nil
}

// CreateSeats inserts free seats with the given numbers into a row using a
// single multi-row statement.
func (r *SeatRepo) CreateSeats(ctx context.Context, rowID uint64, numbers []int) error {
	if len(numbers) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (row_id, seat_number) VALUES `)
	args := make([]any, 0, len(numbers)*2)
	for i, n := range numbers {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?)")
		args = append(args, rowID, n)
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, b.String(), args...)
	return classify(err)
}

// ListRows returns the rows of a show in creation order.
func (r *SeatRepo) ListRows(ctx context.Context, showID uint64) ([]model.Row, error) {
	const q = `SELECT id, show_id, label, sections, seats_per_section
	           FROM seat_rows WHERE show_id = ? ORDER BY id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, showID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := []model.Row{}
	for rows.Next() {
		var row model.Row
		if err := rows.Scan(&row.ID, &row.ShowID, &row.Label, &row.Sections, &row.SeatsPerSection); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

const seatColumns = `s.id, s.row_id, r.show_id, r.label, s.seat_number, s.is_booked, s.booked_by, s.booked_at`

// ListByShow returns all seats of a show ordered by row then seat number.
// It takes no locks.
func (r *SeatRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + `
	           FROM seats s
	           JOIN seat_rows r ON r.id = s.row_id
	           WHERE r.show_id = ?
	           ORDER BY r.id, s.seat_number`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, showID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := []model.Seat{}
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// GetForUpdate reads a seat and takes an exclusive row lock on it for the
// rest of the caller's transaction.  Concurrent callers for the same seat
// queue behind the lock; the wait is bounded by innodb_lock_wait_timeout and
// the context deadline, both of which surface as ErrTransient.
func (r *SeatRepo) GetForUpdate(ctx context.Context, seatID uint64) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + `
	           FROM seats s
	           JOIN seat_rows r ON r.id = s.row_id
	           WHERE s.id = ?
	           FOR UPDATE OF s`
	s, err := scanSeat(conn(ctx, r.db).QueryRowContext(ctx, q, seatID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, classify(err)
	}
	return s, nil
}

// MarkBooked flips a free seat to booked by guestID.  The is_booked guard
// makes the transition conditional, so a seat that is already booked
// yields ErrSeatTaken even without a prior lock.
func (r *SeatRepo) MarkBooked(ctx context.Context, seatID, guestID uint64, at time.Time) error {
	const q = `UPDATE seats SET is_booked = TRUE, booked_by = ?, booked_at = ?
	           WHERE id = ? AND is_booked = FALSE`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, guestID, at, seatID)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSeatTaken
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSeat(sc scanner) (*model.Seat, error) {
	var (
		s        model.Seat
		bookedBy sql.NullInt64
		bookedAt sql.NullTime
	)
	if err := sc.Scan(&s.ID, &s.RowID, &s.ShowID, &s.RowLabel, &s.Number, &s.IsBooked, &bookedBy, &bookedAt); err != nil {
		return nil, err
	}
	if bookedBy.Valid {
		id := uint64(bookedBy.Int64)
		s.BookedBy = &id
	}
	if bookedAt.Valid {
		t := bookedAt.Time
		s.BookedAt = &t
	}
	return &s, nil
}
