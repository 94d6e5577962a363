package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sql.ErrNoRows checks

	"github.com/iliyamo/recital-seat-booking/internal/model"
)

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// Create inserts a new show and populates its generated ID and created_at.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	q := conn(ctx, r.db)
	const ins = `INSERT INTO shows (name, description, show_date) VALUES (?, ?, ?)`
	res, err := q.ExecContext(ctx, ins, s.Name, s.Description, s.Date)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT created_at FROM shows WHERE id = ?`
	return classify(q.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt))
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if there
// is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT id, name, description, show_date, created_at FROM shows WHERE id = ?`
	var s model.Show
	err := conn(ctx, r.db).QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.Description, &s.Date, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, classify(err)
	}
	return &s, nil
}

const showSummarySelect = `SELECT sh.id, sh.name, sh.description, sh.show_date, sh.created_at,
	                  COUNT(s.id), COALESCE(SUM(s.is_booked), 0)
	           FROM shows sh
	           LEFT JOIN seat_rows r ON r.show_id = sh.id
	           LEFT JOIN seats s ON s.row_id = r.id`

const showSummaryGroup = `
	           GROUP BY sh.id, sh.name, sh.description, sh.show_date, sh.created_at
	           ORDER BY sh.show_date ASC, sh.id ASC`

// List returns every show with its total and booked seat counts, ordered
// by show date.
func (r *ShowRepo) List(ctx context.Context) ([]model.ShowSummary, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, showSummarySelect+showSummaryGroup)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]model.ShowSummary, error) {
	result := []model.ShowSummary{}
	for rows.Next() {
		var s model.ShowSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Date, &s.CreatedAt, &s.TotalSeats, &s.BookedSeats); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// Delete removes a show together with its bookings, seats and rows.  The
// statements run in the caller's transaction (see TxManager.WithTx) so the
// show disappears atomically; the foreign keys cascade as well, the explicit
// deletes keep the order deterministic for lock acquisition.  It returns
// ErrShowNotFound when no show has the given id.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	q := conn(ctx, r.db)
	stmts := []string{
		`DELETE FROM bookings WHERE show_id = ?`,
		`DELETE s FROM seats s JOIN seat_rows r ON r.id = s.row_id WHERE r.show_id = ?`,
		`DELETE FROM seat_rows WHERE show_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt, id); err != nil {
			return classify(err)
		}
	}
	res, err := q.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrShowNotFound
	}
	return nil
}
