package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/iliyamo/recital-seat-booking/internal/model"
	"github.com/iliyamo/recital-seat-booking/internal/repository"
)

// Row defaults applied when an admin omits the layout of a row.
const (
	DefaultSections        = 1
	DefaultSeatsPerSection = 10
	MaxSeatsPerRow         = 1000
)

// GenerateSeats returns the seat numbers of a row with the given layout.
// Numbering runs 1..seatsPerSection*sections straight across sections, so
// sections of 5 give 1-5, 6-10 and so on.  Non-positive inputs yield no
// seats.
func GenerateSeats(seatsPerSection, sections int) []int {
	if seatsPerSection <= 0 || sections <= 0 {
		return nil
	}
	out := make([]int, 0, seatsPerSection*sections)
	for sec := 0; sec < sections; sec++ {
		for i := 1; i <= seatsPerSection; i++ {
			out = append(out, sec*seatsPerSection+i)
		}
	}
	return out
}

// NewShow is the input for Layout.CreateShow.
type NewShow struct {
	Name        string
	Description string
	Date        time.Time
}

// RowSpec describes one row to add to a show.  Zero Sections or
// SeatsPerSection take the defaults; an empty Label takes the next letter
// label after the show's existing rows.
type RowSpec struct {
	Label           string
	Sections        int
	SeatsPerSection int
}

// ShowDetail is a show with its complete seat map.
type ShowDetail struct {
	Show  model.Show
	Rows  []model.Row
	Seats []model.Seat
}

// Layout manages shows, rows and seats.
type Layout struct {
	tx       TxRunner
	shows    ShowStore
	seats    SeatStore
	bookings BookingStore
}

func NewLayout(tx TxRunner, shows ShowStore, seats SeatStore, bookings BookingStore) *Layout {
	return &Layout{tx: tx, shows: shows, seats: seats, bookings: bookings}
}

// CreateShow stores a new show.
func (l *Layout) CreateShow(ctx context.Context, in NewShow) (*model.Show, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Date, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s := &model.Show{Name: in.Name, Description: in.Description, Date: in.Date.UTC()}
	if err := l.shows.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// AddRows creates the given rows and their seats in one transaction: either
// every row of the request exists afterwards or none does.
func (l *Layout) AddRows(ctx context.Context, showID uint64, specs []RowSpec) ([]model.Row, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: at least one row is required", ErrInvalidInput)
	}
	normalized := make([]RowSpec, len(specs))
	for i, spec := range specs {
		n, err := normalizeRow(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidInput, i+1, err)
		}
		normalized[i] = n
	}

	var created []model.Row
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := l.shows.GetByID(ctx, showID); err != nil {
			return err
		}
		existing, err := l.seats.ListRows(ctx, showID)
		if err != nil {
			return err
		}
		created = created[:0]
		for i, spec := range normalized {
			if spec.Label == "" {
				spec.Label = RowLabelAt(len(existing) + i)
			}
			row := model.Row{
				ShowID:          showID,
				Label:           spec.Label,
				Sections:        spec.Sections,
				SeatsPerSection: spec.SeatsPerSection,
			}
			if err := l.seats.CreateRow(ctx, &row); err != nil {
				return err
			}
			if err := l.seats.CreateSeats(ctx, row.ID, GenerateSeats(row.SeatsPerSection, row.Sections)); err != nil {
				return err
			}
			created = append(created, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func normalizeRow(spec RowSpec) (RowSpec, error) {
	spec.Label = strings.ToUpper(strings.TrimSpace(spec.Label))
	if spec.Sections == 0 {
		spec.Sections = DefaultSections
	}
	if spec.SeatsPerSection == 0 {
		spec.SeatsPerSection = DefaultSeatsPerSection
	}
	err := validation.ValidateStruct(&spec,
		validation.Field(&spec.Label, validation.Length(1, 32)),
		validation.Field(&spec.Sections, validation.Min(1), validation.Max(MaxSeatsPerRow)),
		validation.Field(&spec.SeatsPerSection, validation.Min(1), validation.Max(MaxSeatsPerRow)),
	)
	if err != nil {
		return spec, err
	}
	// Both factors are bounded above, so the product cannot overflow.
	if spec.Sections*spec.SeatsPerSection > MaxSeatsPerRow {
		return spec, fmt.Errorf("a row holds at most %d seats", MaxSeatsPerRow)
	}
	return spec, nil
}

// GetShow returns a show with its rows and seats.  It reads without locks,
// so availability may lag a concurrent reservation by one request.
func (l *Layout) GetShow(ctx context.Context, id uint64) (*ShowDetail, error) {
	show, err := l.shows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := l.seats.ListRows(ctx, id)
	if err != nil {
		return nil, err
	}
	seats, err := l.seats.ListByShow(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ShowDetail{Show: *show, Rows: rows, Seats: seats}, nil
}

// ListShows returns every show with its seat counts.
func (l *Layout) ListShows(ctx context.Context) ([]model.ShowSummary, error) {
	return l.shows.List(ctx)
}

// Page sizes for SearchShows.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ShowQuery filters the public show listing.
type ShowQuery struct {
	Name     string
	Upcoming bool
	Page     int
	PageSize int
}

// ShowPage is one page of a show search.
type ShowPage struct {
	Shows    []model.ShowSummary
	Total    int64
	Page     int
	PageSize int
}

// SearchShows returns one page of shows matching q.  Out of range paging
// values are clamped rather than rejected.
func (l *Layout) SearchShows(ctx context.Context, q ShowQuery) (*ShowPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize < 1:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	shows, total, err := l.shows.Search(ctx, repository.ShowSearchQuery{
		Name:     q.Name,
		Upcoming: q.Upcoming,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ShowPage{Shows: shows, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// DeleteShow removes a show and everything below it atomically.
func (l *Layout) DeleteShow(ctx context.Context, id uint64) error {
	return l.tx.WithTx(ctx, func(ctx context.Context) error {
		return l.shows.Delete(ctx, id)
	})
}

// ListShowBookings returns the booking roster of a show.
func (l *Layout) ListShowBookings(ctx context.Context, showID uint64) ([]model.ShowBooking, error) {
	if _, err := l.shows.GetByID(ctx, showID); err != nil {
		return nil, err
	}
	return l.bookings.ListByShow(ctx, showID)
}

// RowLabelAt converts a zero-based row index to a label: A..Z, AA, AB, ...
func RowLabelAt(i int) string {
	if i < 0 {
		return ""
	}
	var res []byte
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}
