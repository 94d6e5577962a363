package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/recital-seat-booking/internal/model"
	"github.com/iliyamo/recital-seat-booking/internal/queue"
	"github.com/iliyamo/recital-seat-booking/internal/repository"
)

// memStore is an in-memory store with the same contract as the MySQL one:
// WithTx serialises units of work (standing in for the seat row lock) and
// undoes every write of a unit that fails or panics.  With concurrent set,
// units of work interleave freely and only the conditional writes (MarkBooked
// on a free seat, one booking per seat) keep a seat exclusive.
type memStore struct {
	txmu sync.Mutex
	mu   sync.Mutex

	concurrent bool
	// afterSeatRead runs after GetForUpdate reads a seat, outside any lock.
	afterSeatRead func()

	nextID   uint64
	shows    map[uint64]model.Show
	rows     map[uint64]model.Row
	seats    map[uint64]model.Seat
	guests   map[uint64]memGuest
	bookings map[uint64]model.Booking

	// failures injected by tests
	failBookingCreate error
}

type memGuest struct {
	model.Guest
	tokenHash string
	tokenExp  time.Time
}

type memTxKey struct{}

// memTx is the undo log of one unit of work.
type memTx struct {
	undo []func()
}

func newMemStore() *memStore {
	return &memStore{
		shows:    map[uint64]model.Show{},
		rows:     map[uint64]model.Row{},
		seats:    map[uint64]model.Seat{},
		guests:   map[uint64]memGuest{},
		bookings: map[uint64]model.Booking{},
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	if !m.concurrent {
		m.txmu.Lock()
		defer m.txmu.Unlock()
	}

	tx := &memTx{}
	committed := false
	defer func() {
		if committed {
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}()

	if err := ctx.Err(); err != nil {
		return repository.ErrTransient
	}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return err
	}
	committed = true
	return nil
}

// record registers how to revert a write made inside a unit of work.
// Callers hold m.mu.
func (m *memStore) record(ctx context.Context, f func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, f)
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) showStore() memShows       { return memShows{m} }
func (m *memStore) seatStore() memSeats       { return memSeats{m} }
func (m *memStore) guestStore() memGuests     { return memGuests{m} }
func (m *memStore) bookingStore() memBookings { return memBookings{m} }

// addGuest inserts a guest directly.
func (m *memStore) addGuest(email string) model.Guest {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := model.Guest{ID: m.id(), Email: email, DisplayName: email, CreatedAt: time.Now()}
	m.guests[g.ID] = memGuest{Guest: g}
	return g
}

// seatInvariantHolds reports whether every seat is booked exactly when one
// booking references it.
func (m *memStore) seatInvariantHolds() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := map[uint64]int{}
	for _, b := range m.bookings {
		refs[b.SeatID]++
	}
	for id, s := range m.seats {
		if refs[id] > 1 {
			return false
		}
		if s.IsBooked != (refs[id] == 1) || s.IsBooked != (s.BookedBy != nil) {
			return false
		}
	}
	return true
}

type memShows struct{ m *memStore }

func (s memShows) Create(ctx context.Context, sh *model.Show) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sh.ID = s.m.id()
	sh.CreatedAt = time.Now().UTC()
	s.m.shows[sh.ID] = *sh
	id := sh.ID
	s.m.record(ctx, func() { delete(s.m.shows, id) })
	return nil
}

func (s memShows) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sh, ok := s.m.shows[id]
	if !ok {
		return nil, repository.ErrShowNotFound
	}
	return &sh, nil
}

func (s memShows) List(ctx context.Context) ([]model.ShowSummary, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.ShowSummary{}
	for _, sh := range s.m.shows {
		sum := model.ShowSummary{Show: sh}
		for _, seat := range s.m.seats {
			if s.m.rows[seat.RowID].ShowID == sh.ID {
				sum.TotalSeats++
				if seat.IsBooked {
					sum.BookedSeats++
				}
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memShows) Search(ctx context.Context, q repository.ShowSearchQuery) ([]model.ShowSummary, int64, error) {
	all, _ := s.List(ctx)
	now := time.Now()
	matched := []model.ShowSummary{}
	for _, sh := range all {
		if q.Upcoming && sh.Date.Before(now) {
			continue
		}
		if !strings.Contains(strings.ToLower(sh.Name), strings.ToLower(strings.TrimSpace(q.Name))) {
			continue
		}
		matched = append(matched, sh)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	total := int64(len(matched))
	from := (q.Page - 1) * q.PageSize
	if from >= len(matched) {
		return []model.ShowSummary{}, total, nil
	}
	to := from + q.PageSize
	if to > len(matched) {
		to = len(matched)
	}
	return matched[from:to], total, nil
}

func (s memShows) Delete(ctx context.Context, id uint64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sh, ok := s.m.shows[id]
	if !ok {
		return repository.ErrShowNotFound
	}
	for bid, b := range s.m.bookings {
		if b.ShowID == id {
			delete(s.m.bookings, bid)
			b := b
			s.m.record(ctx, func() { s.m.bookings[b.ID] = b })
		}
	}
	for sid, seat := range s.m.seats {
		if s.m.rows[seat.RowID].ShowID == id {
			delete(s.m.seats, sid)
			seat := seat
			s.m.record(ctx, func() { s.m.seats[seat.ID] = seat })
		}
	}
	for rid, row := range s.m.rows {
		if row.ShowID == id {
			delete(s.m.rows, rid)
			row := row
			s.m.record(ctx, func() { s.m.rows[row.ID] = row })
		}
	}
	delete(s.m.shows, id)
	s.m.record(ctx, func() { s.m.shows[sh.ID] = sh })
	return nil
}

type memSeats struct{ m *memStore }

func (s memSeats) CreateRow(ctx context.Context, row *model.Row) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.rows {
		if r.ShowID == row.ShowID && r.Label == row.Label {
			return repository.ErrRowExists
		}
	}
	row.ID = s.m.id()
	s.m.rows[row.ID] = *row
	id := row.ID
	s.m.record(ctx, func() { delete(s.m.rows, id) })
	return nil
}

func (s memSeats) CreateSeats(ctx context.Context, rowID uint64, numbers []int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	row := s.m.rows[rowID]
	for _, n := range numbers {
		seat := model.Seat{ID: s.m.id(), RowID: rowID, ShowID: row.ShowID, RowLabel: row.Label, Number: n}
		s.m.seats[seat.ID] = seat
		id := seat.ID
		s.m.record(ctx, func() { delete(s.m.seats, id) })
	}
	return nil
}

func (s memSeats) ListRows(ctx context.Context, showID uint64) ([]model.Row, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Row{}
	for _, r := range s.m.rows {
		if r.ShowID == showID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memSeats) ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Seat{}
	for _, seat := range s.m.seats {
		if seat.ShowID == showID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowID != out[j].RowID {
			return out[i].RowID < out[j].RowID
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (s memSeats) GetForUpdate(ctx context.Context, seatID uint64) (*model.Seat, error) {
	s.m.mu.Lock()
	seat, ok := s.m.seats[seatID]
	hook := s.m.afterSeatRead
	s.m.mu.Unlock()
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	if hook != nil {
		hook()
	}
	return &seat, nil
}

func (s memSeats) MarkBooked(ctx context.Context, seatID, guestID uint64, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	seat, ok := s.m.seats[seatID]
	if !ok || seat.IsBooked {
		return repository.ErrSeatTaken
	}
	prev := seat
	g, t := guestID, at
	seat.IsBooked, seat.BookedBy, seat.BookedAt = true, &g, &t
	s.m.seats[seatID] = seat
	s.m.record(ctx, func() { s.m.seats[seatID] = prev })
	return nil
}

type memGuests struct{ m *memStore }

func (s memGuests) UpsertLoginToken(ctx context.Context, email, displayName, tokenHash string, exp time.Time) (*model.Guest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, g := range s.m.guests {
		if g.Email == email {
			if displayName != "" {
				g.DisplayName = displayName
			}
			g.tokenHash, g.tokenExp = tokenHash, exp
			s.m.guests[id] = g
			out := g.Guest
			return &out, nil
		}
	}
	g := memGuest{
		Guest:     model.Guest{ID: s.m.id(), Email: email, DisplayName: displayName, CreatedAt: time.Now()},
		tokenHash: tokenHash,
		tokenExp:  exp,
	}
	s.m.guests[g.ID] = g
	out := g.Guest
	return &out, nil
}

func (s memGuests) ConsumeLoginToken(ctx context.Context, tokenHash string) (*model.Guest, time.Time, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, g := range s.m.guests {
		if g.tokenHash != "" && g.tokenHash == tokenHash {
			prev := g
			exp := g.tokenExp
			g.tokenHash, g.tokenExp = "", time.Time{}
			s.m.guests[id] = g
			s.m.record(ctx, func() { s.m.guests[id] = prev })
			out := g.Guest
			return &out, exp, nil
		}
	}
	return nil, time.Time{}, repository.ErrGuestNotFound
}

func (s memGuests) GetByID(ctx context.Context, id uint64) (*model.Guest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	g, ok := s.m.guests[id]
	if !ok {
		return nil, repository.ErrGuestNotFound
	}
	out := g.Guest
	return &out, nil
}

type memBookings struct{ m *memStore }

func (s memBookings) Create(ctx context.Context, b *model.Booking) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.failBookingCreate != nil {
		return s.m.failBookingCreate
	}
	for _, other := range s.m.bookings {
		if other.SeatID == b.SeatID || other.ConfirmationID == b.ConfirmationID {
			return repository.ErrSeatTaken
		}
	}
	b.ID = s.m.id()
	s.m.bookings[b.ID] = *b
	id := b.ID
	s.m.record(ctx, func() { delete(s.m.bookings, id) })
	return nil
}

func (s memBookings) find(confirmationID string) (model.Booking, bool) {
	for _, b := range s.m.bookings {
		if b.ConfirmationID == confirmationID {
			return b, true
		}
	}
	return model.Booking{}, false
}

func (s memBookings) GetByConfirmation(ctx context.Context, confirmationID string) (*model.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.find(confirmationID)
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (s memBookings) CheckIn(ctx context.Context, confirmationID string, at time.Time) (*model.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.find(confirmationID)
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	prev := b
	b.CheckedIn = true
	if b.CheckedInAt == nil {
		t := at
		b.CheckedInAt = &t
	}
	s.m.bookings[b.ID] = b
	s.m.record(ctx, func() { s.m.bookings[prev.ID] = prev })
	return &b, nil
}

func (s memBookings) ListByGuest(ctx context.Context, guestID uint64) ([]model.GuestBooking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.GuestBooking{}
	for _, b := range s.m.bookings {
		if b.GuestID != guestID {
			continue
		}
		seat := s.m.seats[b.SeatID]
		sh := s.m.shows[b.ShowID]
		out = append(out, model.GuestBooking{Booking: b, ShowName: sh.Name, ShowDate: sh.Date, RowLabel: seat.RowLabel, SeatNumber: seat.Number})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memBookings) ListByShow(ctx context.Context, showID uint64) ([]model.ShowBooking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.ShowBooking{}
	for _, b := range s.m.bookings {
		if b.ShowID != showID {
			continue
		}
		seat := s.m.seats[b.SeatID]
		g := s.m.guests[b.GuestID]
		out = append(out, model.ShowBooking{Booking: b, GuestEmail: g.Email, GuestName: g.DisplayName, RowLabel: seat.RowLabel, SeatNumber: seat.Number})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out, nil
}

// fakeNotifier records published events and fails when err is set.
type fakeNotifier struct {
	mu       sync.Mutex
	err      error
	bookings []queue.BookingConfirmedEvent
	logins   []queue.LoginRequestedEvent
}

func (n *fakeNotifier) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.bookings = append(n.bookings, ev)
	return nil
}

func (n *fakeNotifier) PublishLoginRequested(ctx context.Context, ev queue.LoginRequestedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.logins = append(n.logins, ev)
	return nil
}
