package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/recital-seat-booking/internal/clock"
	"github.com/iliyamo/recital-seat-booking/internal/model"
)

var fixedNow = time.Date(2025, 10, 3, 18, 30, 0, 0, time.UTC)

type fixture struct {
	store    *memStore
	notifier *fakeNotifier
	layout   *Layout
	engine   *Engine
	checkIn  *CheckIn
	identity *Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	n := &fakeNotifier{}
	clk := clock.NewFixed(fixedNow)
	return &fixture{
		store:    store,
		notifier: n,
		layout:   NewLayout(store, store.showStore(), store.seatStore(), store.bookingStore()),
		engine: NewEngine(store, store.showStore(), store.seatStore(), store.guestStore(), store.bookingStore(), n, clk, EngineConfig{
			FrontendURL: "https://recital.example/",
		}),
		checkIn: NewCheckIn(store, store.bookingStore(), clk),
		identity: NewIdentity(store, store.guestStore(), n, clk, IdentityConfig{
			JWTSecret:   "test-secret",
			FrontendURL: "https://recital.example",
		}),
	}
}

// seedShow creates a show with the given rows and returns it with its seats
// keyed by "<label><number>".
func (f *fixture) seedShow(t *testing.T, name string, rows ...RowSpec) (*model.Show, map[string]model.Seat) {
	t.Helper()
	ctx := context.Background()
	show, err := f.layout.CreateShow(ctx, NewShow{Name: name, Date: fixedNow.Add(72 * time.Hour)})
	require.NoError(t, err)
	_, err = f.layout.AddRows(ctx, show.ID, rows)
	require.NoError(t, err)
	detail, err := f.layout.GetShow(ctx, show.ID)
	require.NoError(t, err)
	seats := make(map[string]model.Seat, len(detail.Seats))
	for _, s := range detail.Seats {
		seats[s.RowLabel+strconv.Itoa(s.Number)] = s
	}
	return show, seats
}
