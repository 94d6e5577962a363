package model

import "time"

// BookingStatus is the check-in state of a booking.
type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"
    BookingCheckedIn BookingStatus = "checked_in"
)

// Booking binds one seat to one guest.  ConfirmationID is the guest-facing
// capability used for check-in; CheckedInAt is set once and never cleared.
type Booking struct {
    ID             uint64     // bookings.id
    GuestID        uint64     // bookings.guest_id
    SeatID         uint64     // bookings.seat_id (unique)
    ShowID         uint64     // bookings.show_id
    ConfirmationID string     // bookings.confirmation_id (unique)
    CheckedIn      bool       // bookings.checked_in
    BookedAt       time.Time  // bookings.booked_at
    CheckedInAt    *time.Time // bookings.checked_in_at (nullable)
}

// Status derives the state machine position from the checked-in flag.
func (b Booking) Status() BookingStatus {
    if b.CheckedIn {
        return BookingCheckedIn
    }
    return BookingPending
}

// GuestBooking is a booking joined with the show and seat it refers to, as
// listed for the guest who owns it.
type GuestBooking struct {
    Booking
    ShowName   string
    ShowDate   time.Time
    RowLabel   string
    SeatNumber int
}

// ShowBooking is a booking joined with guest and seat details, as listed on
// the admin roster of a show.
type ShowBooking struct {
    Booking
    GuestEmail string
    GuestName  string
    RowLabel   string
    SeatNumber int
}
