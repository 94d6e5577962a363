// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair that moves them.
package queue

// Queue names.  Both are declared durable.
const (
    BookingConfirmedQueue = "booking.confirmed"
    LoginRequestedQueue   = "guest.login_requested"
)

// BookingConfirmedEvent is published after a booking commits.  It carries
// what a mailer needs to send the confirmation (and render the QR code from
// CheckInURL) without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID      uint64 `json:"booking_id"`
    ConfirmationID string `json:"confirmation_id"`
    GuestID        uint64 `json:"guest_id"`
    GuestEmail     string `json:"guest_email"`
    GuestName      string `json:"guest_name"`
    ShowID         uint64 `json:"show_id"`
    ShowName       string `json:"show_name"`
    ShowDate       string `json:"show_date"`
    RowLabel       string `json:"row_label"`
    SeatNumber     int    `json:"seat_number"`
    CheckInURL     string `json:"check_in_url"`
    BookedAt       string `json:"booked_at"`
}

// LoginRequestedEvent asks the mailer to deliver a one-time login link.
type LoginRequestedEvent struct {
    GuestID   uint64 `json:"guest_id"`
    Email     string `json:"email"`
    Name      string `json:"name"`
    LoginURL  string `json:"login_url"`
    ExpiresAt string `json:"expires_at"`
}
