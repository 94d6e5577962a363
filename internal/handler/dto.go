package handler

// Response shapes.  Models carry no JSON tags; these types decide what each
// endpoint exposes.  Public seat maps never reveal who booked a seat.

import (
    "time"

    "github.com/iliyamo/recital-seat-booking/internal/model"
    "github.com/iliyamo/recital-seat-booking/internal/service"
)

type ShowJSON struct {
    ID          uint64    `json:"id"`
    Name        string    `json:"name"`
    Description string    `json:"description"`
    Date        time.Time `json:"date"`
    CreatedAt   time.Time `json:"created_at"`
}

type ShowSummaryJSON struct {
    ShowJSON
    TotalSeats     int `json:"total_seats"`
    BookedSeats    int `json:"booked_seats"`
    AvailableSeats int `json:"available_seats"`
}

type RowJSON struct {
    ID              uint64 `json:"id"`
    Label           string `json:"label"`
    Sections        int    `json:"sections"`
    SeatsPerSection int    `json:"seats_per_section"`
    SeatCount       int    `json:"seat_count"`
}

type SeatJSON struct {
    ID         uint64 `json:"id"`
    RowID      uint64 `json:"row_id"`
    RowLabel   string `json:"row_label"`
    SeatNumber int    `json:"seat_number"`
    IsBooked   bool   `json:"is_booked"`
}

type BookingJSON struct {
    ID             uint64     `json:"id"`
    ConfirmationID string     `json:"confirmation_id"`
    ShowID         uint64     `json:"show_id"`
    SeatID         uint64     `json:"seat_id"`
    RowLabel       string     `json:"row_label,omitempty"`
    SeatNumber     int        `json:"seat_number,omitempty"`
    Status         string     `json:"status"`
    BookedAt       time.Time  `json:"booked_at"`
    CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
    CheckInURL     string     `json:"check_in_url,omitempty"`
    ShowName       string     `json:"show_name,omitempty"`
    ShowDate       *time.Time `json:"show_date,omitempty"`
    GuestEmail     string     `json:"guest_email,omitempty"`
    GuestName      string     `json:"guest_name,omitempty"`
}

type GuestJSON struct {
    ID          uint64 `json:"id"`
    Email       string `json:"email"`
    DisplayName string `json:"display_name"`
}

func toShowJSON(s model.Show) ShowJSON {
    return ShowJSON{ID: s.ID, Name: s.Name, Description: s.Description, Date: s.Date, CreatedAt: s.CreatedAt}
}

func toSummaries(list []model.ShowSummary) []ShowSummaryJSON {
    out := make([]ShowSummaryJSON, 0, len(list))
    for _, s := range list {
        out = append(out, ShowSummaryJSON{
            ShowJSON:       toShowJSON(s.Show),
            TotalSeats:     s.TotalSeats,
            BookedSeats:    s.BookedSeats,
            AvailableSeats: s.AvailableSeats(),
        })
    }
    return out
}

func toRows(rows []model.Row) []RowJSON {
    out := make([]RowJSON, 0, len(rows))
    for _, r := range rows {
        out = append(out, RowJSON{
            ID:              r.ID,
            Label:           r.Label,
            Sections:        r.Sections,
            SeatsPerSection: r.SeatsPerSection,
            SeatCount:       r.SeatCount(),
        })
    }
    return out
}

func toSeats(seats []model.Seat) []SeatJSON {
    out := make([]SeatJSON, 0, len(seats))
    for _, s := range seats {
        out = append(out, SeatJSON{ID: s.ID, RowID: s.RowID, RowLabel: s.RowLabel, SeatNumber: s.Number, IsBooked: s.IsBooked})
    }
    return out
}

func toBookingJSON(b model.Booking) BookingJSON {
    return BookingJSON{
        ID:             b.ID,
        ConfirmationID: b.ConfirmationID,
        ShowID:         b.ShowID,
        SeatID:         b.SeatID,
        Status:         string(b.Status()),
        BookedAt:       b.BookedAt,
        CheckedInAt:    b.CheckedInAt,
    }
}

func reservationJSON(r service.Reservation) BookingJSON {
    out := toBookingJSON(r.Booking)
    out.RowLabel = r.RowLabel
    out.SeatNumber = r.SeatNumber
    out.CheckInURL = r.CheckInURL
    return out
}

func guestBookingsJSON(list []model.GuestBooking, frontendURL string) []BookingJSON {
    out := make([]BookingJSON, 0, len(list))
    for _, b := range list {
        j := toBookingJSON(b.Booking)
        date := b.ShowDate
        j.ShowName = b.ShowName
        j.ShowDate = &date
        j.RowLabel = b.RowLabel
        j.SeatNumber = b.SeatNumber
        j.CheckInURL = service.CheckInURL(frontendURL, b.ConfirmationID)
        out = append(out, j)
    }
    return out
}

func showBookingsJSON(list []model.ShowBooking) []BookingJSON {
    out := make([]BookingJSON, 0, len(list))
    for _, b := range list {
        j := toBookingJSON(b.Booking)
        j.GuestEmail = b.GuestEmail
        j.GuestName = b.GuestName
        j.RowLabel = b.RowLabel
        j.SeatNumber = b.SeatNumber
        out = append(out, j)
    }
    return out
}

func toGuestJSON(g model.Guest) GuestJSON {
    return GuestJSON{ID: g.ID, Email: g.Email, DisplayName: g.DisplayName}
}
