package model

import "time"

// Row is a labelled line of seats inside a show.  A row is split into
// Sections sections of SeatsPerSection seats each; sections only affect how
// the layout is displayed, numbering runs straight through the row.
type Row struct {
    ID              uint64 // seat_rows.id
    ShowID          uint64 // seat_rows.show_id
    Label           string // seat_rows.label, unique within a show
    Sections        int    // seat_rows.sections
    SeatsPerSection int    // seat_rows.seats_per_section
}

// SeatCount is the number of seats generated for the row.
func (r Row) SeatCount() int {
    return r.Sections * r.SeatsPerSection
}

// Seat is a single bookable position.  IsBooked is true exactly when
// BookedBy is set.
type Seat struct {
    ID       uint64     // seats.id
    RowID    uint64     // seats.row_id
    ShowID   uint64     // seat_rows.show_id (joined)
    RowLabel string     // seat_rows.label (joined)
    Number   int        // seats.seat_number, unique within the row
    IsBooked bool       // seats.is_booked
    BookedBy *uint64    // seats.booked_by (nullable)
    BookedAt *time.Time // seats.booked_at (nullable)
}
