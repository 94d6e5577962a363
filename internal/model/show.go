package model

import "time"

// Show is a single performance that guests can book seats for.  Once created
// a show is never edited; removing it cascades to its rows, seats and
// bookings.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name (e.g. "Fall Recital").
//  Description – optional free text.
//  Date        – when the performance takes place.
//  CreatedAt   – creation timestamp.
type Show struct {
    ID          uint64    // shows.id
    Name        string    // shows.name
    Description string    // shows.description
    Date        time.Time // shows.show_date
    CreatedAt   time.Time // shows.created_at
}

// ShowSummary is a show together with its seat counts, used by listings.
type ShowSummary struct {
    Show
    TotalSeats  int
    BookedSeats int
}

// AvailableSeats returns the number of seats still free.
func (s ShowSummary) AvailableSeats() int {
    return s.TotalSeats - s.BookedSeats
}
