package model

import "time"

// Guest is a person identified by email who books seats.  Guests have no
// password; they sign in through a one-time login link.
type Guest struct {
    ID          uint64    // guests.id
    Email       string    // guests.email (unique)
    DisplayName string    // guests.display_name
    CreatedAt   time.Time // guests.created_at
}
