// Package repository holds the MySQL data access layer.  The sentinel errors
// below are the only failure categories callers need to tell apart: every
// specific error wraps one of ErrNotFound, ErrConflict or ErrTransient so
// handlers can map them with errors.Is.
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed show, seat, guest or booking
// does not exist.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state, such as
// booking a seat that is already taken.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrTransient signals lock wait timeouts, deadlocks, lost connections and
// expired deadlines.  The failed unit of work was rolled back and the whole
// request may be retried.
var ErrTransient = errors.New("store temporarily unavailable")

var (
	ErrShowNotFound    = fmt.Errorf("show %w", ErrNotFound)
	ErrSeatNotFound    = fmt.Errorf("seat %w", ErrNotFound)
	ErrGuestNotFound   = fmt.Errorf("guest %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)

	ErrSeatTaken = fmt.Errorf("seat already booked: %w", ErrConflict)
	ErrRowExists = fmt.Errorf("row label already used in show: %w", ErrConflict)
)

// MySQL server error numbers the store reacts to.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errLockDeadlock    = 1213
)

// classify maps driver errors onto the sentinel categories.  Errors that do
// not fall into a category are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrTransient) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errLockWaitTimeout, errLockDeadlock:
			return fmt.Errorf("%w: %w", ErrTransient, err)
		case errDupEntry:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}
	return err
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}
