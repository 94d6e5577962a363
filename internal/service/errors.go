package service

import "errors"

// ErrUnauthorized means the caller's credential is missing, invalid, expired
// or refers to a guest that no longer exists.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidInput wraps request validation failures.
var ErrInvalidInput = errors.New("invalid input")
