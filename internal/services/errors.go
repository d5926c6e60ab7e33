package services

import (
	"errors"
	"net/http"
)

// Domain error taxonomy. Financial mutations surface these unwrapped or
// wrapped with %w; handlers map them to HTTP statuses via StatusForError.
var (
	ErrNotFound                    = errors.New("not found")
	ErrCurrencyMismatch            = errors.New("currency mismatch")
	ErrInsufficientUnreservedFunds = errors.New("insufficient unreserved funds")
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrDuplicateReservation        = errors.New("category already has a reservation on this account")
	ErrNegativeBalance             = errors.New("reservation balance cannot go negative")
	ErrAuthProvider                = errors.New("auth provider error")
	ErrMalformedCallback           = errors.New("malformed callback url")
)

// StatusForError maps a domain error to an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCurrencyMismatch),
		errors.Is(err, ErrNegativeBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInsufficientUnreservedFunds),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrDuplicateReservation):
		return http.StatusConflict
	case errors.Is(err, ErrAuthProvider):
		return http.StatusUnauthorized
	case errors.Is(err, ErrMalformedCallback):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
