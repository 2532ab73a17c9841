package domain

import "errors"

var (
	// ErrDataIntegrity marks catalog or accounting corruption: a dangling
	// rule reference, a mandatory cycle, or a negative availability. Never
	// surfaced to callers as a validation message.
	ErrDataIntegrity = errors.New("data integrity fault")

	// ErrConcurrencyConflict is returned when the commit-time re-check
	// loses to a concurrent transaction. Callers treat it like a
	// validation failure; logs keep it distinct.
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")

	// ErrUnauthorized covers missing, expired or mis-signed credentials at
	// a trust boundary. Always fails closed.
	ErrUnauthorized = errors.New("unauthorized")

	ErrConfigurationExists = errors.New("car configuration already present")
	ErrNoConfiguration     = errors.New("no car configuration present")
	ErrDuplicateRequest    = errors.New("duplicate request")
	ErrUserNotFound        = errors.New("user not found")
)
