package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidEmail          = errors.New("not a valid email address")
	ErrInvalidName           = errors.New("name must be 1-256 characters without /()\"<>\\{}")
	ErrInvalidTitle          = errors.New("title must not be empty")
	ErrEmailTaken            = errors.New("email address is already subscribed")
	ErrUnknownToken          = errors.New("no subscriber pending confirmation for the provided token")
	ErrInvalidIdempotencyKey = errors.New("idempotency key must be 1-50 characters")
	ErrPublishInFlight       = errors.New("a previous request with this idempotency key has not finished")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrPasswordMismatch      = errors.New("new password fields do not match")
	ErrPasswordTooShort      = errors.New("new password must be at least 12 characters")
)
