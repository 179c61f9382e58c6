package service

import "errors"

// Error taxonomy shared by the service layer. Callers match with
// errors.Is; each layer wraps these with call-site context.
var (
	// ErrTransport covers network failures and non-2xx replies from the
	// AI endpoint.
	ErrTransport = errors.New("transport failure")

	// ErrParse means the model replied but the body was not the expected
	// JSON shape.
	ErrParse = errors.New("malformed model response")

	// ErrBackend covers database operation failures.
	ErrBackend = errors.New("backend failure")

	// ErrValidation covers rejected input before any remote call is made.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a row does not exist or is owned by
	// another user.
	ErrNotFound = errors.New("not found")

	// ErrLimitExceeded is returned by the pre-call limit check when
	// enforcement is enabled.
	ErrLimitExceeded = errors.New("daily AI limit reached")
)
