package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// status or result does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails validation (e.g. a webhook
// payload without an origin, or a malformed departure date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNoOptions is returned by the pipeline when every provider came back empty.
// It is reported to the user as a processing error, never ranked.
var ErrNoOptions = errors.New("no results found")

// ErrInvalidSignature is returned when a webhook signature is missing or does
// not match the configured secret.
// Handlers should map this to HTTP 403.
var ErrInvalidSignature = errors.New("invalid webhook signature")
