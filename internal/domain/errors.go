package domain

import "errors"

// ErrNotFound is returned by repo functions when the requested resource does
// not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation marks a submitted form that failed validation.
// Handlers should redisplay the form with HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConfiguration is returned when a form is built with options that cannot
// be resolved: an unparsable action URL, no current route to derive one from,
// or data that cannot be bound. It is raised before any persistence side effect.
var ErrConfiguration = errors.New("configuration error")

// ErrPersistence wraps failures of the underlying store during commit.
// It is never recovered locally; handlers map it to HTTP 500.
var ErrPersistence = errors.New("persistence error")
