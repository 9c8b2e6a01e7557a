package service

import "errors"

var (
	// ErrProfileNotFound is returned when no user profile has been created yet.
	ErrProfileNotFound = errors.New("user profile not found")
	// ErrEntryNotFound is returned when a food entry id does not exist.
	ErrEntryNotFound = errors.New("food entry not found")
	// ErrValidation is returned for rejected user input. No state is mutated
	// when a validation error is returned.
	ErrValidation = errors.New("validation failed")
	// ErrKeyUnavailable is returned when no recognition API key could be
	// obtained from configuration or the remote provider.
	ErrKeyUnavailable = errors.New("recognition API key unavailable")
)
