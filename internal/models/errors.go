package models

import "errors"

var (
	// ErrNotFound is returned when an id does not match any record.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input rejected before it reaches any store.
	ErrValidation = errors.New("validation error")
)
